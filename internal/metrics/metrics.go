package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はsnackのメトリクス一式。複数のゴルーチンから同時に使用できる。
type Metrics struct {
	// registry はメトリクスを登録するPrometheusレジストリ。
	registry *prometheus.Registry
	// requests は結果ごとのリクエスト件数。
	requests *prometheus.CounterVec
	// forwardDuration は転送先サービスごとの転送時間。
	forwardDuration *prometheus.HistogramVec
}

// New は専用のレジストリにメトリクスを登録して返す。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snack_requests_total",
				Help: "Total number of ingress requests by outcome",
			},
			[]string{"outcome"},
		),
		forwardDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snack_forward_duration_seconds",
				Help:    "Latency of calls forwarded to backend services",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"service"},
		),
	}
}

// ObserveOutcome はリクエストの結果を1件記録する。
func (m *Metrics) ObserveOutcome(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

// ObserveForward は転送1回の所要時間を記録する。
// serviceには登録済みのサービスIDのみを渡すこと。
func (m *Metrics) ObserveForward(service string, d time.Duration) {
	m.forwardDuration.WithLabelValues(service).Observe(d.Seconds())
}

// Handler はメトリクスを公開するHTTPハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer はテストや外部の集計で使用するためのレジストリを返す。
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
