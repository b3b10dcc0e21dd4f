// Package metrics はsnackのPrometheusメトリクスを提供する。
//
// リクエストの結果ごとの件数と、転送先サービスごとの転送時間を記録する。
// 管理用リスナーの /metrics で公開する。
package metrics
