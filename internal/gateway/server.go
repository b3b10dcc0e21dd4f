package gateway

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/snack/internal/metrics"
	"github.com/nao1215/snack/internal/registry"
	"github.com/nao1215/snack/pkg/httpclient"
	"github.com/nao1215/snack/pkg/middleware"
	"github.com/nao1215/snack/pkg/resource"
	"github.com/nao1215/snack/pkg/slack"
)

// Server はsnackの受付用HTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// registry は転送先サービスの一覧。起動後は変更されない。
	registry *registry.Registry
	// client はすべてのリクエストで共有する転送用クライアント。
	client *httpclient.Client
	// metrics はリクエスト結果と転送時間の記録先。
	metrics *metrics.Metrics
	// maxBodyBytes は受け付けるリクエストボディの最大サイズ。
	maxBodyBytes int64
	// now は署名の鮮度判定に使う現在時刻の取得関数。
	now func() time.Time
}

// NewServer は新しい受付サーバーを生成する。
func NewServer(reg *registry.Registry, client *httpclient.Client, m *metrics.Metrics, maxBodyBytes int64) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())

	s := &Server{
		router:       router,
		registry:     reg,
		client:       client,
		metrics:      m,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
	}
	s.setupRoutes()

	return s
}

// Handler はhttp.Serverに渡すハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes はルーティングを設定する。
// パスの解釈は resource.Resolve が行うため、すべてのメソッドとパスを1つのハンドラで受ける。
func (s *Server) setupRoutes() {
	s.router.RedirectTrailingSlash = false
	s.router.RedirectFixedPath = false
	s.router.HandleMethodNotAllowed = false
	s.router.NoRoute(s.handleIngress())
}

// handleIngress はSlackからのリクエストを検証して転送するハンドラを返す。
func (s *Server) handleIngress() gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome := s.process(c)
		s.metrics.ObserveOutcome(outcome.Kind.String())
		if outcome.Kind != KindSuccess {
			log.Printf("[Gateway] request_id=%s service=%q outcome=%s", middleware.GetRequestID(c), outcome.ServiceID, outcome.Kind)
		}
		outcome.write(c)
	}
}

// process は1件のリクエストをヘッダー抽出、ボディ読み取り、サービス解決、署名検証、転送の順に処理する。
// いずれかの段階で失敗した時点で以降の処理は行わない。
func (s *Server) process(c *gin.Context) Outcome {
	headers, err := slack.ExtractHeaders(c.Request.Header)
	if err != nil {
		return failure(KindRequestError, "")
	}

	body, err := s.readBody(c)
	if err != nil {
		log.Printf("[Gateway] request_id=%s ボディの読み取りに失敗: %v", middleware.GetRequestID(c), err)
		return failure(KindRequestError, "")
	}

	serviceID, downstreamPath := resource.Resolve(requestTarget(c.Request))
	service, ok := s.registry.Lookup(serviceID)
	if !ok {
		return failure(KindUnknownService, serviceID)
	}

	if !slack.Verify(headers, service.SharedSecret, body, s.now()) {
		return failure(KindVerificationError, service.ID)
	}

	if cmd := slack.ParseCommand(body); cmd.Command != "" {
		log.Printf("[Gateway] request_id=%s service=%q command=%q team=%s user=%s", middleware.GetRequestID(c), service.ID, cmd.Command, cmd.TeamID, cmd.UserID)
	}

	return s.forward(c, service, downstreamPath, body)
}

// readBody はリクエストボディをmaxBodyBytesまで読み取る。
func (s *Server) readBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil {
		return nil, nil
	}
	reader := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの読み取りに失敗: %w", err)
	}
	return body, nil
}

// forward は検証済みのリクエストを転送先サービスに送り、結果を返す。
func (s *Server) forward(c *gin.Context, service registry.ServiceDescriptor, downstreamPath string, body []byte) Outcome {
	header := http.Header{}
	for _, key := range []string{"Content-Type", "Accept-Encoding"} {
		if value := c.GetHeader(key); value != "" {
			header.Set(key, value)
		}
	}
	if service.Resign {
		slack.Sign(service.SharedSecret, body, s.now()).Apply(header)
	}
	if service.ForwardTokenSecret != "" {
		token, err := middleware.GenerateForwardToken(service.ForwardTokenSecret, service.ID)
		if err != nil {
			log.Printf("[Gateway] request_id=%s service=%q 転送トークンの生成に失敗: %v", middleware.GetRequestID(c), service.ID, err)
			return failure(KindInvalidRequest, service.ID)
		}
		header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.client.Forward(c.Request.Context(), httpclient.ForwardRequest{
		Address:    service.Address(),
		Method:     c.Request.Method,
		ProtoMajor: c.Request.ProtoMajor,
		ProtoMinor: c.Request.ProtoMinor,
		Path:       downstreamPath,
		Body:       body,
		Header:     header,
	})
	s.metrics.ObserveForward(service.ID, time.Since(start))

	switch {
	case err == nil:
		return Outcome{
			Kind:       KindSuccess,
			ServiceID:  service.ID,
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       resp.Body,
		}
	case errors.Is(err, httpclient.ErrTimeout):
		log.Printf("[Gateway] request_id=%s service=%q 転送先がタイムアウト: %v", middleware.GetRequestID(c), service.ID, err)
		return failure(KindTimeoutError, service.ID)
	case errors.Is(err, httpclient.ErrInvalidRequest):
		log.Printf("[Gateway] request_id=%s service=%q 転送リクエストを作成できません: %v", middleware.GetRequestID(c), service.ID, err)
		return failure(KindInvalidRequest, service.ID)
	default:
		log.Printf("[Gateway] request_id=%s service=%q 転送に失敗: %v", middleware.GetRequestID(c), service.ID, err)
		return failure(KindTransportError, service.ID)
	}
}

// requestTarget はクエリ文字列を含む元のリクエストターゲットを返す。
func requestTarget(r *http.Request) string {
	if r.RequestURI != "" {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}
