package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/snack/internal/metrics"
	"github.com/nao1215/snack/internal/registry"
	"github.com/nao1215/snack/pkg/middleware"
)

// NewAdminHandler はヘルスチェックとメトリクスを公開する管理用ハンドラを返す。
// Slackからのリクエストとパスが衝突しないよう、受付とは別のリスナーで公開する。
func NewAdminHandler(reg *registry.Registry, m *metrics.Metrics) http.Handler {
	router := gin.New()
	router.Use(middleware.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "snack", "routes": reg.Len()})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router
}
