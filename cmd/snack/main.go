// snackのエントリポイント。
// Slackからのスラッシュコマンドを1つのポートで受け付け、署名を検証してから
// パスの先頭で指定されたサービスに転送する。
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nao1215/snack/internal/config"
	"github.com/nao1215/snack/internal/gateway"
	"github.com/nao1215/snack/internal/metrics"
	"github.com/nao1215/snack/pkg/httpclient"
)

// version はビルド時に -ldflags で上書きされる。
var version = "dev"

// shutdownTimeout は終了時に処理中のリクエストを待つ最大時間。
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("snackの起動に失敗: %v", err)
	}
}

// run はフラグを解析し、シグナルを受け取るまでサーバーを動かす。
func run(args []string) error {
	flags := pflag.NewFlagSet("snack", pflag.ContinueOnError)
	configPath := flags.String("config", config.DefaultPath, "設定ファイルのパス（.toml / .yaml）")
	adminAddr := flags.String("admin-addr", ":7293", "ヘルスチェックとメトリクスを公開するアドレス（空の場合は無効）")
	showVersion := flags.Bool("version", false, "バージョンを表示して終了する")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Printf("snack %s\n", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	log.Printf("[Snack] 転送先サービス: %s", strings.Join(reg.IDs(), ", "))

	m := metrics.New()
	server := gateway.NewServer(reg, httpclient.New(), m, cfg.MaxBodyBytes)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	servers := []*http.Server{newHTTPServer(":"+getEnvOr("PORT", "7292"), server.Handler())}
	if *adminAddr != "" {
		servers = append(servers, newHTTPServer(*adminAddr, gateway.NewAdminHandler(reg, m)))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			log.Printf("[Snack] リッスンを開始します: %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("%s: %w", srv.Addr, err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		log.Printf("[Snack] 終了シグナルを受信しました")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[Snack] %s の停止に失敗: %v", srv.Addr, err)
		}
	}
	log.Printf("[Snack] 停止しました")

	return serveErr
}

// newHTTPServer は低速なクライアントに接続を占有されないようタイムアウトを設定したhttp.Serverを返す。
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// getEnvOr は環境変数を取得し、未設定の場合はデフォルト値を返す。
func getEnvOr(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
