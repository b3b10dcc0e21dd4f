package httpclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// RequestURI はリクエストターゲット。
	RequestURI string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// addressOf はhttptest.ServerのURLから "host:port" を取り出す。
func addressOf(ts *httptest.Server) string {
	return strings.TrimPrefix(ts.URL, "http://")
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("既定の制限時間が2500ミリ秒であること", func(t *testing.T) {
		t.Parallel()

		client := New()
		if client.timeout != 2500*time.Millisecond {
			t.Errorf("timeout = %v, want 2.5s", client.timeout)
		}
		if client.httpClient == nil {
			t.Fatal("httpClientがnil")
		}
	})

	t.Run("WithTimeoutで制限時間を変更できること", func(t *testing.T) {
		t.Parallel()

		client := New(WithTimeout(time.Second))
		if client.timeout != time.Second {
			t.Errorf("timeout = %v, want 1s", client.timeout)
		}
	})
}

// TestForward はForwardを検証する。
func TestForward(t *testing.T) {
	t.Parallel()

	t.Run("メソッドとパスとボディを転送し応答をそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		var received testRequest
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received.Method = r.Method
			received.RequestURI = r.RequestURI
			received.Body, _ = io.ReadAll(r.Body)
			received.Headers = r.Header

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Backend", "yes")
			w.WriteHeader(http.StatusAccepted)
			w.Write([]byte(`{"text":"done"}`))
		}))
		defer ts.Close()

		header := http.Header{}
		header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := New().Forward(context.Background(), ForwardRequest{
			Address:    addressOf(ts),
			Method:     http.MethodPost,
			ProtoMajor: 1,
			ProtoMinor: 1,
			Path:       "/call_site_one?someother=text&again=banana",
			Body:       []byte("command=%2Fping&text=hello"),
			Header:     header,
		})
		if err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}

		// リクエストの検証
		if received.Method != http.MethodPost {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodPost)
		}
		if received.RequestURI != "/call_site_one?someother=text&again=banana" {
			t.Errorf("RequestURI = %q, want %q", received.RequestURI, "/call_site_one?someother=text&again=banana")
		}
		if string(received.Body) != "command=%2Fping&text=hello" {
			t.Errorf("Body = %q, want %q", received.Body, "command=%2Fping&text=hello")
		}
		if got := received.Headers.Get(HeaderForwarded); got != "true" {
			t.Errorf("%s = %q, want %q", HeaderForwarded, got, "true")
		}
		if got := received.Headers.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q, want %q", got, "application/x-www-form-urlencoded")
		}

		// レスポンスの検証
		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusAccepted)
		}
		if string(resp.Body) != `{"text":"done"}` {
			t.Errorf("Body = %q, want %q", resp.Body, `{"text":"done"}`)
		}
		if got := resp.Header.Get("X-Backend"); got != "yes" {
			t.Errorf("X-Backend = %q, want %q", got, "yes")
		}
	})

	t.Run("パスが空の場合はルートに転送すること", func(t *testing.T) {
		t.Parallel()

		var path string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			w.WriteHeader(http.StatusNoContent)
		}))
		defer ts.Close()

		resp, err := New().Forward(context.Background(), ForwardRequest{
			Address: addressOf(ts),
			Method:  http.MethodGet,
		})
		if err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if path != "/" {
			t.Errorf("Path = %q, want %q", path, "/")
		}
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusNoContent)
		}
	})

	t.Run("エラーステータスもそのまま返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("backend failure"))
		}))
		defer ts.Close()

		resp, err := New().Forward(context.Background(), ForwardRequest{Address: addressOf(ts), Method: http.MethodPost})
		if err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
		}
		if string(resp.Body) != "backend failure" {
			t.Errorf("Body = %q, want %q", resp.Body, "backend failure")
		}
	})

	t.Run("リダイレクトを追跡しないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/elsewhere", http.StatusFound)
		}))
		defer ts.Close()

		resp, err := New().Forward(context.Background(), ForwardRequest{Address: addressOf(ts), Method: http.MethodGet, Path: "/start"})
		if err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if resp.StatusCode != http.StatusFound {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusFound)
		}
		if got := resp.Header.Get("Location"); got != "/elsewhere" {
			t.Errorf("Location = %q, want %q", got, "/elsewhere")
		}
	})

	t.Run("制限時間内に応答が無い場合にErrTimeoutを返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer ts.Close()

		start := time.Now()
		_, err := New(WithTimeout(50*time.Millisecond)).Forward(context.Background(), ForwardRequest{
			Address: addressOf(ts),
			Method:  http.MethodPost,
		})
		if !errors.Is(err, ErrTimeout) {
			t.Fatalf("err: got %v, want %v", err, ErrTimeout)
		}
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("タイムアウトまでの時間が長すぎる: %v", elapsed)
		}
	})

	t.Run("接続できないサーバーに対してErrTransportを返すこと", func(t *testing.T) {
		t.Parallel()

		_, err := New().Forward(context.Background(), ForwardRequest{
			Address: "127.0.0.1:1",
			Method:  http.MethodPost,
		})
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("err: got %v, want %v", err, ErrTransport)
		}
		if errors.Is(err, ErrTimeout) {
			t.Error("通信失敗がタイムアウトとして扱われた")
		}
	})

	t.Run("不正なアドレスの場合に接続せずErrInvalidRequestを返すこと", func(t *testing.T) {
		t.Parallel()

		_, err := New().Forward(context.Background(), ForwardRequest{
			Address: "bad host:80",
			Method:  http.MethodPost,
		})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("err: got %v, want %v", err, ErrInvalidRequest)
		}
	})

	t.Run("不正なメソッドの場合にErrInvalidRequestを返すこと", func(t *testing.T) {
		t.Parallel()

		_, err := New().Forward(context.Background(), ForwardRequest{
			Address: "127.0.0.1:1",
			Method:  "BAD METHOD",
		})
		if !errors.Is(err, ErrInvalidRequest) {
			t.Fatalf("err: got %v, want %v", err, ErrInvalidRequest)
		}
	})

	t.Run("キャンセルされたコンテキストではErrTransportを返すこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel() // 即座にキャンセル

		_, err := New().Forward(ctx, ForwardRequest{Address: addressOf(ts), Method: http.MethodGet})
		if !errors.Is(err, ErrTransport) {
			t.Fatalf("err: got %v, want %v", err, ErrTransport)
		}
	})

	t.Run("呼び出し元のヘッダーを変更しないこと", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		header := http.Header{}
		header.Set("Authorization", "Bearer token")
		if _, err := New().Forward(context.Background(), ForwardRequest{Address: addressOf(ts), Method: http.MethodGet, Header: header}); err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if header.Get(HeaderForwarded) != "" {
			t.Errorf("呼び出し元のヘッダーに %s が追加された", HeaderForwarded)
		}
	})

	t.Run("呼び出し元が指定しない限りAccept-Encodingを付与しないこと", func(t *testing.T) {
		t.Parallel()

		var acceptEncoding []string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acceptEncoding = r.Header.Values("Accept-Encoding")
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		if _, err := New().Forward(context.Background(), ForwardRequest{Address: addressOf(ts), Method: http.MethodPost}); err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if len(acceptEncoding) != 0 {
			t.Errorf("Accept-Encoding: got %q, want none", acceptEncoding)
		}
	})

	t.Run("gzipで圧縮された応答を展開せずに返すこと", func(t *testing.T) {
		t.Parallel()

		var compressed bytes.Buffer
		zw := gzip.NewWriter(&compressed)
		zw.Write([]byte("ok"))
		zw.Close()

		var acceptEncoding string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acceptEncoding = r.Header.Get("Accept-Encoding")
			w.Header().Set("Content-Encoding", "gzip")
			w.WriteHeader(http.StatusOK)
			w.Write(compressed.Bytes())
		}))
		defer ts.Close()

		header := http.Header{}
		header.Set("Accept-Encoding", "gzip")
		resp, err := New().Forward(context.Background(), ForwardRequest{Address: addressOf(ts), Method: http.MethodPost, Header: header})
		if err != nil {
			t.Fatalf("Forward()でエラーが発生: %v", err)
		}
		if acceptEncoding != "gzip" {
			t.Errorf("Accept-Encoding: got %q, want %q", acceptEncoding, "gzip")
		}
		if got := resp.Header.Get("Content-Encoding"); got != "gzip" {
			t.Errorf("Content-Encoding: got %q, want %q", got, "gzip")
		}
		if !bytes.Equal(resp.Body, compressed.Bytes()) {
			t.Errorf("body: got %q, want %q", resp.Body, compressed.Bytes())
		}
	})
}
