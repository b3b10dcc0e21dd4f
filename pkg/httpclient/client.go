package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout は転送1回あたりの既定の制限時間。
const DefaultTimeout = 2500 * time.Millisecond

// HeaderForwarded は転送されたリクエストであることを示すヘッダー名。
const HeaderForwarded = "X-Snack-Forwarded"

var (
	// ErrTimeout は制限時間内に転送先が応答しなかった場合のエラー。
	ErrTimeout = errors.New("httpclient: 転送先の応答がタイムアウトしました")
	// ErrTransport は転送先との通信に失敗した場合のエラー。
	ErrTransport = errors.New("httpclient: 転送先との通信に失敗しました")
	// ErrInvalidRequest は転送リクエストを作成できない場合のエラー。
	ErrInvalidRequest = errors.New("httpclient: 転送リクエストを作成できません")
)

// Client はバックエンドサービスへの転送に使用するHTTPクライアント。
// 複数のゴルーチンから同時に使用できる。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// timeout は転送1回あたりの制限時間。
	timeout time.Duration
}

// Option はClientの設定を変更する関数。
type Option func(*Client)

// WithTimeout は転送1回あたりの制限時間を設定する。
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New は新しい転送用HTTPクライアントを生成する。
func New(opts ...Option) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32
	// 応答を加工せずに中継するため、Accept-Encodingの自動付与と自動展開を行わない
	transport.DisableCompression = true

	c := &Client{
		httpClient: &http.Client{
			Transport: transport,
			// リダイレクトは追跡せず、そのまま呼び出し元に返す
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForwardRequest は転送するリクエストの内容。
type ForwardRequest struct {
	// Address は "host:port" 形式の転送先。
	Address string
	// Method は元のリクエストのHTTPメソッド。
	Method string
	// ProtoMajor は元のリクエストのHTTPメジャーバージョン。
	ProtoMajor int
	// ProtoMinor は元のリクエストのHTTPマイナーバージョン。
	ProtoMinor int
	// Path はクエリ文字列を含む転送先のパス。空の場合はルートになる。
	Path string
	// Body は元のリクエストボディ。
	Body []byte
	// Header は転送時に付与するヘッダー。
	Header http.Header
}

// Response は転送先からの応答。
type Response struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Header はレスポンスヘッダー。
	Header http.Header
	// Body はレスポンスボディ。
	Body []byte
}

// Forward はリクエストを http://{Address}{Path} に転送し、応答を返す。
//
// 制限時間はこの呼び出しから計測し、レスポンスボディの読み取りまでを含む。
// 時間切れの場合は進行中の通信を中断してErrTimeoutを、それ以外の通信失敗では
// ErrTransportを、リクエストを作成できない場合は転送先に接続せずErrInvalidRequestを返す。
func (c *Client) Forward(ctx context.Context, fr ForwardRequest) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	url := "http://" + fr.Address + fr.Path
	req, err := http.NewRequestWithContext(ctx, fr.Method, url, bytes.NewReader(fr.Body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if fr.ProtoMajor > 0 {
		req.ProtoMajor, req.ProtoMinor = fr.ProtoMajor, fr.ProtoMinor
		req.Proto = fmt.Sprintf("HTTP/%d.%d", fr.ProtoMajor, fr.ProtoMinor)
	}
	for key, values := range fr.Header {
		req.Header[key] = append([]string(nil), values...)
	}
	req.Header.Set(HeaderForwarded, "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// classify は通信エラーを制限時間切れとそれ以外に分類する。
func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
