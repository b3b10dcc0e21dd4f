package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/snack/pkg/middleware"
)

// 呼び出し元に返す固定のメッセージ。
const (
	// InvalidMessage は認証・ルーティング・リクエストの不備で返すメッセージ。
	InvalidMessage = "Invalid"
	// TimeoutMessage は転送先が制限時間内に応答しなかった場合のメッセージ。
	TimeoutMessage = "The service took too long to respond"
	// TransportMessage は転送先との通信に失敗した場合のメッセージ。
	TransportMessage = "Unable to process the request"
)

// contentTypeText は固定メッセージのContent-Type。
const contentTypeText = "text/plain; charset=utf-8"

// Kind はリクエスト処理の最終結果の種類。
type Kind int

const (
	// KindSuccess は転送先の応答を中継したことを表す。
	KindSuccess Kind = iota
	// KindRequestError は必須ヘッダーの欠落やボディの読み取り失敗を表す。
	KindRequestError
	// KindUnknownService はパスが未登録のサービスを指していることを表す。
	KindUnknownService
	// KindVerificationError は署名の不一致またはタイムスタンプの期限切れを表す。
	KindVerificationError
	// KindTransportError は転送先との通信失敗を表す。
	KindTransportError
	// KindTimeoutError は転送先が制限時間内に応答しなかったことを表す。
	KindTimeoutError
	// KindInvalidRequest は転送リクエストを作成できなかったことを表す。
	KindInvalidRequest
)

// String はメトリクスのラベルやログに使う名前を返す。
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRequestError:
		return "request_error"
	case KindUnknownService:
		return "unknown_service"
	case KindVerificationError:
		return "verification_error"
	case KindTransportError:
		return "transport_error"
	case KindTimeoutError:
		return "timeout"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Outcome は1件のリクエストの最終結果。
type Outcome struct {
	// Kind は結果の種類。
	Kind Kind
	// ServiceID は解決されたサービスID。解決前に終了した場合は空。
	ServiceID string
	// StatusCode は転送先のHTTPステータスコード。KindSuccessの場合のみ有効。
	StatusCode int
	// Header は転送先のレスポンスヘッダー。KindSuccessの場合のみ有効。
	Header http.Header
	// Body は転送先のレスポンスボディ。KindSuccessの場合のみ有効。
	Body []byte
}

// failure は転送先の応答を伴わない結果を返す。
func failure(kind Kind, serviceID string) Outcome {
	return Outcome{Kind: kind, ServiceID: serviceID}
}

// write は結果を呼び出し元へのレスポンスとして書き出す。
// 成功時は転送先のヘッダーとボディだけを返す。
// 失敗はSlackが本文を表示できるよう200と固定メッセージで返す。
func (o Outcome) write(c *gin.Context) {
	switch o.Kind {
	case KindSuccess:
		header := c.Writer.Header()
		// リクエストIDはログ用であり、転送先のヘッダーには加えない
		header.Del(middleware.HeaderRequestID)
		for key, values := range o.Header {
			header[key] = values
		}
		c.Status(o.StatusCode)
		c.Writer.WriteHeaderNow()
		if len(o.Body) > 0 {
			c.Writer.Write(o.Body)
		}
	case KindRequestError, KindUnknownService, KindVerificationError, KindInvalidRequest:
		c.Data(http.StatusOK, contentTypeText, []byte(InvalidMessage))
	case KindTimeoutError:
		c.Data(http.StatusOK, contentTypeText, []byte(TimeoutMessage))
	case KindTransportError:
		c.Data(http.StatusOK, contentTypeText, []byte(TransportMessage))
	default:
		c.Data(http.StatusInternalServerError, contentTypeText, []byte(http.StatusText(http.StatusInternalServerError)))
	}
}
