package slack

import (
	"errors"
	"net/http"
)

const (
	// HeaderSignature はリクエスト署名を格納するヘッダー名。
	HeaderSignature = "X-Slack-Signature"
	// HeaderTimestamp は署名対象のUnix時刻（秒）を格納するヘッダー名。
	HeaderTimestamp = "X-Slack-Request-Timestamp"
)

// ErrMissingHeaders は認証に必要なヘッダーが存在しないか、値が不正な場合のエラー。
var ErrMissingHeaders = errors.New("slack: 署名ヘッダーが存在しないか不正です")

// Headers はリクエストの認証に使用するヘッダーの値。
type Headers struct {
	// Signature は "v0=<16進数64文字>" 形式の署名。
	Signature string
	// Timestamp は送信者が主張するUnix時刻（秒）の文字列表現。
	Timestamp string
}

// ExtractHeaders はHTTPヘッダーから署名とタイムスタンプを取り出す。
// どちらかが存在しない、または可視ASCII以外の文字を含む場合はErrMissingHeadersを返す。
func ExtractHeaders(header http.Header) (Headers, error) {
	signatures := header.Values(HeaderSignature)
	timestamps := header.Values(HeaderTimestamp)
	if len(signatures) == 0 || len(timestamps) == 0 {
		return Headers{}, ErrMissingHeaders
	}

	signature, timestamp := signatures[0], timestamps[0]
	if !isVisibleASCII(signature) || !isVisibleASCII(timestamp) {
		return Headers{}, ErrMissingHeaders
	}

	return Headers{
		Signature: signature,
		Timestamp: timestamp,
	}, nil
}

// Apply はヘッダーの値をHTTPヘッダーに設定する。
func (h Headers) Apply(header http.Header) {
	header.Set(HeaderSignature, h.Signature)
	header.Set(HeaderTimestamp, h.Timestamp)
}

// isVisibleASCII は文字列がタブと可視ASCII文字のみで構成されているかを返す。
func isVisibleASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\t' && (c < 0x20 || c > 0x7e) {
			return false
		}
	}
	return true
}
