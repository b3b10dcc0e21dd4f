package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

const (
	// FreshnessWindow はタイムスタンプと現在時刻の差として許容する最大秒数。
	FreshnessWindow uint64 = 5
	// version は署名のバージョンタグ。Slackの仕様では常に "v0"。
	version = "v0"
	// prefixLen は署名の先頭にある "v0=" の長さ。
	prefixLen = len(version) + 1
)

// Verify はリクエストの署名とタイムスタンプを検証する。
//
// 署名が3文字未満なら即座に拒否する。タイムスタンプが解析できない場合は0として扱い、
// nowとの差がFreshnessWindowを超えれば拒否する。最後に署名を比較する。
// どのような入力でもパニックせず、失敗はすべてfalseで表す。
func Verify(h Headers, secret string, body []byte, now time.Time) bool {
	if len(h.Signature) < prefixLen {
		return false
	}

	claimed, err := strconv.ParseUint(h.Timestamp, 10, 64)
	if err != nil {
		claimed = 0
	}

	var current uint64
	if unix := now.Unix(); unix > 0 {
		current = uint64(unix)
	}

	var difference uint64
	if current > claimed {
		difference = current - claimed
	} else {
		difference = claimed - current
	}
	if difference > FreshnessWindow {
		return false
	}

	return ValidSignature(h, secret, body)
}

// ValidSignature はタイムスタンプの鮮度を考慮せずに署名だけを比較する。
// 署名の先頭3文字はバージョン接頭辞として内容を確認せずに取り除く。
func ValidSignature(h Headers, secret string, body []byte) bool {
	if len(h.Signature) < prefixLen {
		return false
	}
	expected := computeSignature(secret, h.Timestamp, body)
	return hmac.Equal([]byte(expected), []byte(h.Signature[prefixLen:]))
}

// Sign はnowの時刻でボディに署名し、転送先に付与するヘッダーを返す。
func Sign(secret string, body []byte, now time.Time) Headers {
	timestamp := strconv.FormatInt(now.Unix(), 10)
	return Headers{
		Signature: version + "=" + computeSignature(secret, timestamp, body),
		Timestamp: timestamp,
	}
}

// computeSignature は "v0:" + timestamp + ":" + body のHMAC-SHA256を小文字の16進数で返す。
func computeSignature(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(version + ":"))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(":"))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
