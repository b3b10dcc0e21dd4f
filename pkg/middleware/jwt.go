package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// forwardTokenIssuer は転送トークンの発行者。
const forwardTokenIssuer = "snack"

// forwardTokenTTL は転送トークンの有効期間。
const forwardTokenTTL = time.Minute

// contextKeyServiceID はGinコンテキストにサービスIDを格納するキー。
const contextKeyServiceID = "service_id"

// ForwardClaims は転送トークンのクレーム。
// 転送先サービスは、リクエストがsnackを経由したことをこのトークンで確認できる。
type ForwardClaims struct {
	jwt.RegisteredClaims
	// ServiceID は転送先として解決されたサービスID。
	ServiceID string `json:"service_id"`
}

// GenerateForwardToken はサービスIDを含む転送トークンを生成する。
func GenerateForwardToken(secret, serviceID string) (string, error) {
	now := time.Now()
	claims := ForwardClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(forwardTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    forwardTokenIssuer,
		},
		ServiceID: serviceID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("転送トークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// ForwardedAuth は転送トークンを検証するGinミドルウェアを返す。
// 転送先サービスで使用する。検証に成功した場合、コンテキストに "service_id" を設定する。
func ForwardedAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &ForwardClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(forwardTokenIssuer))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set(contextKeyServiceID, claims.ServiceID)
		c.Next()
	}
}

// GetServiceID はGinコンテキストからサービスIDを取得する。
// ForwardedAuthミドルウェアが事前に適用されている必要がある。
func GetServiceID(c *gin.Context) string {
	serviceID, _ := c.Get(contextKeyServiceID)
	if id, ok := serviceID.(string); ok {
		return id
	}
	return ""
}
