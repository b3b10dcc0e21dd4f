// Package middleware はGinベースのHTTPサーバーで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDの付与に加え、snackが転送時に付与するJWTを
// 転送先サービスで検証するためのミドルウェアを含む。
package middleware
