// Package resource はリクエストパスから転送先サービスを解決する。
//
// Slackのスラッシュコマンドは "/{serviceId}/{rest...}" の形式で受け付ける。
// 先頭のセグメントをサービスIDとして切り出し、残りをそのままバックエンドへ
// 転送するパスとして返す。
package resource
