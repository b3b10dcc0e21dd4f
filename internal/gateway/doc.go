// Package gateway はsnackの受付サーバーの内部実装を提供する。
//
// Slackからのコールバックを受け付ける唯一の入口であり、セキュリティの境界線として
// 機能する。リクエストパスから転送先サービスを解決し、そのサービスの共有シークレットで
// 署名を検証したうえで、制限時間付きでバックエンドへ転送する。
// 失敗はすべてリクエスト単位の応答に変換し、プロセスには波及させない。
package gateway
