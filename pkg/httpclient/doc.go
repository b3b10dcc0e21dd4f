// Package httpclient はバックエンドサービスへリクエストを転送するHTTPクライアントを提供する。
//
// 1つのClientをすべてのリクエストで共有し、接続はプールして再利用する。
// 転送は固定の制限時間内に行い、時間切れ・通信失敗・リクエスト作成失敗を
// それぞれ異なるエラーとして呼び出し元に返す。再試行は行わない。
package httpclient
