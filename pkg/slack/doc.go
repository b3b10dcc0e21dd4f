// Package slack はSlackのリクエスト署名プロトコルを実装する。
//
// Slackは各リクエストに X-Slack-Signature と X-Slack-Request-Timestamp を付与する。
// 署名は "v0:" + タイムスタンプ + ":" + ボディ に対するHMAC-SHA256で、
// 共有シークレットを鍵とする。本パッケージはヘッダーの抽出、署名の検証と再署名、
// スラッシュコマンドのフォームパラメータの解析を提供する。
package slack
