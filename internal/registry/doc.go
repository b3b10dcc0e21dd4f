// Package registry は転送先サービスの一覧を保持する。
//
// 起動時に設定ファイルから一度だけ構築され、以後は変更されない。
// すべてのリクエストハンドラが同じRegistryをロックなしで参照する。
package registry
