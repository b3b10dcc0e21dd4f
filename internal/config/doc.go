// Package config は設定ファイルを読み込み、サービスの一覧を構築する。
//
// 設定ファイルはTOML形式を標準とし、拡張子が .yaml / .yml の場合はYAMLとして解析する。
// 読み込みや解析に失敗した場合は起動を中止する。
package config
