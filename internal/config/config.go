package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/snack/internal/registry"
)

// DefaultPath は --config を省略した場合の設定ファイルのパス。
const DefaultPath = "./resources/snack.toml"

// DefaultMaxBodyBytes はリクエストボディの既定の上限（1MiB）。
const DefaultMaxBodyBytes int64 = 1 << 20

var (
	// ErrFile は設定ファイルを読み込めない場合のエラー。
	ErrFile = errors.New("config: 設定ファイルを読み込めません")
	// ErrParse は設定ファイルを解析できない場合のエラー。
	ErrParse = errors.New("config: 設定ファイルを解析できません")
	// ErrInvalid は設定値が不正な場合のエラー。
	ErrInvalid = errors.New("config: 設定値が不正です")
)

// Config は設定ファイル全体。
type Config struct {
	// Services はサービスIDをキーとする転送先サービスの設定。
	Services map[string]ServiceConfig `toml:"services" yaml:"services"`
	// MaxBodyBytes は受け付けるリクエストボディの最大サイズ。0の場合は既定値を使う。
	MaxBodyBytes int64 `toml:"max_body_bytes" yaml:"max_body_bytes"`
}

// ServiceConfig は転送先サービス1件の設定。
type ServiceConfig struct {
	// Secret はSlackアプリのSigning Secret。
	Secret string `toml:"secret" yaml:"secret"`
	// Host は転送先のホスト名。
	Host string `toml:"host" yaml:"host"`
	// Port は転送先のポート番号。
	Port int `toml:"port" yaml:"port"`
	// ForwardTokenSecret は転送時に付与するJWTの署名鍵。
	ForwardTokenSecret string `toml:"forward_token_secret" yaml:"forward_token_secret"`
	// Resign はtrueの場合、転送時にSlackヘッダーを再署名する。
	Resign bool `toml:"resign" yaml:"resign"`
}

// Load は設定ファイルを読み込んで解析する。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFile, path, err)
	}

	cfg, err := Parse(data, formatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format は設定ファイルの形式。
type Format int

const (
	// FormatTOML はTOML形式。
	FormatTOML Format = iota
	// FormatYAML はYAML形式。
	FormatYAML
)

// formatOf はファイルの拡張子から形式を判定する。
func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatTOML
	}
}

// Parse は設定データを解析し、既定値の適用と検証を行う。
// 未知のキーは解析エラーとして扱う。
func Parse(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
	}

	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate は設定値を検証する。個々のサービス定義はregistry.Newで検証する。
func (c *Config) validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("%w: services が1件も定義されていません", ErrInvalid)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: max_body_bytes が負の値です", ErrInvalid)
	}
	return nil
}

// Descriptors はサービス設定をサービスIDの昇順でサービス定義に変換する。
func (c *Config) Descriptors() []registry.ServiceDescriptor {
	ids := make([]string, 0, len(c.Services))
	for id := range c.Services {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	descriptors := make([]registry.ServiceDescriptor, 0, len(ids))
	for _, id := range ids {
		s := c.Services[id]
		descriptors = append(descriptors, registry.ServiceDescriptor{
			ID:                 id,
			SharedSecret:       s.Secret,
			BackendHost:        s.Host,
			BackendPort:        s.Port,
			ForwardTokenSecret: s.ForwardTokenSecret,
			Resign:             s.Resign,
		})
	}
	return descriptors
}

// Registry はサービス設定からRegistryを構築する。
func (c *Config) Registry() (*registry.Registry, error) {
	r, err := registry.New(c.Descriptors())
	if err != nil {
		return nil, fmt.Errorf("Registryの構築に失敗: %w", err)
	}
	return r, nil
}
