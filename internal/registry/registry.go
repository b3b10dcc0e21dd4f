package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strconv"
)

// ErrInvalidDescriptor はサービス定義が不正な場合のエラー。
var ErrInvalidDescriptor = errors.New("registry: サービス定義が不正です")

// ServiceDescriptor は転送先サービス1件の定義。
type ServiceDescriptor struct {
	// ID はパスの先頭セグメントと一致させるサービス識別子。
	ID string
	// SharedSecret はSlackの署名検証に使用する共有シークレット。
	SharedSecret string
	// BackendHost は転送先のホスト名。
	BackendHost string
	// BackendPort は転送先のポート番号。
	BackendPort int
	// ForwardTokenSecret は転送時に付与するJWTの署名鍵。空の場合は付与しない。
	ForwardTokenSecret string
	// Resign はtrueの場合、転送時に現在時刻で再署名したSlackヘッダーを付与する。
	Resign bool
}

// Address は "host:port" 形式の転送先アドレスを返す。
func (d ServiceDescriptor) Address() string {
	return net.JoinHostPort(d.BackendHost, strconv.Itoa(d.BackendPort))
}

// String はシークレットを含まない表現を返す。
func (d ServiceDescriptor) String() string {
	return fmt.Sprintf("%s -> %s", d.ID, d.Address())
}

// validate はサービス定義の必須項目を検証する。
func (d ServiceDescriptor) validate() error {
	switch {
	case d.ID == "":
		return fmt.Errorf("%w: サービスIDが空です", ErrInvalidDescriptor)
	case d.SharedSecret == "":
		return fmt.Errorf("%w: サービス %q のシークレットが空です", ErrInvalidDescriptor, d.ID)
	case d.BackendHost == "":
		return fmt.Errorf("%w: サービス %q のホストが空です", ErrInvalidDescriptor, d.ID)
	case d.BackendPort < 1 || d.BackendPort > 65535:
		return fmt.Errorf("%w: サービス %q のポート %d が範囲外です", ErrInvalidDescriptor, d.ID, d.BackendPort)
	}
	return nil
}

// Registry はサービスIDをキーとするサービス定義の読み取り専用テーブル。
type Registry struct {
	// services はサービスIDからサービス定義への対応。
	services map[string]ServiceDescriptor
}

// New はサービス定義の一覧からRegistryを構築する。
// IDの重複や必須項目の欠落があればErrInvalidDescriptorをラップしたエラーを返す。
func New(descriptors []ServiceDescriptor) (*Registry, error) {
	services := make(map[string]ServiceDescriptor, len(descriptors))
	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, ok := services[d.ID]; ok {
			return nil, fmt.Errorf("%w: サービスID %q が重複しています", ErrInvalidDescriptor, d.ID)
		}
		services[d.ID] = d
	}
	return &Registry{services: services}, nil
}

// Lookup はサービスIDに完全一致するサービス定義を返す。大文字と小文字は区別する。
func (r *Registry) Lookup(id string) (ServiceDescriptor, bool) {
	d, ok := r.services[id]
	return d, ok
}

// IDs は登録されているサービスIDを昇順で返す。
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.services))
	for id := range r.services {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len は登録されているサービスの数を返す。
func (r *Registry) Len() int {
	return len(r.services)
}
