package domain

import "time"

// CacheVersion はレスポンスキャッシュのバージョンタグ.
// ビルドごとに更新し、起動時に古いバージョンのキャッシュを削除する.
const CacheVersion = "avida-admin-v3"

// RequestClass はリクエストの分類を表す.
type RequestClass int

const (
	ClassUnhandled RequestClass = iota
	ClassAPI
	ClassImage
	ClassStaticAsset
	ClassNavigation
)

// String は分類名を返す.
func (c RequestClass) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassImage:
		return "image"
	case ClassStaticAsset:
		return "static"
	case ClassNavigation:
		return "navigation"
	default:
		return "unhandled"
	}
}

// CachedResponse はキャッシュされたHTTPレスポンスを表す.
type CachedResponse struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// ResponseCache はレスポンスキャッシュ管理のインターフェース.
type ResponseCache interface {
	Get(key string) (*CachedResponse, bool)
	Set(key string, resp *CachedResponse) error
	Delete(key string) error
	Clear() error
}
