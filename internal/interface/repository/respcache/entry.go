package respcache

import (
	"time"
)

// Entry はキャッシュエントリのメタデータを表す
type Entry struct {
	Key        string
	Size       int64
	StatusCode int
	Headers    map[string][]string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Compressed bool
}

// NewEntry は新しいEntryインスタンスを作成
func NewEntry(
	key string, size int64, statusCode int, headers map[string][]string,
	ttl time.Duration, compressed bool,
) *Entry {
	now := time.Now()
	return &Entry{
		Key:        key,
		Size:       size,
		StatusCode: statusCode,
		Headers:    headers,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		Compressed: compressed,
	}
}

// IsExpired はエントリが期限切れかどうかを確認
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}
