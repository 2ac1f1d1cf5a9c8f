package domain

import (
	"encoding/json"
	"time"
)

const (
	// SnapshotTTL はスナップショットの絶対有効期限.
	// これを超えたエントリは存在しないものとして扱い、次回読み取り時に削除する.
	SnapshotTTL = 24 * time.Hour

	// SnapshotStaleAfter は鮮度のヒント. 強制削除には使わない.
	SnapshotStaleAfter = 5 * time.Minute
)

// Snapshot は永続化されたキャッシュスナップショットを表す.
type Snapshot struct {
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// IsExpired はスナップショットが有効期限切れかどうかを確認.
func (s *Snapshot) IsExpired(now time.Time) bool {
	return now.Sub(s.Timestamp) > SnapshotTTL
}

// IsStale はスナップショットが鮮度ヒントを超えているかどうかを確認.
func (s *Snapshot) IsStale(now time.Time) bool {
	return now.Sub(s.Timestamp) > SnapshotStaleAfter
}

// SnapshotStore はスナップショット永続化のインターフェース.
// 書き込みはエントリ全体の上書きのみ. タブ間・プロセス間の競合は
// last-write-wins で解決される.
type SnapshotStore interface {
	Get(key string) (*Snapshot, bool)
	Set(key string, data json.RawMessage) error
	Delete(key string) error
	Clear() error
}
