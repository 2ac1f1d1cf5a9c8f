package localstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// KeyPrefix はキャッシュキーの名前空間プレフィックス.
const KeyPrefix = "avida_admin_"

// Store はスナップショットストアのファイルベース実装.
// 1キー1ファイルでJSONを保存する. ロックはプロセス内のみで、
// プロセス間の同時書き込みは last-write-wins になる.
type Store struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// Verify interface implementation
var _ domain.SnapshotStore = (*Store)(nil)

// New は新しいStoreインスタンスを作成
func New(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &Store{
		baseDir: baseDir,
		now:     time.Now,
	}, nil
}

// Get はスナップショットを取得. 期限切れのエントリは存在しないものとして
// 扱い、ファイルを削除する.
func (s *Store) Get(key string) (*domain.Snapshot, bool) {
	s.mu.RLock()
	data, err := os.ReadFile(s.filePath(key))
	s.mu.RUnlock()

	if err != nil {
		return nil, false
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// 壊れたエントリは削除
		s.Delete(key)
		return nil, false
	}

	if snap.IsExpired(s.now()) {
		s.Delete(key)
		return nil, false
	}

	return &snap, true
}

// Set はスナップショットを保存. 一時ファイルへ書いてからリネームする.
func (s *Store) Set(key string, data json.RawMessage) error {
	snap := domain.Snapshot{
		Data:      data,
		Timestamp: s.now(),
	}

	encoded, err := json.Marshal(&snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.filePath(key)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, encoded, 0644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}

// Delete はスナップショットを削除
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.filePath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear は全スナップショットを削除
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := filepath.Glob(filepath.Join(s.baseDir, "*.json"))
	if err != nil {
		return err
	}

	for _, path := range entries {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// filePath はキーをファイルパスに変換. パス区切りなどは置換する.
func (s *Store) filePath(key string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)

	return filepath.Join(s.baseDir, sanitized+".json")
}
