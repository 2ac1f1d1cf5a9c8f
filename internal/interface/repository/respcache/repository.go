package respcache

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// DefaultTTL はレスポンスキャッシュの既定の有効期限.
const DefaultTTL = 24 * time.Hour

// Repository はレスポンスキャッシュのリポジトリ実装.
// キャッシュはバージョンタグごとのサブディレクトリに保存される.
type Repository struct {
	mu       sync.RWMutex
	baseDir  string
	version  string
	maxSize  int64
	currSize int64
	entries  map[string]*Entry
}

// Verify interface implementation
var _ domain.ResponseCache = (*Repository)(nil)

// New は新しいRepositoryインスタンスを作成. 現在のバージョンタグと
// 一致しない既存バージョンのキャッシュディレクトリは削除する.
func New(baseDir, version string, maxSize int64) (*Repository, error) {
	if err := purgeOldVersions(baseDir, version); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Join(baseDir, version), 0755); err != nil {
		return nil, err
	}

	return &Repository{
		baseDir: baseDir,
		version: version,
		maxSize: maxSize,
		entries: make(map[string]*Entry),
	}, nil
}

// Get はキャッシュからレスポンスを取得
func (r *Repository) Get(key string) (*domain.CachedResponse, bool) {
	r.mu.RLock()
	entry, exists := r.entries[key]
	r.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if entry.IsExpired() {
		go r.Delete(key) // 非同期でクリーンアップ
		return nil, false
	}

	data, err := os.ReadFile(r.filePath(key))
	if err != nil {
		go r.Delete(key) // ファイルが読めない場合は削除
		return nil, false
	}

	if entry.Compressed {
		data, err = decompress(data)
		if err != nil {
			go r.Delete(key)
			return nil, false
		}
	}

	return &domain.CachedResponse{
		StatusCode: entry.StatusCode,
		Headers:    entry.Headers,
		Body:       data,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  entry.ExpiresAt,
	}, true
}

// Set はキャッシュにレスポンスを保存
func (r *Repository) Set(key string, resp *domain.CachedResponse) error {
	data := resp.Body
	compressed := false

	// 大きなボディは圧縮を試みる
	if len(data) > 1024 {
		if compData, err := compress(data); err == nil && len(compData) < len(data) {
			data = compData
			compressed = true
		}
	}

	ttl := DefaultTTL
	if !resp.ExpiresAt.IsZero() {
		ttl = time.Until(resp.ExpiresAt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// キャッシュサイズのチェックと調整
	newSize := r.currSize + int64(len(data))
	for newSize > r.maxSize && len(r.entries) > 0 {
		r.evictOldest()
		newSize = r.currSize + int64(len(data))
	}

	if err := os.WriteFile(r.filePath(key), data, 0644); err != nil {
		return err
	}

	if old, exists := r.entries[key]; exists {
		r.currSize -= old.Size
	}

	r.entries[key] = NewEntry(
		key, int64(len(data)), resp.StatusCode, resp.Headers, ttl, compressed,
	)
	r.currSize += int64(len(data))

	return nil
}

// Delete はキャッシュからエントリを削除
func (r *Repository) Delete(key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, exists := r.entries[key]; exists {
		r.currSize -= entry.Size
		delete(r.entries, key)
		return os.Remove(r.filePath(key))
	}
	return nil
}

// Clear は現在のバージョンの全エントリを削除
func (r *Repository) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, entry := range r.entries {
		r.currSize -= entry.Size
		delete(r.entries, key)
		os.Remove(r.filePath(key))
	}
	return nil
}

// evictOldest は最も古いエントリを削除. 呼び出し側がロックを保持する.
func (r *Repository) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range r.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CreatedAt
		}
	}

	if oldestKey != "" {
		if entry, exists := r.entries[oldestKey]; exists {
			r.currSize -= entry.Size
			delete(r.entries, oldestKey)
			os.Remove(r.filePath(oldestKey))
		}
	}
}

// filePath はキーをハッシュしてファイルパスに変換
func (r *Repository) filePath(key string) string {
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(r.baseDir, r.version, hex.EncodeToString(sum[:]))
}

// purgeOldVersions は現在のバージョン以外のキャッシュディレクトリを削除
func purgeOldVersions(baseDir, version string) error {
	dirs, err := os.ReadDir(baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, dir := range dirs {
		if !dir.IsDir() || dir.Name() == version {
			continue
		}
		if err := os.RemoveAll(filepath.Join(baseDir, dir.Name())); err != nil {
			return err
		}
	}
	return nil
}

// compress はデータをgzip圧縮する
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	if _, err := gz.Write(data); err != nil {
		return nil, err
	}

	if err := gz.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompress はgzip圧縮されたデータを展開する
func decompress(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	return io.ReadAll(gz)
}
