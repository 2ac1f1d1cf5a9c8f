package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// FetchFunc はリモートからの取得処理を表す.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// CacheFirst はキャッシュ優先のデータ取得ユースケースを実装する.
//
// 生成時に永続化済みスナップショットを同期的に読み込み、最初の値が
// ネットワークを待たずに得られることを保証する. その直後にバック
// グラウンド更新を開始する. 更新の失敗時は手元の値を保持したまま
// エラーだけを公開する.
type CacheFirst[T any] struct {
	mu        sync.RWMutex
	store     domain.SnapshotStore
	key       string
	fetch     FetchFunc[T]
	metrics   domain.MetricsCollector
	logger    domain.Logger
	group     singleflight.Group
	value     T
	err       error
	loading   bool
	storedAt  time.Time
	done      chan struct{}
	closeOnce sync.Once
}

// NewCacheFirst は新しいCacheFirstインスタンスを作成する.
// 有効なスナップショットがあればそれを、なければfallbackを初期値とする.
// 期限切れのスナップショットはミスとして扱われる(ストア側で削除される).
func NewCacheFirst[T any](
	ctx context.Context,
	store domain.SnapshotStore,
	key string,
	fallback T,
	fetch FetchFunc[T],
	metrics domain.MetricsCollector,
	logger domain.Logger,
) *CacheFirst[T] {
	c := &CacheFirst[T]{
		store:   store,
		key:     key,
		fetch:   fetch,
		metrics: metrics,
		logger:  logger,
		value:   fallback,
		done:    make(chan struct{}),
	}

	if snap, ok := store.Get(key); ok {
		var value T
		if err := json.Unmarshal(snap.Data, &value); err == nil {
			c.value = value
			c.storedAt = snap.Timestamp
			metrics.RecordCacheHit()
		} else {
			logger.Debug("discarding unreadable snapshot", map[string]interface{}{
				"key": key,
			})
			metrics.RecordCacheMiss()
		}
	} else {
		metrics.RecordCacheMiss()
	}

	c.loading = true
	go func() {
		c.Refresh(ctx)
	}()

	return c
}

// Refresh はリモートから値を取得し直す. 同一キーへの並行更新は
// 1回の取得にまとめられる.
func (c *CacheFirst[T]) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		value, err := c.fetch(ctx)

		// 消費側が閉じた後の結果は破棄する
		if c.closed() {
			return nil, nil
		}

		c.mu.Lock()
		c.loading = false
		if err != nil {
			// 手元の値は保持したままエラーだけを公開する
			c.err = err
			c.mu.Unlock()
			c.metrics.RecordError()
			return nil, err
		}

		c.value = value
		c.err = nil
		c.storedAt = time.Now()
		c.mu.Unlock()

		c.persist(value)
		return nil, nil
	})
	return err
}

// Value は現在の値を返す.
func (c *CacheFirst[T]) Value() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Err は直近の更新エラーを返す. 成功時はnil.
func (c *CacheFirst[T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Loading は初回の更新が完了していないかどうかを返す.
func (c *CacheFirst[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Stale は手元の値が鮮度ヒントを超えているかどうかを返す.
func (c *CacheFirst[T]) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.storedAt.IsZero() {
		return true
	}
	return time.Since(c.storedAt) > domain.SnapshotStaleAfter
}

// Set は値を直接設定し、スナップショットにも書き込む.
// 楽観的更新の反映先として使える.
func (c *CacheFirst[T]) Set(value T) {
	c.mu.Lock()
	c.value = value
	c.err = nil
	c.storedAt = time.Now()
	c.mu.Unlock()

	c.persist(value)
}

// Close は以後の更新結果を破棄させる. 消費側の破棄時に呼ぶ.
func (c *CacheFirst[T]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// persist は値をスナップショットとして永続化する.
func (c *CacheFirst[T]) persist(value T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("failed to encode snapshot", err, map[string]interface{}{
			"key": c.key,
		})
		return
	}

	if err := c.store.Set(c.key, data); err != nil {
		c.logger.Error("failed to persist snapshot", err, map[string]interface{}{
			"key": c.key,
		})
	}
}

// closed はCloseが呼ばれたかどうかを返す.
func (c *CacheFirst[T]) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
