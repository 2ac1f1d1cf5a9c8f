package metrics

import (
	"encoding/json"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// Repository はメトリクスのリポジトリ実装
type Repository struct {
	mu          sync.RWMutex
	metricsFile string
	startTime   time.Time
	requests    int64
	byClass     map[string]*int64
	cacheHits   int64
	cacheMisses int64
	fallbacks   int64
	commits     int64
	rollbacks   int64
	reconnects  int64
	events      int64
	errors      int64
}

// インターフェースの実装を検証
var _ domain.MetricsCollector = (*Repository)(nil)

// New は新しいRepositoryインスタンスを作成
func New(metricsFile string) *Repository {
	byClass := make(map[string]*int64)
	for _, class := range []domain.RequestClass{
		domain.ClassAPI,
		domain.ClassImage,
		domain.ClassStaticAsset,
		domain.ClassNavigation,
		domain.ClassUnhandled,
	} {
		byClass[class.String()] = new(int64)
	}

	return &Repository{
		metricsFile: metricsFile,
		startTime:   time.Now(),
		byClass:     byClass,
	}
}

// SaveMetrics はメトリクスをファイルに保存
func (r *Repository) SaveMetrics(snapshot *domain.MetricsSnapshot) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	tempFile := r.metricsFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}

	return os.Rename(tempFile, r.metricsFile)
}

// 以下、MetricsCollector インターフェースの実装
func (r *Repository) RecordRequest(class domain.RequestClass) {
	atomic.AddInt64(&r.requests, 1)
	if counter, ok := r.byClass[class.String()]; ok {
		atomic.AddInt64(counter, 1)
	}
}

func (r *Repository) RecordCacheHit() {
	atomic.AddInt64(&r.cacheHits, 1)
}

func (r *Repository) RecordCacheMiss() {
	atomic.AddInt64(&r.cacheMisses, 1)
}

func (r *Repository) RecordNetworkFallback() {
	atomic.AddInt64(&r.fallbacks, 1)
}

func (r *Repository) RecordOptimisticCommit() {
	atomic.AddInt64(&r.commits, 1)
}

func (r *Repository) RecordOptimisticRollback() {
	atomic.AddInt64(&r.rollbacks, 1)
}

func (r *Repository) RecordReconnect() {
	atomic.AddInt64(&r.reconnects, 1)
}

func (r *Repository) RecordEvent() {
	atomic.AddInt64(&r.events, 1)
}

func (r *Repository) RecordError() {
	atomic.AddInt64(&r.errors, 1)
}

func (r *Repository) GetSnapshot() map[string]interface{} {
	byClass := make(map[string]int64, len(r.byClass))
	for class, counter := range r.byClass {
		byClass[class] = atomic.LoadInt64(counter)
	}

	return map[string]interface{}{
		"timestamp":            time.Now(),
		"start_time":           r.startTime,
		"total_requests":       atomic.LoadInt64(&r.requests),
		"requests_by_class":    byClass,
		"cache_hits":           atomic.LoadInt64(&r.cacheHits),
		"cache_misses":         atomic.LoadInt64(&r.cacheMisses),
		"network_fallbacks":    atomic.LoadInt64(&r.fallbacks),
		"optimistic_commits":   atomic.LoadInt64(&r.commits),
		"optimistic_rollbacks": atomic.LoadInt64(&r.rollbacks),
		"reconnects":           atomic.LoadInt64(&r.reconnects),
		"events_received":      atomic.LoadInt64(&r.events),
		"errors":               atomic.LoadInt64(&r.errors),
		"uptime":               time.Since(r.startTime).String(),
	}
}
