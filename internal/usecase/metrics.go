package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// MetricsUseCase はメトリクス関連のユースケースを実装
type MetricsUseCase struct {
	metrics      domain.MetricsCollector
	logger       domain.Logger
	saveInterval time.Duration
	done         chan struct{}
}

// MetricsConfig はメトリクスの設定を表す
type MetricsConfig struct {
	SaveInterval time.Duration
}

// NewMetricsUseCase は新しいMetricsUseCaseインスタンスを作成
func NewMetricsUseCase(
	metrics domain.MetricsCollector, logger domain.Logger, config MetricsConfig,
) *MetricsUseCase {
	if config.SaveInterval == 0 {
		config.SaveInterval = 1 * time.Minute
	}

	uc := &MetricsUseCase{
		metrics:      metrics,
		logger:       logger,
		saveInterval: config.SaveInterval,
		done:         make(chan struct{}),
	}

	go uc.startPeriodicSave()
	return uc
}

// Stop はメトリクス収集を停止
func (uc *MetricsUseCase) Stop() error {
	uc.logger.Info("Stopping metrics collection", nil)
	close(uc.done)
	return nil
}

// startPeriodicSave は定期的なメトリクス保存を開始
func (uc *MetricsUseCase) startPeriodicSave() {
	ticker := time.NewTicker(uc.saveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := uc.saveMetrics(); err != nil {
				uc.logger.Error("Failed to save metrics", err, nil)
			}
		case <-uc.done:
			uc.logger.Info("Stopping periodic metrics save", nil)
			return
		}
	}
}

// saveMetrics は現在のメトリクスを保存
func (uc *MetricsUseCase) saveMetrics() error {
	snapshot, err := uc.GetMetricsSnapshot()
	if err != nil {
		return fmt.Errorf("failed to get metrics snapshot: %v", err)
	}

	// メトリクスの保存処理をリポジトリに委譲
	if saver, ok := uc.metrics.(interface {
		SaveMetrics(*domain.MetricsSnapshot) error
	}); ok {
		return saver.SaveMetrics(snapshot)
	}

	return nil
}

// GetMetricsSnapshot は現在のメトリクスのスナップショットを取得
func (uc *MetricsUseCase) GetMetricsSnapshot() (
	*domain.MetricsSnapshot, error,
) {
	data := uc.metrics.GetSnapshot()

	snapshot := &domain.MetricsSnapshot{
		Timestamp:           time.Now(),
		StartTime:           data["start_time"].(time.Time),
		TotalRequests:       data["total_requests"].(int64),
		RequestsByClass:     data["requests_by_class"].(map[string]int64),
		CacheHits:           data["cache_hits"].(int64),
		CacheMisses:         data["cache_misses"].(int64),
		NetworkFallbacks:    data["network_fallbacks"].(int64),
		OptimisticCommits:   data["optimistic_commits"].(int64),
		OptimisticRollbacks: data["optimistic_rollbacks"].(int64),
		Reconnects:          data["reconnects"].(int64),
		EventsReceived:      data["events_received"].(int64),
		Errors:              data["errors"].(int64),
		Uptime:              data["uptime"].(string),
	}

	return snapshot, nil
}

// GetPrometheusMetrics はPrometheus形式のメトリクスを取得
func (uc *MetricsUseCase) GetPrometheusMetrics(ctx context.Context) (
	string, error,
) {
	snapshot, err := uc.GetMetricsSnapshot()
	if err != nil {
		return "", err
	}

	return snapshot.ToPrometheusFormat(), nil
}
