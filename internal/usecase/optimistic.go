package usecase

import (
	"context"
	"sync"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// OptimisticUpdater は楽観的更新のユースケースを実装する.
// 状態を即座に書き換えてからリモート呼び出しを待ち、失敗時には
// 呼び出し前に取得したスナップショットへ巻き戻す.
//
// ロールバック対象は直近の1操作分しか保持しない. 同じ状態に対する
// 並行呼び出しは互いのロールバック対象を上書きし得る. これは既知の
// 制限であって保証ではない.
type OptimisticUpdater[T any] struct {
	mu      sync.Mutex
	metrics domain.MetricsCollector
	logger  domain.Logger
	pending bool
	lastErr error
}

// UpdateParams は1回の楽観的更新のパラメータを表す.
type UpdateParams[T any] struct {
	// Op は操作名. エラー集約時のラベルに使う.
	Op string

	// CurrentState は更新前の状態. 失敗時の復元対象.
	CurrentState T

	// Merge は現在の状態に部分更新を適用した暫定状態を返す.
	Merge func(current T) T

	// Call はリモート呼び出し. 戻り値がnilでなければサーバー確定値として
	// 状態を置き換える. nilなら暫定状態を維持する.
	Call func(ctx context.Context) (*T, error)

	// SetState は表示状態の反映先.
	SetState func(T)

	// OnSuccess は確定後に呼ばれる. 省略可.
	OnSuccess func(confirmed T)

	// OnError は失敗後に、エラーと復元済みの状態を受け取る. 省略可.
	OnError func(err error, restored T)
}

// NewOptimisticUpdater は新しいOptimisticUpdaterインスタンスを作成
func NewOptimisticUpdater[T any](
	metrics domain.MetricsCollector, logger domain.Logger,
) *OptimisticUpdater[T] {
	return &OptimisticUpdater[T]{
		metrics: metrics,
		logger:  logger,
	}
}

// Execute は楽観的更新を実行する. 成功時はtrue、失敗時はfalseを返す.
//
// 確定後の状態は必ず「サーバー確定値」か「更新前の状態」のどちらかになる.
// 中間状態が残ることはない.
func (u *OptimisticUpdater[T]) Execute(
	ctx context.Context, params UpdateParams[T],
) bool {
	previous := params.CurrentState
	tentative := params.Merge(previous)

	u.mu.Lock()
	u.pending = true
	u.lastErr = nil
	u.mu.Unlock()

	// リモート呼び出しの前に暫定状態を反映する
	params.SetState(tentative)

	confirmed, err := params.Call(ctx)

	u.mu.Lock()
	u.pending = false
	u.lastErr = err
	u.mu.Unlock()

	if err != nil {
		// スナップショットへ巻き戻す
		params.SetState(previous)
		u.metrics.RecordOptimisticRollback()
		u.logger.Debug("optimistic update rolled back", map[string]interface{}{
			"op":    params.Op,
			"error": err.Error(),
		})
		if params.OnError != nil {
			params.OnError(err, previous)
		}
		return false
	}

	final := tentative
	if confirmed != nil {
		final = *confirmed
		params.SetState(final)
	}

	u.metrics.RecordOptimisticCommit()
	if params.OnSuccess != nil {
		params.OnSuccess(final)
	}
	return true
}

// Pending は実行中の操作があるかどうかを返す.
func (u *OptimisticUpdater[T]) Pending() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pending
}

// LastError は直近の操作のエラーを返す. 成功時はnil.
func (u *OptimisticUpdater[T]) LastError() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lastErr
}
