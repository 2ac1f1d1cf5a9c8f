package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// tempIDPrefix は追加操作の仮IDのプレフィックス.
const tempIDPrefix = "tmp_"

// OptimisticList はキー付きコレクションに対する楽観的な
// 追加・更新・削除のユースケースを実装する.
//
// 各操作はリモート呼び出しの前にリストを書き換え、失敗時には
// 操作前のリスト全体を復元する. 他所で並行して変更されたリストとの
// マージ解決は行わない.
type OptimisticList[T any] struct {
	keyOf   func(T) string
	metrics domain.MetricsCollector
	logger  domain.Logger
}

// NewOptimisticList は新しいOptimisticListインスタンスを作成.
// keyOf は要素から識別子を取り出す関数.
func NewOptimisticList[T any](
	keyOf func(T) string,
	metrics domain.MetricsCollector,
	logger domain.Logger,
) *OptimisticList[T] {
	return &OptimisticList[T]{
		keyOf:   keyOf,
		metrics: metrics,
		logger:  logger,
	}
}

// NewTempID は追加操作用の仮IDを生成.
func NewTempID() string {
	return tempIDPrefix + uuid.NewString()
}

// AddParams は追加操作のパラメータを表す.
type AddParams[T any] struct {
	// CurrentList は操作前のリスト. 失敗時はこの値そのものを復元する.
	CurrentList []T

	// TempItem は仮IDを持つ暫定要素.
	TempItem T

	// Call はリモート呼び出し. 成功時はサーバー確定の要素を返す.
	Call func(ctx context.Context) (*T, error)

	// SetList はリストの反映先.
	SetList func([]T)

	// OnError は失敗時に呼ばれる. 省略可.
	OnError func(err error)
}

// Add は要素を楽観的に追加する.
// 成功時は仮IDに一致する要素をサーバー確定の要素へ1回だけ置き換える.
func (l *OptimisticList[T]) Add(ctx context.Context, params AddParams[T]) bool {
	previous := params.CurrentList
	tempKey := l.keyOf(params.TempItem)

	tentative := make([]T, 0, len(previous)+1)
	tentative = append(tentative, previous...)
	tentative = append(tentative, params.TempItem)
	params.SetList(tentative)

	confirmed, err := params.Call(ctx)
	if err != nil {
		params.SetList(previous)
		l.rollback("list add", err, params.OnError)
		return false
	}

	if confirmed != nil {
		reconciled := make([]T, len(tentative))
		replaced := false
		for i, item := range tentative {
			if !replaced && l.keyOf(item) == tempKey {
				reconciled[i] = *confirmed
				replaced = true
				continue
			}
			reconciled[i] = item
		}
		params.SetList(reconciled)
	}

	l.metrics.RecordOptimisticCommit()
	return true
}

// UpdateItemParams は更新操作のパラメータを表す.
type UpdateItemParams[T any] struct {
	CurrentList []T
	ID          string

	// Apply は対象要素に部分更新を適用した要素を返す.
	Apply func(item T) T

	Call    func(ctx context.Context) (*T, error)
	SetList func([]T)
	OnError func(err error)
}

// Update はIDに一致する要素を楽観的に更新する.
func (l *OptimisticList[T]) Update(
	ctx context.Context, params UpdateItemParams[T],
) bool {
	previous := params.CurrentList

	tentative := make([]T, len(previous))
	found := false
	for i, item := range previous {
		if l.keyOf(item) == params.ID {
			tentative[i] = params.Apply(item)
			found = true
			continue
		}
		tentative[i] = item
	}

	if !found {
		err := &domain.OperationError{
			Op:  "list update",
			Err: fmt.Errorf("item %s not found", params.ID),
		}
		if params.OnError != nil {
			params.OnError(err)
		}
		return false
	}

	params.SetList(tentative)

	confirmed, err := params.Call(ctx)
	if err != nil {
		params.SetList(previous)
		l.rollback("list update", err, params.OnError)
		return false
	}

	if confirmed != nil {
		reconciled := make([]T, len(tentative))
		for i, item := range tentative {
			if l.keyOf(item) == params.ID {
				reconciled[i] = *confirmed
				continue
			}
			reconciled[i] = item
		}
		params.SetList(reconciled)
	}

	l.metrics.RecordOptimisticCommit()
	return true
}

// DeleteItemParams は削除操作のパラメータを表す.
type DeleteItemParams[T any] struct {
	CurrentList []T
	ID          string
	Call        func(ctx context.Context) error
	SetList     func([]T)
	OnError     func(err error)
}

// Delete はIDに一致する要素を楽観的に削除する.
func (l *OptimisticList[T]) Delete(
	ctx context.Context, params DeleteItemParams[T],
) bool {
	previous := params.CurrentList

	tentative := make([]T, 0, len(previous))
	for _, item := range previous {
		if l.keyOf(item) == params.ID {
			continue
		}
		tentative = append(tentative, item)
	}
	params.SetList(tentative)

	if err := params.Call(ctx); err != nil {
		params.SetList(previous)
		l.rollback("list delete", err, params.OnError)
		return false
	}

	l.metrics.RecordOptimisticCommit()
	return true
}

// rollback はロールバック時の共通処理.
func (l *OptimisticList[T]) rollback(op string, err error, onError func(error)) {
	l.metrics.RecordOptimisticRollback()
	l.logger.Debug("optimistic list operation rolled back", map[string]interface{}{
		"op":    op,
		"error": err.Error(),
	})
	if onError != nil {
		onError(err)
	}
}
