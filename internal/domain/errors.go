package domain

import "fmt"

// OperationError はリモート操作の失敗を表す.
// 通信エラー・非2xx応答・パース失敗はすべてこの1種類に集約される.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// ErrUpstreamUnavailable は上流サーバーへの接続失敗を表す.
type ErrUpstreamUnavailable struct {
	Host string
	Err  error
}

func (e *ErrUpstreamUnavailable) Error() string {
	return fmt.Sprintf("upstream %s unavailable: %v", e.Host, e.Err)
}

func (e *ErrUpstreamUnavailable) Unwrap() error {
	return e.Err
}

// ErrSubscriberClosed は閉じられた購読への操作を表す.
type ErrSubscriberClosed struct{}

func (e *ErrSubscriberClosed) Error() string {
	return "event subscriber is closed"
}
