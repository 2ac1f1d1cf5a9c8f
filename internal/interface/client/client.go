package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// TokenKey はスナップショットストア上のトークンの保存キー.
const TokenKey = "avida_admin_auth_token"

// requestTimeout はリクエストのタイムアウト. タイムアウトの詳細は
// トランスポート側に委ねる.
const requestTimeout = 30 * time.Second

// Client は管理APIのJSONクライアント.
//
// 通信エラー・非2xx応答・パース失敗はすべてdomain.OperationErrorに
// 集約される. 呼び出し側にリトライは提供しない.
type Client struct {
	baseURL string
	token   func() string
	http    *http.Client
	logger  domain.Logger
}

// New は新しいClientインスタンスを作成.
// token は呼び出しのたびに評価されるベアラートークンの供給関数.
func New(baseURL string, token func() string, logger domain.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// do はリクエストを送信し、レスポンスをoutへデコードする.
func (c *Client) do(
	ctx context.Context, method, path string, body interface{}, out interface{},
) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &domain.OperationError{Op: op, Err: err}
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &domain.OperationError{Op: op, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.OperationError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// ボディは読み捨てて接続を再利用できるようにする
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &domain.OperationError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.OperationError{
			Op:  op,
			Err: fmt.Errorf("decode response: %w", err),
		}
	}

	return nil
}
