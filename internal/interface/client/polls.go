package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// アンケート/投票のCRUD.

// ListPolls は投票の一覧を取得.
func (c *Client) ListPolls(ctx context.Context) ([]domain.Poll, error) {
	var out []domain.Poll
	err := c.do(ctx, http.MethodGet, "/api/admin/polls", nil, &out)
	return out, err
}

// CreatePoll は投票を作成.
func (c *Client) CreatePoll(
	ctx context.Context, poll *domain.Poll,
) (*domain.Poll, error) {
	var out domain.Poll
	if err := c.do(ctx, http.MethodPost, "/api/admin/polls", poll, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePoll は投票を更新.
func (c *Client) UpdatePoll(
	ctx context.Context, poll *domain.Poll,
) (*domain.Poll, error) {
	var out domain.Poll
	path := "/api/admin/polls/" + url.PathEscape(poll.ID)
	if err := c.do(ctx, http.MethodPut, path, poll, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePoll は投票を削除.
func (c *Client) DeletePoll(ctx context.Context, id string) error {
	path := "/api/admin/polls/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
