package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// 外部プロバイダー連携の管理.

// ListIntegrations は連携の一覧を取得.
func (c *Client) ListIntegrations(ctx context.Context) ([]domain.Integration, error) {
	var out []domain.Integration
	err := c.do(ctx, http.MethodGet, "/api/admin/integrations", nil, &out)
	return out, err
}

// UpdateIntegration は連携設定を更新.
func (c *Client) UpdateIntegration(
	ctx context.Context, integration *domain.Integration,
) (*domain.Integration, error) {
	var out domain.Integration
	path := "/api/admin/integrations/" + url.PathEscape(integration.ID)
	if err := c.do(ctx, http.MethodPut, path, integration, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TestIntegration は連携の疎通テストを実行.
func (c *Client) TestIntegration(ctx context.Context, id string) error {
	path := "/api/admin/integrations/" + url.PathEscape(id) + "/test"
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ToggleIntegration は連携の有効/無効を切り替える.
func (c *Client) ToggleIntegration(
	ctx context.Context, id string, enabled bool,
) (*domain.Integration, error) {
	var out domain.Integration
	path := "/api/admin/integrations/" + url.PathEscape(id) + "/toggle"
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteIntegration は連携を削除.
func (c *Client) DeleteIntegration(ctx context.Context, id string) error {
	path := "/api/admin/integrations/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
