package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// ダッシュボード集計・監査ログ・検索/SEO分析の読み取り.

// GetDashboardStats はダッシュボードの集計を取得.
func (c *Client) GetDashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	var out domain.DashboardStats
	if err := c.do(ctx, http.MethodGet, "/api/admin/stats/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListAuditLogs は監査ログをページ指定で取得.
func (c *Client) ListAuditLogs(
	ctx context.Context, page, perPage int,
) ([]domain.AuditLogEntry, error) {
	var out []domain.AuditLogEntry
	path := fmt.Sprintf("/api/admin/audit-logs?page=%d&per_page=%d", page, perPage)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListSearchStats は検索クエリの統計を取得.
func (c *Client) ListSearchStats(
	ctx context.Context, since string,
) ([]domain.SearchQueryStat, error) {
	var out []domain.SearchQueryStat
	path := "/api/admin/analytics/search"
	if since != "" {
		path += "?since=" + url.QueryEscape(since)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListSEOStats はSEOのページ別統計を取得.
func (c *Client) ListSEOStats(ctx context.Context) ([]domain.SEOPageStat, error) {
	var out []domain.SEOPageStat
	err := c.do(ctx, http.MethodGet, "/api/admin/analytics/seo", nil, &out)
	return out, err
}
