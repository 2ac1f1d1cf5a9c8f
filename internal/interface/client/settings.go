package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// Cookie同意・reCAPTCHA・セグメントルールの設定管理.

// GetCookieConsent はCookie同意設定を取得.
func (c *Client) GetCookieConsent(ctx context.Context) (*domain.CookieConsentSettings, error) {
	var out domain.CookieConsentSettings
	if err := c.do(ctx, http.MethodGet, "/api/admin/settings/cookie-consent", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCookieConsent はCookie同意設定を更新.
func (c *Client) UpdateCookieConsent(
	ctx context.Context, settings *domain.CookieConsentSettings,
) (*domain.CookieConsentSettings, error) {
	var out domain.CookieConsentSettings
	if err := c.do(ctx, http.MethodPut, "/api/admin/settings/cookie-consent", settings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetRecaptcha はreCAPTCHA設定を取得.
func (c *Client) GetRecaptcha(ctx context.Context) (*domain.RecaptchaSettings, error) {
	var out domain.RecaptchaSettings
	if err := c.do(ctx, http.MethodGet, "/api/admin/settings/recaptcha", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRecaptcha はreCAPTCHA設定を更新.
func (c *Client) UpdateRecaptcha(
	ctx context.Context, settings *domain.RecaptchaSettings,
) (*domain.RecaptchaSettings, error) {
	var out domain.RecaptchaSettings
	if err := c.do(ctx, http.MethodPut, "/api/admin/settings/recaptcha", settings, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSegmentRules はセグメントルールの一覧を取得.
func (c *Client) ListSegmentRules(ctx context.Context) ([]domain.SegmentRule, error) {
	var out []domain.SegmentRule
	err := c.do(ctx, http.MethodGet, "/api/admin/segments", nil, &out)
	return out, err
}

// CreateSegmentRule はセグメントルールを作成.
func (c *Client) CreateSegmentRule(
	ctx context.Context, rule *domain.SegmentRule,
) (*domain.SegmentRule, error) {
	var out domain.SegmentRule
	if err := c.do(ctx, http.MethodPost, "/api/admin/segments", rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSegmentRule はセグメントルールを更新.
func (c *Client) UpdateSegmentRule(
	ctx context.Context, rule *domain.SegmentRule,
) (*domain.SegmentRule, error) {
	var out domain.SegmentRule
	path := "/api/admin/segments/" + url.PathEscape(rule.ID)
	if err := c.do(ctx, http.MethodPut, path, rule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSegmentRule はセグメントルールを削除.
func (c *Client) DeleteSegmentRule(ctx context.Context, id string) error {
	path := "/api/admin/segments/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
