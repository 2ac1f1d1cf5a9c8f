package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// 出品ブーストの価格・パッケージ・クレジット管理.

// ListBoostPackages はブーストパッケージの一覧を取得.
func (c *Client) ListBoostPackages(ctx context.Context) ([]domain.BoostPackage, error) {
	var out []domain.BoostPackage
	err := c.do(ctx, http.MethodGet, "/api/admin/boosts/packages", nil, &out)
	return out, err
}

// CreateBoostPackage はブーストパッケージを作成.
func (c *Client) CreateBoostPackage(
	ctx context.Context, pkg *domain.BoostPackage,
) (*domain.BoostPackage, error) {
	var out domain.BoostPackage
	if err := c.do(ctx, http.MethodPost, "/api/admin/boosts/packages", pkg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateBoostPackage はブーストパッケージを更新.
func (c *Client) UpdateBoostPackage(
	ctx context.Context, pkg *domain.BoostPackage,
) (*domain.BoostPackage, error) {
	var out domain.BoostPackage
	path := "/api/admin/boosts/packages/" + url.PathEscape(pkg.ID)
	if err := c.do(ctx, http.MethodPut, path, pkg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteBoostPackage はブーストパッケージを削除.
func (c *Client) DeleteBoostPackage(ctx context.Context, id string) error {
	path := "/api/admin/boosts/packages/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// GetSellerCredits は出品者のクレジット残高を取得.
func (c *Client) GetSellerCredits(
	ctx context.Context, sellerID string,
) (*domain.SellerCredit, error) {
	var out domain.SellerCredit
	path := "/api/admin/boosts/credits/" + url.PathEscape(sellerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GrantSellerCredits は出品者へクレジットを付与.
func (c *Client) GrantSellerCredits(
	ctx context.Context, sellerID string, credits int,
) (*domain.SellerCredit, error) {
	var out domain.SellerCredit
	path := "/api/admin/boosts/credits/" + url.PathEscape(sellerID)
	body := map[string]int{"credits": credits}
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
