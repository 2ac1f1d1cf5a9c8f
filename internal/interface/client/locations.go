package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// 地域階層(国/地域/地区/都市)のCRUD.

// ListCountries は国の一覧を取得.
func (c *Client) ListCountries(ctx context.Context) ([]domain.Location, error) {
	var out []domain.Location
	err := c.do(ctx, http.MethodGet, "/api/admin/locations/countries", nil, &out)
	return out, err
}

// ListRegions は指定した国の地域一覧を取得.
func (c *Client) ListRegions(
	ctx context.Context, countryID string,
) ([]domain.Location, error) {
	var out []domain.Location
	path := "/api/admin/locations/regions?country_id=" + url.QueryEscape(countryID)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListDistricts は指定した地域の地区一覧を取得.
func (c *Client) ListDistricts(
	ctx context.Context, regionID string,
) ([]domain.Location, error) {
	var out []domain.Location
	path := "/api/admin/locations/districts?region_id=" + url.QueryEscape(regionID)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// ListCities は指定した地区の都市一覧を取得.
func (c *Client) ListCities(
	ctx context.Context, districtID string,
) ([]domain.Location, error) {
	var out []domain.Location
	path := "/api/admin/locations/cities?district_id=" + url.QueryEscape(districtID)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// CreateLocation は地域ノードを作成.
func (c *Client) CreateLocation(
	ctx context.Context, loc *domain.Location,
) (*domain.Location, error) {
	var out domain.Location
	if err := c.do(ctx, http.MethodPost, "/api/admin/locations", loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLocation は地域ノードを更新.
func (c *Client) UpdateLocation(
	ctx context.Context, loc *domain.Location,
) (*domain.Location, error) {
	var out domain.Location
	path := "/api/admin/locations/" + url.PathEscape(loc.ID)
	if err := c.do(ctx, http.MethodPut, path, loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteLocation は地域ノードを削除.
func (c *Client) DeleteLocation(ctx context.Context, id string) error {
	path := "/api/admin/locations/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
