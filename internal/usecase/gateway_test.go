package usecase_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/logger"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/respcache"
	"github.com/kelvinofficial/avida-sub013/internal/usecase"
)

func newResponseCache(t *testing.T) *respcache.Repository {
	t.Helper()

	cache, err := respcache.New(t.TempDir(), domain.CacheVersion, 10*1024*1024)
	require.NoError(t, err)
	return cache
}

func TestClassify(t *testing.T) {
	uc := usecase.NewGatewayUseCase(
		newResponseCache(t), newTestMetrics(t), logger.NewNop(),
		"http://upstream", "/api/",
	)

	testCases := []struct {
		name   string
		path   string
		accept string
		want   domain.RequestClass
	}{
		{"api call", "/api/admin/polls", "application/json", domain.ClassAPI},
		{"api with html accept", "/api/admin/polls", "text/html", domain.ClassAPI},
		{"png image", "/uploads/listing-1.png", "image/*", domain.ClassImage},
		{"webp image", "/uploads/listing-1.webp", "*/*", domain.ClassImage},
		{"script", "/static/js/main.js", "*/*", domain.ClassStaticAsset},
		{"stylesheet", "/static/css/main.css", "text/css", domain.ClassStaticAsset},
		{"font", "/static/fonts/inter.woff2", "*/*", domain.ClassStaticAsset},
		{"navigation", "/dashboard/users", "text/html,application/xhtml+xml", domain.ClassNavigation},
		{"root navigation", "/", "text/html", domain.ClassNavigation},
		{"extension with html accept", "/report.pdf", "text/html", domain.ClassUnhandled},
		{"no html accept", "/dashboard/users", "application/json", domain.ClassUnhandled},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			req.Header.Set("Accept", tc.accept)
			assert.Equal(t, tc.want, uc.Classify(req))
		})
	}
}

func TestCacheKeyIncludesQuery(t *testing.T) {
	uc := usecase.NewGatewayUseCase(
		newResponseCache(t), newTestMetrics(t), logger.NewNop(),
		"http://upstream", "/api/",
	)

	plain := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs", nil)
	paged := httptest.NewRequest(http.MethodGet, "/api/admin/audit-logs?page=2", nil)

	assert.Equal(t, "/api/admin/audit-logs", uc.CacheKey(plain))
	assert.Equal(t, "/api/admin/audit-logs?page=2", uc.CacheKey(paged))
}

func TestPrecacheStoresShellAssets(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.js" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("asset:" + r.URL.Path))
	}))
	defer upstream.Close()

	cache := newResponseCache(t)
	uc := usecase.NewGatewayUseCase(
		cache, newTestMetrics(t), logger.NewNop(), upstream.URL, "/api/",
	)

	cached := uc.Precache(context.Background(), []string{"/", "/index.html", "/missing.js"})
	assert.Equal(t, 2, cached)

	resp, ok := cache.Get("/index.html")
	require.True(t, ok)
	assert.Equal(t, []byte("asset:/index.html"), resp.Body)

	_, ok = cache.Get("/missing.js")
	assert.False(t, ok)
}

func TestNetworkFirstFallsBackToCache(t *testing.T) {
	hits := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_users":3}`))
	}))

	cache := newResponseCache(t)
	uc := usecase.NewGatewayUseCase(
		cache, newTestMetrics(t), logger.NewNop(), upstream.URL, "/api/",
	)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats/dashboard", nil)

	resp, fromCache, err := uc.NetworkFirst(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, hits)

	// 上流を落としてもキャッシュから応答できる
	upstream.Close()

	resp, fromCache, err = uc.NetworkFirst(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.JSONEq(t, `{"total_users":3}`, string(resp.Body))
}

func TestNetworkFirstErrorWithoutCache(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	uc := usecase.NewGatewayUseCase(
		newResponseCache(t), newTestMetrics(t), logger.NewNop(), upstream.URL, "/api/",
	)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/polls", nil)

	_, _, err := uc.NetworkFirst(context.Background(), req)
	var upstreamErr *domain.ErrUpstreamUnavailable
	require.ErrorAs(t, err, &upstreamErr)
}

func TestClearCache(t *testing.T) {
	cache := newResponseCache(t)
	require.NoError(t, cache.Set("/a", &domain.CachedResponse{StatusCode: 200, Body: []byte("a")}))

	uc := usecase.NewGatewayUseCase(
		cache, newTestMetrics(t), logger.NewNop(), "http://upstream", "/api/",
	)

	require.NoError(t, uc.ClearCache())
	_, ok := cache.Get("/a")
	assert.False(t, ok)
}
