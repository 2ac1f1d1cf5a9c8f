package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
	"github.com/kelvinofficial/avida-sub013/internal/interface/handler"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/logger"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/metrics"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/respcache"
	"github.com/kelvinofficial/avida-sub013/internal/usecase"
)

type fixture struct {
	handler *handler.GatewayHandler
	cache   *respcache.Repository
}

func newFixture(t *testing.T, upstreamURL string) *fixture {
	t.Helper()

	cache, err := respcache.New(t.TempDir(), domain.CacheVersion, 10*1024*1024)
	require.NoError(t, err)

	collector := metrics.New(filepath.Join(t.TempDir(), "metrics.json"))
	log := logger.NewNop()

	uc := usecase.NewGatewayUseCase(cache, collector, log, upstreamURL, "/api/")

	return &fixture{
		handler: handler.NewGatewayHandler(uc, collector, log),
		cache:   cache,
	}
}

func TestImageMissFetchesStoresAndReturnsUnmodified(t *testing.T) {
	pngBody := []byte("\x89PNG\r\n\x1a\nfake-image-data")
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBody)
	}))
	defer upstream.Close()

	f := newFixture(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/uploads/listing-7.png", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.Equal(pngBody, rec.Body.Bytes()))

	// レスポンスが画像キャッシュに保存されている
	cached, ok := f.cache.Get("/uploads/listing-7.png")
	require.True(t, ok)
	assert.Equal(t, pngBody, cached.Body)
}

func TestImageHitServedFromCache(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // 上流は落ちている

	f := newFixture(t, upstream.URL)
	require.NoError(t, f.cache.Set("/uploads/cached.png", &domain.CachedResponse{
		StatusCode: 200,
		Headers:    map[string][]string{"Content-Type": {"image/png"}},
		Body:       []byte("cached-image"),
	}))

	req := httptest.NewRequest(http.MethodGet, "/uploads/cached.png", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hit", rec.Header().Get("X-Gateway-Cache"))
	assert.Equal(t, "cached-image", rec.Body.String())
}

func TestImageTotalFailureReturnsPlaceholder(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	f := newFixture(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/uploads/unreachable.png", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")
}

func TestNavigationTotalFailureReturnsOfflinePage(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	f := newFixture(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/dashboard/users", nil)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "offline")
}

func TestAPIFailureWithoutCacheReturnsJSONError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close()

	f := newFixture(t, upstream.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/polls", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"upstream unavailable"}`, rec.Body.String())
}

func TestNonGETIsProxiedWithoutCaching(t *testing.T) {
	var seenMethod, seenAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenMethod = r.Method
		seenAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p9"}`))
	}))
	defer upstream.Close()

	f := newFixture(t, upstream.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/polls", strings.NewReader(`{"question":"?"}`))
	req.Header.Set("Authorization", "Bearer tok-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.MethodPost, seenMethod)
	assert.Equal(t, "Bearer tok-123", seenAuth)

	_, ok := f.cache.Get("/api/admin/polls")
	assert.False(t, ok)
}

func TestCommandClearCache(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	f := newFixture(t, upstream.URL)
	require.NoError(t, f.cache.Set("/uploads/x.png", &domain.CachedResponse{
		StatusCode: 200, Body: []byte("x"),
	}))

	req := httptest.NewRequest(http.MethodPost, handler.CommandPath,
		strings.NewReader(`{"command":"clearCache"}`))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	_, ok := f.cache.Get("/uploads/x.png")
	assert.False(t, ok)
}

func TestCommandValidation(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer upstream.Close()

	f := newFixture(t, upstream.URL)

	testCases := []struct {
		name     string
		method   string
		body     string
		wantCode int
	}{
		{"skipWaiting acknowledged", http.MethodPost, `{"command":"skipWaiting"}`, http.StatusOK},
		{"unknown command", http.MethodPost, `{"command":"selfDestruct"}`, http.StatusBadRequest},
		{"malformed body", http.MethodPost, `{`, http.StatusBadRequest},
		{"wrong method", http.MethodGet, ``, http.StatusMethodNotAllowed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, handler.CommandPath, strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			f.handler.ServeHTTP(rec, req)
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
