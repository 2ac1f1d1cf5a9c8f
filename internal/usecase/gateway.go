package usecase

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

// upstreamTimeout は上流リクエストのタイムアウト.
const upstreamTimeout = 30 * time.Second

// maxBodySize は上流レスポンスボディの読み取り上限.
const maxBodySize = 32 * 1024 * 1024

// imageExtensions は画像として扱う拡張子.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
	".ico":  true,
}

// staticExtensions は静的アセットとして扱う拡張子.
var staticExtensions = map[string]bool{
	".js":    true,
	".css":   true,
	".woff":  true,
	".woff2": true,
	".ttf":   true,
	".map":   true,
	".json":  true,
}

// GatewayUseCase はゲートウェイの主要なユースケースを実装.
// リクエストを分類し、クラスごとのキャッシュ方針を適用する.
type GatewayUseCase struct {
	cache     domain.ResponseCache
	metrics   domain.MetricsCollector
	logger    domain.Logger
	upstream  string
	apiPrefix string
	client    *http.Client
}

// NewGatewayUseCase は新しいGatewayUseCaseインスタンスを作成
func NewGatewayUseCase(
	cache domain.ResponseCache,
	metrics domain.MetricsCollector,
	logger domain.Logger,
	upstreamURL string,
	apiPrefix string,
) *GatewayUseCase {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &GatewayUseCase{
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		upstream:  strings.TrimRight(upstreamURL, "/"),
		apiPrefix: apiPrefix,
		client: &http.Client{
			Timeout: upstreamTimeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Classify はGETリクエストのパスを分類する.
func (uc *GatewayUseCase) Classify(r *http.Request) domain.RequestClass {
	requestPath := r.URL.Path

	if strings.HasPrefix(requestPath, uc.apiPrefix) {
		return domain.ClassAPI
	}

	ext := strings.ToLower(path.Ext(requestPath))
	if imageExtensions[ext] {
		return domain.ClassImage
	}
	if staticExtensions[ext] {
		return domain.ClassStaticAsset
	}

	if ext == "" && strings.Contains(r.Header.Get("Accept"), "text/html") {
		return domain.ClassNavigation
	}

	return domain.ClassUnhandled
}

// CacheKey はリクエストのキャッシュキーを返す.
func (uc *GatewayUseCase) CacheKey(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// CacheFirst はキャッシュ優先方針でリクエストを処理する.
// ヒット時はキャッシュを返しつつバックグラウンドで更新する.
// ミス時は上流から取得してキャッシュへ保存する.
func (uc *GatewayUseCase) CacheFirst(
	ctx context.Context, r *http.Request,
) (*domain.CachedResponse, bool, error) {
	key := uc.CacheKey(r)

	if cached, ok := uc.cache.Get(key); ok {
		uc.metrics.RecordCacheHit()
		go uc.refreshInBackground(key, r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization"))
		return cached, true, nil
	}

	uc.metrics.RecordCacheMiss()

	resp, err := uc.fetchUpstream(ctx, r.Method, r.URL.Path, r.URL.RawQuery, r.Header, r.Body)
	if err != nil {
		return nil, false, err
	}

	if resp.StatusCode == http.StatusOK {
		if err := uc.cache.Set(key, resp); err != nil {
			uc.logger.Error("failed to cache response", err, map[string]interface{}{
				"key": key,
			})
		}
	}

	return resp, false, nil
}

// NetworkFirst はネットワーク優先方針でリクエストを処理する.
// 上流が成功すればキャッシュを更新して返し、失敗時はキャッシュへ
// フォールバックする.
func (uc *GatewayUseCase) NetworkFirst(
	ctx context.Context, r *http.Request,
) (*domain.CachedResponse, bool, error) {
	key := uc.CacheKey(r)

	resp, err := uc.fetchUpstream(ctx, r.Method, r.URL.Path, r.URL.RawQuery, r.Header, r.Body)
	if err == nil {
		if r.Method == http.MethodGet && resp.StatusCode == http.StatusOK {
			if cacheErr := uc.cache.Set(key, resp); cacheErr != nil {
				uc.logger.Error("failed to cache response", cacheErr, map[string]interface{}{
					"key": key,
				})
			}
		}
		return resp, false, nil
	}

	uc.metrics.RecordNetworkFallback()

	if cached, ok := uc.cache.Get(key); ok {
		uc.logger.Debug("serving cached fallback", map[string]interface{}{
			"key": key,
		})
		return cached, true, nil
	}

	return nil, false, err
}

// Passthrough はキャッシュを介さずリクエストを上流へ転送する.
func (uc *GatewayUseCase) Passthrough(
	ctx context.Context, r *http.Request,
) (*domain.CachedResponse, error) {
	return uc.fetchUpstream(ctx, r.Method, r.URL.Path, r.URL.RawQuery, r.Header, r.Body)
}

// Precache はシェルアセットの固定リストを事前キャッシュする.
// 個々の失敗はログに残して続行する.
func (uc *GatewayUseCase) Precache(ctx context.Context, assets []string) int {
	cached := 0
	for _, asset := range assets {
		resp, err := uc.fetchUpstream(ctx, http.MethodGet, asset, "", nil, nil)
		if err != nil {
			uc.logger.Error("precache fetch failed", err, map[string]interface{}{
				"asset": asset,
			})
			continue
		}

		if resp.StatusCode != http.StatusOK {
			uc.logger.Debug("precache skipped non-ok asset", map[string]interface{}{
				"asset":  asset,
				"status": resp.StatusCode,
			})
			continue
		}

		if err := uc.cache.Set(asset, resp); err != nil {
			uc.logger.Error("precache store failed", err, map[string]interface{}{
				"asset": asset,
			})
			continue
		}
		cached++
	}

	uc.logger.Info("precache complete", map[string]interface{}{
		"requested": len(assets),
		"cached":    cached,
	})
	return cached
}

// ClearCache は現在のバージョンのキャッシュを全て削除する.
func (uc *GatewayUseCase) ClearCache() error {
	return uc.cache.Clear()
}

// refreshInBackground はキャッシュ済みエントリを裏で更新する.
func (uc *GatewayUseCase) refreshInBackground(
	key, requestPath, rawQuery, authorization string,
) {
	ctx, cancel := context.WithTimeout(context.Background(), upstreamTimeout)
	defer cancel()

	header := http.Header{}
	if authorization != "" {
		header.Set("Authorization", authorization)
	}

	resp, err := uc.fetchUpstream(ctx, http.MethodGet, requestPath, rawQuery, header, nil)
	if err != nil {
		uc.logger.Debug("background refresh failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return
	}

	if resp.StatusCode == http.StatusOK {
		if err := uc.cache.Set(key, resp); err != nil {
			uc.logger.Error("failed to refresh cached response", err, map[string]interface{}{
				"key": key,
			})
		}
	}
}

// fetchUpstream は上流サーバーへリクエストを転送する.
func (uc *GatewayUseCase) fetchUpstream(
	ctx context.Context,
	method, requestPath, rawQuery string,
	header http.Header,
	body io.Reader,
) (*domain.CachedResponse, error) {
	url := uc.upstream + requestPath
	if rawQuery != "" {
		url += "?" + rawQuery
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for key, values := range header {
		// ホップバイホップのヘッダーは転送しない
		if strings.EqualFold(key, "Connection") || strings.EqualFold(key, "Keep-Alive") {
			continue
		}
		req.Header[key] = values
	}

	resp, err := uc.client.Do(req)
	if err != nil {
		return nil, &domain.ErrUpstreamUnavailable{Host: uc.upstream, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &domain.ErrUpstreamUnavailable{
			Host: uc.upstream,
			Err:  fmt.Errorf("read body: %w", err),
		}
	}

	return &domain.CachedResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		CreatedAt:  time.Now(),
	}, nil
}
