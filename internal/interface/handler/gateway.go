package handler

import (
	"encoding/json"
	"net/http"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
	"github.com/kelvinofficial/avida-sub013/internal/usecase"
)

// CommandPath はページからの制御コマンドを受け付けるパス.
const CommandPath = "/gateway/command"

// GatewayHandler はゲートウェイのHTTPリクエストを処理
type GatewayHandler struct {
	gatewayUseCase *usecase.GatewayUseCase
	metrics        domain.MetricsCollector
	logger         domain.Logger
}

// NewGatewayHandler は新しいGatewayHandlerインスタンスを作成
func NewGatewayHandler(
	gatewayUseCase *usecase.GatewayUseCase,
	metrics domain.MetricsCollector,
	logger domain.Logger,
) *GatewayHandler {
	return &GatewayHandler{
		gatewayUseCase: gatewayUseCase,
		metrics:        metrics,
		logger:         logger,
	}
}

func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == CommandPath {
		h.handleCommand(w, r)
		return
	}

	// GET以外は方針を適用せずそのまま転送する
	if r.Method != http.MethodGet {
		h.handlePassthrough(w, r)
		return
	}

	class := h.gatewayUseCase.Classify(r)
	h.metrics.RecordRequest(class)

	switch class {
	case domain.ClassImage, domain.ClassStaticAsset:
		h.handleCacheFirst(w, r, class)
	case domain.ClassAPI, domain.ClassNavigation:
		h.handleNetworkFirst(w, r, class)
	default:
		h.handlePassthrough(w, r)
	}
}

// handleCacheFirst は画像・静的アセット向けの方針を適用.
func (h *GatewayHandler) handleCacheFirst(
	w http.ResponseWriter, r *http.Request, class domain.RequestClass,
) {
	resp, fromCache, err := h.gatewayUseCase.CacheFirst(r.Context(), r)
	if err != nil {
		h.metrics.RecordError()
		h.logger.Debug("cache-first fetch failed", map[string]interface{}{
			"path":  r.URL.Path,
			"class": class.String(),
			"error": err.Error(),
		})

		// 画像は生成したプレースホルダーで代替する
		if class == domain.ClassImage {
			writePlaceholderImage(w)
			return
		}

		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	h.writeResponse(w, resp, fromCache)
}

// handleNetworkFirst はAPI・ナビゲーション向けの方針を適用.
func (h *GatewayHandler) handleNetworkFirst(
	w http.ResponseWriter, r *http.Request, class domain.RequestClass,
) {
	resp, fromCache, err := h.gatewayUseCase.NetworkFirst(r.Context(), r)
	if err != nil {
		h.metrics.RecordError()
		h.logger.Debug("network-first fetch failed", map[string]interface{}{
			"path":  r.URL.Path,
			"class": class.String(),
			"error": err.Error(),
		})

		// ナビゲーションは生成したオフラインページで代替する
		if class == domain.ClassNavigation {
			writeOfflinePage(w)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "upstream unavailable",
		})
		return
	}

	h.writeResponse(w, resp, fromCache)
}

// handlePassthrough は方針対象外のリクエストを転送.
func (h *GatewayHandler) handlePassthrough(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gatewayUseCase.Passthrough(r.Context(), r)
	if err != nil {
		h.metrics.RecordError()
		h.logger.Error("passthrough failed", err, map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
		http.Error(w, "Bad Gateway", http.StatusBadGateway)
		return
	}

	h.writeResponse(w, resp, false)
}

// handleCommand はページからの制御コマンドを処理.
// clearCache はキャッシュ全削除、skipWaiting は互換のための応答のみ.
func (h *GatewayHandler) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	switch body.Command {
	case "clearCache":
		if err := h.gatewayUseCase.ClearCache(); err != nil {
			h.metrics.RecordError()
			h.logger.Error("failed to clear cache", err, nil)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		h.logger.Info("cache cleared by command", nil)
	case "skipWaiting":
		// 常駐プロセスに待機フェーズはないため応答のみ返す
	default:
		http.Error(w, "Unknown command", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeResponse はキャッシュ済みレスポンスを書き出す.
func (h *GatewayHandler) writeResponse(
	w http.ResponseWriter, resp *domain.CachedResponse, fromCache bool,
) {
	for key, values := range resp.Headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if fromCache {
		w.Header().Set("X-Gateway-Cache", "hit")
	}

	w.WriteHeader(resp.StatusCode)
	w.Write(resp.Body)
}
