package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
	"github.com/kelvinofficial/avida-sub013/internal/interface/client"
	"github.com/kelvinofficial/avida-sub013/internal/interface/events"
	"github.com/kelvinofficial/avida-sub013/internal/interface/handler"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/config"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/localstore"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/logger"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/metrics"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/respcache"
	"github.com/kelvinofficial/avida-sub013/internal/usecase"
)

const (
	defaultPort        = 10090
	defaultMetricsPort = 10091
	defaultConfigDir   = "./configs"
	defaultLogDir      = "./logs"
	defaultCacheDir    = "./cache"
	defaultStoreDir    = "./store"
)

type appConfig struct {
	port                int
	metricsPort         int
	configDir           string
	logDir              string
	cacheDir            string
	storeDir            string
	maxCacheSize        int64
	metricsSaveInterval time.Duration
	debug               bool
}

func main() {
	// コンフィグの解析
	cfg := parseConfig()

	// ディレクトリの準備
	if err := prepareDirectories(cfg); err != nil {
		fmt.Printf("Failed to prepare directories: %v\n", err)
		os.Exit(1)
	}

	// ロガーの初期化
	loggerRepo, err := logger.New(cfg.logDir, "gateway.log", cfg.debug)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer loggerRepo.Close()

	// ゲートウェイ設定の読み込み
	gatewayConfig, err := config.Load(filepath.Join(cfg.configDir, "gateway.yaml"))
	if err != nil {
		loggerRepo.Error("Failed to load gateway config", err, nil)
		os.Exit(1)
	}

	// スナップショットストアの初期化
	snapshotStore, err := localstore.New(cfg.storeDir)
	if err != nil {
		loggerRepo.Error("Failed to initialize snapshot store", err, nil)
		os.Exit(1)
	}

	// レスポンスキャッシュの初期化. 古いバージョンはここで削除される.
	responseCache, err := respcache.New(cfg.cacheDir, domain.CacheVersion, cfg.maxCacheSize)
	if err != nil {
		loggerRepo.Error("Failed to initialize response cache", err, nil)
		os.Exit(1)
	}

	// メトリクスの初期化
	metricsCollector := metrics.New(filepath.Join(cfg.logDir, "metrics.json"))

	// ゲートウェイのユースケース作成
	gatewayUseCase := usecase.NewGatewayUseCase(
		responseCache,    // domain.ResponseCache
		metricsCollector, // domain.MetricsCollector
		loggerRepo,       // domain.Logger
		gatewayConfig.UpstreamURL,
		gatewayConfig.APIPrefix,
	)

	// メトリクスのユースケース作成
	metricsUseCase := usecase.NewMetricsUseCase(
		metricsCollector,
		loggerRepo,
		usecase.MetricsConfig{
			SaveInterval: cfg.metricsSaveInterval,
		},
	)
	defer metricsUseCase.Stop()

	// シェルアセットの事前キャッシュ
	precacheCtx, precacheCancel := context.WithTimeout(context.Background(), time.Minute)
	gatewayUseCase.Precache(precacheCtx, gatewayConfig.PrecacheAssets)
	precacheCancel()

	// イベント購読の開始
	subscriber := events.New(
		events.Options{
			URL:   gatewayConfig.EventsURL,
			Token: tokenFromStore(snapshotStore),
		},
		metricsCollector,
		loggerRepo,
	)
	registerEventLogging(subscriber, loggerRepo)
	if err := subscriber.Start(); err != nil {
		loggerRepo.Error("Failed to start event subscriber", err, nil)
	}
	defer subscriber.Close()

	// ハンドラーの作成
	gatewayHandler := handler.NewGatewayHandler(gatewayUseCase, metricsCollector, loggerRepo)
	metricsHandler := handler.NewMetricsHandler(metricsUseCase, loggerRepo)

	// ゲートウェイサーバーの設定
	gatewayServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.port),
		Handler: gatewayHandler,
	}

	// メトリクスサーバーの設定
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.metricsPort),
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/metrics":
				metricsHandler.HandleMetrics(w, r)
			case "/stats":
				metricsHandler.HandleStats(w, r)
			case "/health":
				metricsHandler.HandleHealth(w, r)
			default:
				http.NotFound(w, r)
			}
		}),
	}

	// シャットダウンハンドラの設定
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	// サーバーの起動
	go func() {
		loggerRepo.Info("Starting gateway server", map[string]interface{}{"port": cfg.port})
		if err := gatewayServer.ListenAndServe(); err != http.ErrServerClosed {
			loggerRepo.Error("Gateway server error", err, nil)
			cancel()
		}
	}()

	go func() {
		loggerRepo.Info("Starting metrics server", map[string]interface{}{"port": cfg.metricsPort})
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			loggerRepo.Error("Metrics server error", err, nil)
			cancel()
		}
	}()

	// シグナル待機
	select {
	case <-signalChan:
		loggerRepo.Info("Shutdown signal received", nil)
	case <-ctx.Done():
		loggerRepo.Info("Shutdown initiated", nil)
	}

	// グレースフルシャットダウン
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gatewayServer.Shutdown(shutdownCtx); err != nil {
		loggerRepo.Error("Error shutting down gateway server", err, nil)
	}

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		loggerRepo.Error("Error shutting down metrics server", err, nil)
	}

	loggerRepo.Info("Shutdown complete", nil)
}

// tokenFromStore はスナップショットストアからベアラートークンを読む.
func tokenFromStore(store domain.SnapshotStore) func() string {
	return func() string {
		snap, ok := store.Get(client.TokenKey)
		if !ok {
			return ""
		}

		var token string
		if err := json.Unmarshal(snap.Data, &token); err != nil {
			return ""
		}
		return token
	}
}

// registerEventLogging は受信イベントをログに残すコールバックを登録.
func registerEventLogging(subscriber domain.EventSubscriber, log domain.Logger) {
	subscriber.OnAny(func(event *domain.AdminEvent) {
		log.Info("admin event received", map[string]interface{}{
			"type":      event.Type,
			"timestamp": event.Timestamp,
		})
	})
}

func parseConfig() *appConfig {
	cfg := &appConfig{}

	flag.IntVar(&cfg.port, "port", defaultPort, "Gateway server port")
	flag.IntVar(&cfg.metricsPort, "metrics-port", defaultMetricsPort, "Metrics server port")
	flag.StringVar(&cfg.configDir, "config-dir", defaultConfigDir, "Configuration directory")
	flag.StringVar(&cfg.logDir, "log-dir", defaultLogDir, "Log directory")
	flag.StringVar(&cfg.cacheDir, "cache-dir", defaultCacheDir, "Response cache directory")
	flag.StringVar(&cfg.storeDir, "store-dir", defaultStoreDir, "Snapshot store directory")
	flag.Int64Var(&cfg.maxCacheSize, "max-cache-size", 100*1024*1024, "Maximum cache size in bytes")
	flag.DurationVar(&cfg.metricsSaveInterval, "metrics-save-interval", time.Minute, "Metrics save interval")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

func prepareDirectories(cfg *appConfig) error {
	dirs := []string{
		cfg.configDir,
		cfg.logDir,
		cfg.cacheDir,
		cfg.storeDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
	}

	return nil
}
