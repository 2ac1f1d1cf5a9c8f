package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GatewayConfig はゲートウェイの設定を表す.
type GatewayConfig struct {
	UpstreamURL    string   `yaml:"upstream_url"`
	EventsURL      string   `yaml:"events_url"`
	APIPrefix      string   `yaml:"api_prefix"`
	PrecacheAssets []string `yaml:"precache_assets"`
}

// Load は設定ファイルを読み込む. ファイルが存在しない場合は
// デフォルト設定を作成する.
func Load(path string) (*GatewayConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return createDefault(path)
		}
		return nil, err
	}

	var cfg GatewayConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.prepare()
	return &cfg, nil
}

// createDefault はデフォルト設定ファイルを作成する.
func createDefault(path string) (*GatewayConfig, error) {
	cfg := &GatewayConfig{
		UpstreamURL: "http://localhost:8080",
		EventsURL:   "ws://localhost:8080/api/admin/events",
		APIPrefix:   "/api/",
		PrecacheAssets: []string{
			"/",
			"/index.html",
			"/static/js/main.js",
			"/static/css/main.css",
			"/manifest.json",
			"/favicon.ico",
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}

	return cfg, nil
}

// prepare は設定値を正規化する.
func (c *GatewayConfig) prepare() {
	c.UpstreamURL = strings.TrimRight(strings.TrimSpace(c.UpstreamURL), "/")
	c.EventsURL = strings.TrimSpace(c.EventsURL)

	if c.APIPrefix == "" {
		c.APIPrefix = "/api/"
	}
	if !strings.HasSuffix(c.APIPrefix, "/") {
		c.APIPrefix += "/"
	}

	for i, asset := range c.PrecacheAssets {
		c.PrecacheAssets[i] = strings.TrimSpace(asset)
	}
}
