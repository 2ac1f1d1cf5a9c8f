package domain

import "time"

// 管理APIが扱うリソースのエンティティ定義.

// Location は地域階層(国/地域/地区/都市)の1ノードを表す.
type Location struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Kind     string `json:"kind"` // country / region / district / city
	Active   bool   `json:"active"`
}

// PollOption は投票の選択肢を表す.
type PollOption struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Votes int64  `json:"votes"`
}

// Poll はアンケート/投票を表す.
type Poll struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []PollOption `json:"options"`
	Active    bool         `json:"active"`
	StartsAt  time.Time    `json:"starts_at"`
	EndsAt    time.Time    `json:"ends_at"`
	CreatedAt time.Time    `json:"created_at"`
}

// Integration は外部プロバイダー連携の設定を表す.
type Integration struct {
	ID       string            `json:"id"`
	Provider string            `json:"provider"`
	Enabled  bool              `json:"enabled"`
	Config   map[string]string `json:"config"`
}

// BoostPackage は出品ブーストのパッケージを表す.
type BoostPackage struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	DurationDays int     `json:"duration_days"`
	Price        float64 `json:"price"`
	Currency     string  `json:"currency"`
	Active       bool    `json:"active"`
}

// SellerCredit は出品者のブーストクレジット残高を表す.
type SellerCredit struct {
	SellerID  string    `json:"seller_id"`
	Credits   int       `json:"credits"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CookieConsentSettings はCookie同意バナーの設定を表す.
type CookieConsentSettings struct {
	Enabled    bool     `json:"enabled"`
	BannerText string   `json:"banner_text"`
	PolicyURL  string   `json:"policy_url"`
	Categories []string `json:"categories"`
	ExpiryDays int      `json:"expiry_days"`
}

// RecaptchaSettings はreCAPTCHAの設定を表す.
type RecaptchaSettings struct {
	Enabled   bool    `json:"enabled"`
	SiteKey   string  `json:"site_key"`
	SecretKey string  `json:"secret_key,omitempty"`
	Threshold float64 `json:"threshold"`
}

// SegmentRule はユーザーセグメントの抽出ルールを表す.
type SegmentRule struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Criteria  map[string]string `json:"criteria"`
	Active    bool              `json:"active"`
	CreatedAt time.Time         `json:"created_at"`
}

// AuditLogEntry は監査ログの1エントリを表す.
type AuditLogEntry struct {
	ID        string                 `json:"id"`
	ActorID   string                 `json:"actor_id"`
	Action    string                 `json:"action"`
	Resource  string                 `json:"resource"`
	Details   map[string]interface{} `json:"details,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SearchQueryStat は検索分析の1行を表す.
type SearchQueryStat struct {
	Query       string `json:"query"`
	Count       int64  `json:"count"`
	ZeroResults int64  `json:"zero_results"`
}

// SEOPageStat はSEO分析の1ページ分の統計を表す.
type SEOPageStat struct {
	Path        string  `json:"path"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	AvgPosition float64 `json:"avg_position"`
}

// DashboardStats はダッシュボード先頭に表示する集計を表す.
type DashboardStats struct {
	TotalUsers     int64     `json:"total_users"`
	TotalListings  int64     `json:"total_listings"`
	ActiveListings int64     `json:"active_listings"`
	PendingReports int64     `json:"pending_reports"`
	RevenueToday   float64   `json:"revenue_today"`
	GeneratedAt    time.Time `json:"generated_at"`
}
