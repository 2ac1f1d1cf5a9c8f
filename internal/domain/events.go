package domain

import "time"

// AdminEvent は管理ダッシュボードに配信されるイベントを表す.
type AdminEvent struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// イベント種別
const (
	EventNewUser         = "new_user"
	EventNewListing      = "new_listing"
	EventNewReport       = "new_report"
	EventListingApproved = "listing_approved"
	EventListingRejected = "listing_rejected"
	EventUserBanned      = "user_banned"
)

// EventHandler はイベント受信時に呼ばれるコールバック.
type EventHandler func(event *AdminEvent)

// EventSubscriber はイベント購読のインターフェース.
type EventSubscriber interface {
	Start() error
	On(eventType string, handler EventHandler)
	OnAny(handler EventHandler)
	LastEvent() *AdminEvent
	Close() error
}
