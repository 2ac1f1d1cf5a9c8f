package events_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
	"github.com/kelvinofficial/avida-sub013/internal/interface/events"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/logger"
	"github.com/kelvinofficial/avida-sub013/internal/interface/repository/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newTestMetrics(t *testing.T) *metrics.Repository {
	t.Helper()
	return metrics.New(filepath.Join(t.TempDir(), "metrics.json"))
}

func TestSubscriberReceivesAndDispatchesEvents(t *testing.T) {
	var seenAuth atomic.Value

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenAuth.Store(r.Header.Get("Authorization"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(domain.AdminEvent{
			Type:      domain.EventNewListing,
			Data:      map[string]interface{}{"listing_id": "L-1"},
			Timestamp: time.Now(),
		})

		// クライアントが閉じるまで接続を維持する
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sub := events.New(
		events.Options{
			URL:          wsURL(srv),
			Token:        func() string { return "tok-1" },
			BaseBackoff:  10 * time.Millisecond,
			PingInterval: 50 * time.Millisecond,
		},
		newTestMetrics(t),
		logger.NewNop(),
	)

	received := make(chan *domain.AdminEvent, 1)
	sub.On(domain.EventNewListing, func(event *domain.AdminEvent) {
		received <- event
	})

	require.NoError(t, sub.Start())
	defer sub.Close()

	select {
	case event := <-received:
		assert.Equal(t, domain.EventNewListing, event.Type)
		assert.Equal(t, "L-1", event.Data["listing_id"])
	case <-time.After(5 * time.Second):
		t.Fatal("event was not dispatched")
	}

	assert.Equal(t, "Bearer tok-1", seenAuth.Load())

	last := sub.LastEvent()
	require.NotNil(t, last)
	assert.Equal(t, domain.EventNewListing, last.Type)
}

func TestSubscriberCatchAllHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(domain.AdminEvent{Type: domain.EventUserBanned, Timestamp: time.Now()})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sub := events.New(
		events.Options{URL: wsURL(srv), BaseBackoff: 10 * time.Millisecond},
		newTestMetrics(t),
		logger.NewNop(),
	)

	received := make(chan *domain.AdminEvent, 1)
	sub.OnAny(func(event *domain.AdminEvent) {
		received <- event
	})

	require.NoError(t, sub.Start())
	defer sub.Close()

	select {
	case event := <-received:
		assert.Equal(t, domain.EventUserBanned, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("catch-all handler was not invoked")
	}
}

func TestSubscriberReconnectsAfterUnexpectedClosure(t *testing.T) {
	var connections atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		n := connections.Add(1)
		if n == 1 {
			// 1本目は即切断して再接続させる
			conn.Close()
			return
		}

		defer conn.Close()
		conn.WriteJSON(domain.AdminEvent{Type: domain.EventNewReport, Timestamp: time.Now()})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sub := events.New(
		events.Options{
			URL:         wsURL(srv),
			BaseBackoff: 10 * time.Millisecond,
			MaxBackoff:  50 * time.Millisecond,
		},
		newTestMetrics(t),
		logger.NewNop(),
	)

	received := make(chan *domain.AdminEvent, 1)
	sub.On(domain.EventNewReport, func(event *domain.AdminEvent) {
		received <- event
	})

	require.NoError(t, sub.Start())
	defer sub.Close()

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not reconnect")
	}

	assert.GreaterOrEqual(t, connections.Load(), int64(2))
}

func TestSubscriberMalformedEventIsDiscarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
		conn.WriteJSON(domain.AdminEvent{Type: domain.EventNewUser, Timestamp: time.Now()})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sub := events.New(
		events.Options{URL: wsURL(srv), BaseBackoff: 10 * time.Millisecond},
		newTestMetrics(t),
		logger.NewNop(),
	)

	received := make(chan *domain.AdminEvent, 1)
	sub.OnAny(func(event *domain.AdminEvent) {
		received <- event
	})

	require.NoError(t, sub.Start())
	defer sub.Close()

	// 壊れたメッセージは飛ばされ、正しいイベントだけが届く
	select {
	case event := <-received:
		assert.Equal(t, domain.EventNewUser, event.Type)
	case <-time.After(5 * time.Second):
		t.Fatal("valid event after malformed one was not dispatched")
	}
}

func TestSubscriberCloseStopsReconnecting(t *testing.T) {
	// 存在しないサーバーへの購読を閉じても待ちが残らないこと
	sub := events.New(
		events.Options{
			URL:         "ws://127.0.0.1:1/events",
			BaseBackoff: 10 * time.Millisecond,
			MaxBackoff:  20 * time.Millisecond,
			MaxRetries:  1000,
		},
		newTestMetrics(t),
		logger.NewNop(),
	)

	require.NoError(t, sub.Start())

	done := make(chan struct{})
	go func() {
		sub.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not stop the reconnect loop")
	}

	assert.Error(t, sub.Start())
}

func TestSubscriberGivesUpAfterMaxRetries(t *testing.T) {
	collector := newTestMetrics(t)

	sub := events.New(
		events.Options{
			URL:         "ws://127.0.0.1:1/events",
			BaseBackoff: time.Millisecond,
			MaxBackoff:  2 * time.Millisecond,
			MaxRetries:  3,
		},
		collector,
		logger.NewNop(),
	)

	require.NoError(t, sub.Start())
	defer sub.Close()

	// 上限まで試行した後は黙って停止する
	require.Eventually(t, func() bool {
		snapshot := collector.GetSnapshot()
		return snapshot["reconnects"].(int64) == 3
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), collector.GetSnapshot()["reconnects"].(int64))
}
