package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kelvinofficial/avida-sub013/internal/domain"
)

const (
	defaultBaseBackoff  = 1 * time.Second
	defaultMaxBackoff   = 30 * time.Second
	defaultMaxRetries   = 10
	defaultPingInterval = 30 * time.Second
)

// Options は購読の設定を表す.
type Options struct {
	// URL はイベントチャネルのWebSocketのURL.
	URL string

	// Token はベアラートークンを返す. 接続のたびに呼ばれる.
	Token func() string

	// BaseBackoff は再接続の初期待機時間. 試行ごとに倍になる.
	BaseBackoff time.Duration

	// MaxBackoff は再接続待機時間の上限.
	MaxBackoff time.Duration

	// MaxRetries は連続再接続の上限. 超えたら黙って諦める.
	MaxRetries int

	// PingInterval はキープアライブ送信の間隔.
	PingInterval time.Duration
}

// Subscriber は管理イベントの購読を実装する.
// 切断時は指数バックオフで再接続し、上限回数を超えたら停止する.
type Subscriber struct {
	opts    Options
	metrics domain.MetricsCollector
	logger  domain.Logger

	mu          sync.RWMutex
	handlers    map[string][]domain.EventHandler
	anyHandlers []domain.EventHandler
	lastEvent   *domain.AdminEvent
	conn        *websocket.Conn
	started     bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Verify interface implementation
var _ domain.EventSubscriber = (*Subscriber)(nil)

// New は新しいSubscriberインスタンスを作成
func New(
	opts Options, metrics domain.MetricsCollector, logger domain.Logger,
) *Subscriber {
	if opts.BaseBackoff == 0 {
		opts.BaseBackoff = defaultBaseBackoff
	}
	if opts.MaxBackoff == 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.PingInterval == 0 {
		opts.PingInterval = defaultPingInterval
	}

	return &Subscriber{
		opts:     opts,
		metrics:  metrics,
		logger:   logger,
		handlers: make(map[string][]domain.EventHandler),
		done:     make(chan struct{}),
	}
}

// On はイベント種別ごとのコールバックを登録.
func (s *Subscriber) On(eventType string, handler domain.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[eventType] = append(s.handlers[eventType], handler)
}

// OnAny は全イベントを受け取るコールバックを登録.
func (s *Subscriber) OnAny(handler domain.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anyHandlers = append(s.anyHandlers, handler)
}

// LastEvent は最後に受信したイベントを返す. 未受信ならnil.
func (s *Subscriber) LastEvent() *domain.AdminEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastEvent
}

// Start は接続と受信ループを開始する.
func (s *Subscriber) Start() error {
	select {
	case <-s.done:
		return &domain.ErrSubscriberClosed{}
	default:
	}

	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
	return nil
}

// Close は購読を終了する. 再接続も行われなくなる.
func (s *Subscriber) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		if s.conn != nil {
			s.conn.Close()
		}
		s.mu.Unlock()
	})

	s.wg.Wait()
	return nil
}

// run は接続・受信・再接続のループ.
func (s *Subscriber) run() {
	defer s.wg.Done()

	attempts := 0
	for {
		if s.closed() {
			return
		}

		conn, err := s.dial()
		if err != nil {
			attempts++
			if attempts > s.opts.MaxRetries {
				// 上限を超えたら黙って諦める
				s.logger.Debug("event subscriber giving up", map[string]interface{}{
					"attempts": attempts - 1,
				})
				return
			}

			s.metrics.RecordReconnect()
			s.logger.Debug("event channel reconnect scheduled", map[string]interface{}{
				"attempt": attempts,
				"delay":   s.backoffDelay(attempts).String(),
			})

			if !s.sleep(s.backoffDelay(attempts)) {
				return
			}
			continue
		}

		// 接続に成功したら試行回数をリセット
		attempts = 0

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		s.logger.Info("event channel connected", map[string]interface{}{
			"url": s.opts.URL,
		})

		readDone := make(chan struct{})
		go s.pingLoop(conn, readDone)

		s.readLoop(conn)
		close(readDone)
		conn.Close()

		if s.closed() {
			return
		}

		// 予期しない切断. バックオフ後に再接続する.
		attempts++
		s.metrics.RecordReconnect()
		if !s.sleep(s.backoffDelay(attempts)) {
			return
		}
	}
}

// dial はトークン付きで接続を確立する.
func (s *Subscriber) dial() (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	header := http.Header{}
	if s.opts.Token != nil {
		if token := s.opts.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, _, err := dialer.Dial(s.opts.URL, header)
	return conn, err
}

// readLoop はメッセージを受信して配送する. エラーで戻る.
func (s *Subscriber) readLoop(conn *websocket.Conn) {
	deadline := s.opts.PingInterval*2 + 10*time.Second

	conn.SetReadDeadline(time.Now().Add(deadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !s.closed() {
				s.logger.Debug("event channel read failed", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(deadline))

		var event domain.AdminEvent
		if err := json.Unmarshal(message, &event); err != nil {
			s.logger.Debug("discarding malformed event", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		s.dispatch(&event)
	}
}

// pingLoop は接続中、定期的にキープアライブを送信する.
func (s *Subscriber) pingLoop(conn *websocket.Conn, readDone chan struct{}) {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(5*time.Second),
			)
			if err != nil {
				return
			}
		case <-readDone:
			return
		case <-s.done:
			return
		}
	}
}

// dispatch はイベントを登録済みコールバックへ配送する.
func (s *Subscriber) dispatch(event *domain.AdminEvent) {
	s.metrics.RecordEvent()

	s.mu.Lock()
	s.lastEvent = event
	handlers := append([]domain.EventHandler(nil), s.handlers[event.Type]...)
	handlers = append(handlers, s.anyHandlers...)
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// backoffDelay はn回目の試行の待機時間を返す.
func (s *Subscriber) backoffDelay(attempt int) time.Duration {
	delay := s.opts.BaseBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= s.opts.MaxBackoff {
			return s.opts.MaxBackoff
		}
	}
	if delay > s.opts.MaxBackoff {
		return s.opts.MaxBackoff
	}
	return delay
}

// sleep はdoneを監視しながら待機する. 中断されたらfalseを返す.
func (s *Subscriber) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-s.done:
		return false
	}
}

// closed はCloseが呼ばれたかどうかを返す.
func (s *Subscriber) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
