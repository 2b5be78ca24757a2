package realtime

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// DialFunc opens a websocket connection.
type DialFunc func(ctx context.Context, url string) (*websocket.Conn, error)

// SocketOpts configures a [Socket].
type SocketOpts struct {
	BaseURL string // e.g. ws://localhost:8000
	Backoff Backoff
	Header  http.Header
	Dial    DialFunc
	After   AfterFunc
	Logger  *log.Logger
}

// Socket is the bidirectional push channel transport.
type Socket struct {
	baseURL string
	backoff Backoff
	dial    DialFunc
	after   AfterFunc
	logger  *log.Logger

	mu       sync.Mutex
	writeMu  sync.Mutex
	active   bool
	gen      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	roomID   string
	handlers Handlers
	conn     *websocket.Conn
	attempts int
	timer    Timer
}

// NewSocket creates a closed socket channel.
func NewSocket(opts SocketOpts) *Socket {
	backoff := opts.Backoff
	if backoff.MaxAttempts <= 0 || backoff.Base <= 0 {
		backoff = DefaultBackoff()
	}

	dial := opts.Dial
	if dial == nil {
		header := opts.Header
		dial = func(ctx context.Context, u string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, header)
			return conn, err
		}
	}

	after := opts.After
	if after == nil {
		after = realAfter
	}

	return &Socket{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		backoff: backoff,
		dial:    dial,
		after:   after,
		logger:  shared.WithLogger(discardLogger(opts.Logger), "component", "socket"),
	}
}

// URL returns the endpoint for roomID.
func (s *Socket) URL(roomID string) string {
	return s.baseURL + "/ws/room/" + url.PathEscape(roomID)
}

// Open dials the room endpoint. A failed first dial is retried in the background like any other close.
func (s *Socket) Open(roomID string, handlers Handlers) error {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Debug("open ignored, already open", "room", s.roomID)
		return nil
	}
	s.active = true
	s.gen++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.roomID = roomID
	s.handlers = handlers
	s.attempts = 0
	gen := s.gen
	s.mu.Unlock()

	s.connect(gen)
	return nil
}

// Close stops the read loop, cancels any pending reconnect and closes the connection.
func (s *Socket) Close() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
	conn := s.conn
	s.conn = nil
	roomID := s.roomID
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(time.Second)
		conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
	s.logger.Info("socket closed", "room", roomID)
	return nil
}

func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Reconnect re-arms a channel that gave up after the attempt cap. It resets the attempt counter.
func (s *Socket) Reconnect() error {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return shared.ErrChannelClosed
	}
	if s.conn != nil {
		s.mu.Unlock()
		return nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.attempts = 0
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.connect(gen)
	return nil
}

// Send writes v as a JSON text frame. It fails locally with [shared.ErrNotConnected] when no connection is open.
func (s *Socket) Send(v any) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		s.logger.Warn("socket is not connected, message dropped")
		return shared.ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// current reports whether gen still identifies the live binding. Callers hold s.mu.
func (s *Socket) current(gen uint64) bool {
	return s.active && s.gen == gen
}

func (s *Socket) connect(gen uint64) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	ctx, u, attempts := s.ctx, s.URL(s.roomID), s.attempts
	s.mu.Unlock()

	if attempts > 0 {
		s.logger.Info("attempting to reconnect", "attempt", attempts, "max", s.backoff.MaxAttempts)
	}

	conn, err := s.dial(ctx, u)
	if err != nil {
		s.logger.Warn("socket dial failed", "url", u, "error", err)
		s.scheduleReconnect(gen)
		return
	}

	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.conn = conn
	s.attempts = 0
	handlers := s.handlers
	s.mu.Unlock()

	s.logger.Info("socket connected", "url", u)
	go s.readLoop(gen, conn, handlers)
}

func (s *Socket) readLoop(gen uint64, conn *websocket.Conn, handlers Handlers) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		s.scheduleReconnect(gen)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			live := s.current(gen)
			s.mu.Unlock()
			if live {
				s.logger.Info("socket disconnected", "error", err)
			}
			return
		}

		s.mu.Lock()
		live := s.current(gen)
		s.mu.Unlock()
		if !live {
			return
		}
		handleFrame(s.logger, handlers, data)
	}
}

// scheduleReconnect arms the next attempt, or gives up once the backoff is exhausted.
func (s *Socket) scheduleReconnect(gen uint64) {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return
	}
	if s.backoff.Exhausted(s.attempts) {
		s.mu.Unlock()
		s.logger.Error("max reconnection attempts reached", "attempts", s.backoff.MaxAttempts)
		return
	}
	s.attempts++
	delay := s.backoff.Delay(s.attempts)
	s.mu.Unlock()

	s.logger.Info("scheduling reconnect", "delay", delay)
	t := s.after(delay, func() { s.connect(gen) })

	s.mu.Lock()
	if s.current(gen) {
		s.timer = t
	} else {
		t.Stop()
	}
	s.mu.Unlock()
}
