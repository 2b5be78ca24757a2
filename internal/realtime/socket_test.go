package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/gorilla/websocket"
)

type fakeTimer struct{ stopped atomic.Bool }

func (f *fakeTimer) Stop() bool { return !f.stopped.Swap(true) }

// fakeClock records requested delays. When fire is set, callbacks run immediately.
type fakeClock struct {
	mu      sync.Mutex
	delays  []time.Duration
	pending []func()
	timers  []*fakeTimer
	fire    bool
}

func (c *fakeClock) After(d time.Duration, f func()) Timer {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	t := &fakeTimer{}
	c.timers = append(c.timers, t)
	fire := c.fire
	if !fire {
		c.pending = append(c.pending, f)
	}
	c.mu.Unlock()

	if fire {
		f()
	}
	return t
}

func (c *fakeClock) Delays() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.delays...)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestSocket(t *testing.T) {
	upgrader := websocket.Upgrader{}

	t.Run("Delivers Frames And Drops Bad Ones", func(t *testing.T) {
		received := make(chan string, 1)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/ws/room/r1" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()

			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"track_added","track":{"id":"q1","track":{"id":"t1"}}}`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{{{`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`))
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"vote_update","trackId":"q1","votes":3}`))

			_, msg, err := conn.ReadMessage()
			if err == nil {
				received <- string(msg)
			}
			conn.ReadMessage()
		}))
		defer server.Close()

		events := make(chan string, 8)
		s := NewSocket(SocketOpts{BaseURL: wsURL(server)})
		err := s.Open("r1", Handlers{
			OnTrackAdded: func(item models.QueueItem) { events <- "added:" + item.ID },
			OnVoteUpdate: func(id string, votes int) { events <- "vote:" + id },
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer s.Close()

		for _, want := range []string{"added:q1", "vote:q1"} {
			select {
			case got := <-events:
				if got != want {
					t.Errorf("expected %s, got %s", want, got)
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("timed out waiting for %s", want)
			}
		}

		if !s.Connected() {
			t.Error("expected socket to be connected")
		}
		if err := s.Send(map[string]string{"type": "ping"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		select {
		case msg := <-received:
			if msg != `{"type":"ping"}`+"\n" && msg != `{"type":"ping"}` {
				t.Errorf("unexpected message %q", msg)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("server did not receive message")
		}
	})

	t.Run("Open Twice Is A No-op", func(t *testing.T) {
		var dials atomic.Int32
		s := NewSocket(SocketOpts{
			BaseURL: "ws://example.invalid",
			Dial: func(ctx context.Context, u string) (*websocket.Conn, error) {
				dials.Add(1)
				return nil, errors.New("refused")
			},
			After: (&fakeClock{}).After,
		})
		s.Open("r1", Handlers{})
		s.Open("r2", Handlers{})
		defer s.Close()

		if dials.Load() != 1 {
			t.Errorf("expected one dial, got %d", dials.Load())
		}
	})

	t.Run("Backoff Then Permanent Closure", func(t *testing.T) {
		var (
			mu   sync.Mutex
			urls []string
		)
		clock := &fakeClock{fire: true}
		s := NewSocket(SocketOpts{
			BaseURL: "ws://example.invalid",
			Dial: func(ctx context.Context, u string) (*websocket.Conn, error) {
				mu.Lock()
				urls = append(urls, u)
				mu.Unlock()
				return nil, errors.New("connection refused")
			},
			After: clock.After,
		})
		defer s.Close()

		s.Open("r1", Handlers{})

		if len(urls) != 6 {
			t.Fatalf("expected 1 dial plus 5 retries, got %d", len(urls))
		}
		want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}
		got := clock.Delays()
		if len(got) != len(want) {
			t.Fatalf("expected delays %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("delay %d = %v, want %v", i+1, got[i], want[i])
			}
		}
		if s.Connected() {
			t.Error("exhausted socket should not report connected")
		}

		if err := s.Reconnect(); err != nil {
			t.Fatalf("Reconnect() error = %v", err)
		}
		if len(urls) != 12 {
			t.Errorf("expected manual reconnect to restart the attempt budget, got %d dials", len(urls))
		}
	})

	t.Run("Close Cancels Pending Reconnect", func(t *testing.T) {
		var dials atomic.Int32
		clock := &fakeClock{}
		s := NewSocket(SocketOpts{
			BaseURL: "ws://example.invalid",
			Dial: func(ctx context.Context, u string) (*websocket.Conn, error) {
				dials.Add(1)
				return nil, errors.New("refused")
			},
			After: clock.After,
		})

		s.Open("r1", Handlers{})
		s.Close()
		s.Close()

		if len(clock.timers) != 1 || !clock.timers[0].stopped.Load() {
			t.Fatal("expected the pending reconnect timer to be stopped")
		}

		clock.pending[0]()
		if dials.Load() != 1 {
			t.Errorf("stale reconnect should not dial, got %d dials", dials.Load())
		}
		if err := s.Reconnect(); !errors.Is(err, shared.ErrChannelClosed) {
			t.Errorf("expected ErrChannelClosed, got %v", err)
		}
	})

	t.Run("Reconnects After Server Close And Resets Attempts", func(t *testing.T) {
		var conns atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			if conns.Add(1) == 1 {
				return
			}
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"playback_state_changed","playing":true}`))
			conn.ReadMessage()
		}))
		defer server.Close()

		playing := make(chan bool, 1)
		clock := &fakeClock{fire: true}
		s := NewSocket(SocketOpts{BaseURL: wsURL(server), After: clock.After})
		s.Open("r1", Handlers{OnPlaybackStateChanged: func(p bool) { playing <- p }})
		defer s.Close()

		select {
		case p := <-playing:
			if !p {
				t.Error("expected playing=true")
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no event after reconnect")
		}

		if got := clock.Delays(); len(got) != 1 || got[0] != time.Second {
			t.Errorf("expected a single 1s reconnect delay, got %v", got)
		}
		waitFor(t, "attempts reset", func() bool {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.attempts == 0 && s.conn != nil
		})
	})

	t.Run("Send While Closed", func(t *testing.T) {
		s := NewSocket(SocketOpts{BaseURL: "ws://example.invalid"})
		if err := s.Send("hello"); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("No Handlers After Close", func(t *testing.T) {
		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			<-release
			conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"participant_left","userId":"u1"}`))
		}))
		defer server.Close()
		defer close(release)

		var calls atomic.Int32
		s := NewSocket(SocketOpts{BaseURL: wsURL(server), After: (&fakeClock{}).After})
		s.Open("r1", Handlers{OnParticipantLeft: func(string) { calls.Add(1) }})
		waitFor(t, "connect", s.Connected)
		s.Close()

		if s.Connected() {
			t.Error("expected disconnected after Close")
		}
		if calls.Load() != 0 {
			t.Error("handler ran after Close")
		}
	})
}
