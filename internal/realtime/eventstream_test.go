package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

func flushWrite(w http.ResponseWriter, s string) {
	fmt.Fprint(w, s)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func expectEvent(t *testing.T, events <-chan string, want string) {
	t.Helper()
	select {
	case got := <-events:
		if got != want {
			t.Errorf("expected %s, got %s", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", want)
	}
}

func TestEventStream(t *testing.T) {
	t.Run("URL", func(t *testing.T) {
		e := NewEventStream(EventStreamOpts{HubURL: "http://hub.test/.well-known/mercure"})
		if got := e.URL("r1"); got != "http://hub.test/.well-known/mercure?topic=rooms%2Fr1" {
			t.Errorf("unexpected URL %s", got)
		}

		e = NewEventStream(EventStreamOpts{HubURL: "http://hub.test/sub?jwt=abc"})
		if got := e.URL("r1"); got != "http://hub.test/sub?jwt=abc&topic=rooms%2Fr1" {
			t.Errorf("unexpected URL %s", got)
		}
	})

	t.Run("Parses Stream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("topic"); got != "rooms/r1" {
				t.Errorf("expected topic rooms/r1, got %s", got)
			}
			if got := r.Header.Get("Accept"); got != "text/event-stream" {
				t.Errorf("expected event-stream accept header, got %s", got)
			}
			w.Header().Set("Content-Type", "text/event-stream")
			flushWrite(w, ": keepalive\n\n")
			flushWrite(w, "data: {\"type\":\"track_added\",\"track\":{\"id\":\"q1\",\"track\":{\"id\":\"t1\"}}}\n\n")
			flushWrite(w, "data: not json\n\n")
			flushWrite(w, "event: ping\ndata: {\"type\":\"track_removed\",\"trackId\":\"ignored\"}\n\n")
			flushWrite(w, "data: {\"type\":\"vote_update\",\n")
			flushWrite(w, "data: \"trackId\":\"q1\",\"votes\":3}\n\n")
			flushWrite(w, "data:{\"type\":\"participant_left\",\"userId\":\"u1\"}\n\n")
			<-r.Context().Done()
		}))
		defer server.Close()

		events := make(chan string, 8)
		e := NewEventStream(EventStreamOpts{HubURL: server.URL})
		e.Open("r1", Handlers{
			OnTrackAdded:      func(item models.QueueItem) { events <- "added:" + item.ID },
			OnTrackRemoved:    func(id string) { events <- "removed:" + id },
			OnVoteUpdate:      func(id string, votes int) { events <- fmt.Sprintf("vote:%s:%d", id, votes) },
			OnParticipantLeft: func(id string) { events <- "left:" + id },
		})

		expectEvent(t, events, "added:q1")
		expectEvent(t, events, "vote:q1:3")
		expectEvent(t, events, "left:u1")

		if !e.Connected() {
			t.Error("expected connected")
		}
		e.Close()
		if e.Connected() {
			t.Error("expected disconnected after Close")
		}
	})

	t.Run("Reconnects With Server Retry And Last Event ID", func(t *testing.T) {
		var (
			conns   atomic.Int32
			mu      sync.Mutex
			lastIDs []string
			delays  []time.Duration
		)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			lastIDs = append(lastIDs, r.Header.Get("Last-Event-ID"))
			mu.Unlock()

			switch conns.Add(1) {
			case 1:
				w.WriteHeader(http.StatusServiceUnavailable)
			case 2:
				flushWrite(w, "retry: 250\nid: 7\ndata: {\"type\":\"playback_state_changed\",\"playing\":true}\n\n")
			default:
				flushWrite(w, "data: {\"type\":\"playback_state_changed\",\"playing\":false}\n\n")
				<-r.Context().Done()
			}
		}))
		defer server.Close()

		events := make(chan string, 8)
		e := NewEventStream(EventStreamOpts{
			HubURL: server.URL,
			Sleep: func(ctx context.Context, d time.Duration) error {
				mu.Lock()
				delays = append(delays, d)
				mu.Unlock()
				return ctx.Err()
			},
		})
		e.Open("r1", Handlers{OnPlaybackStateChanged: func(p bool) { events <- fmt.Sprint(p) }})
		defer e.Close()

		expectEvent(t, events, "true")
		expectEvent(t, events, "false")

		mu.Lock()
		defer mu.Unlock()
		if len(delays) != 2 || delays[0] != defaultRetry || delays[1] != 250*time.Millisecond {
			t.Errorf("unexpected retry delays %v", delays)
		}
		if len(lastIDs) != 3 || lastIDs[2] != "7" {
			t.Errorf("expected Last-Event-ID on reconnect, got %q", lastIDs)
		}
	})

	t.Run("Close During Retry Wait", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		e := NewEventStream(EventStreamOpts{HubURL: server.URL, Retry: time.Hour})
		e.Open("r1", Handlers{})

		done := make(chan struct{})
		go func() {
			e.Close()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("Close did not interrupt the retry wait")
		}

		if err := e.Reconnect(); !errors.Is(err, shared.ErrChannelClosed) {
			t.Errorf("expected ErrChannelClosed, got %v", err)
		}
	})

	t.Run("Manual Reconnect Skips Wait", func(t *testing.T) {
		var conns atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if conns.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			flushWrite(w, ": ok\n\n")
			<-r.Context().Done()
		}))
		defer server.Close()

		e := NewEventStream(EventStreamOpts{HubURL: server.URL, Retry: time.Hour})
		e.Open("r1", Handlers{})
		defer e.Close()

		waitFor(t, "first attempt", func() bool { return conns.Load() == 1 })
		if err := e.Reconnect(); err != nil {
			t.Fatalf("Reconnect() error = %v", err)
		}
		waitFor(t, "reconnected", e.Connected)
	})
}
