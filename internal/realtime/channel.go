package realtime

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/shared"
)

// Channel is a room-scoped push stream.
//
// Open on an already open channel is a no-op; the session lifecycle controller keeps at most one open.
// Close cancels any pending reconnect and is safe to call repeatedly.
type Channel interface {
	Open(roomID string, handlers Handlers) error
	Close() error
	Connected() bool
	Reconnect() error
}

// Sender is implemented by transports that can write to the server.
type Sender interface {
	Send(v any) error
}

// Timer is the subset of [time.Timer] reconnect scheduling needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. It matches [time.AfterFunc] so tests can substitute a fake clock.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfter(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func discardLogger(l *log.Logger) *log.Logger {
	if l == nil {
		return shared.NewLogger(io.Discard)
	}
	return l
}

// New builds the transport selected by cfg.Transport.
func New(cfg shared.RealtimeConfig, httpClient *http.Client, logger *log.Logger) (Channel, error) {
	switch cfg.Transport {
	case shared.TransportEventStream, "":
		return NewEventStream(EventStreamOpts{
			HubURL:     cfg.EventStreamURL,
			HTTPClient: httpClient,
			Retry:      cfg.Retry(),
			Logger:     logger,
		}), nil
	case shared.TransportSocket:
		return NewSocket(SocketOpts{
			BaseURL: cfg.SocketURL,
			Backoff: Backoff{Base: cfg.BaseDelay(), Max: cfg.MaxDelay(), MaxAttempts: cfg.MaxAttempts},
			Logger:  logger,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown realtime transport %q", shared.ErrInvalidConfig, cfg.Transport)
	}
}
