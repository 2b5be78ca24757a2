package session

import (
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/realtime"
	"github.com/desertthunder/roomsync/internal/shared"
)

// Lifecycle keeps at most one push channel binding.
type Lifecycle struct {
	channel realtime.Channel
	logger  *log.Logger

	mu     sync.Mutex
	roomID string
	bound  bool
}

func NewLifecycle(channel realtime.Channel, logger *log.Logger) *Lifecycle {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Lifecycle{channel: channel, logger: shared.WithLogger(logger, "component", "lifecycle")}
}

// Bind closes any existing binding, synchronously, then opens the channel for roomID.
func (l *Lifecycle) Bind(roomID string, handlers realtime.Handlers) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.bound {
		l.logger.Info("closing previous binding", "room", l.roomID, "next", roomID)
		if err := l.channel.Close(); err != nil {
			l.logger.Warn("failed to close push channel", "error", err)
		}
		l.bound, l.roomID = false, ""
	}

	if err := l.channel.Open(roomID, handlers); err != nil {
		return err
	}
	l.bound, l.roomID = true, roomID
	l.logger.Info("push channel bound", "room", roomID)
	return nil
}

// Unbind closes the current binding, if any.
func (l *Lifecycle) Unbind() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.bound {
		return
	}
	if err := l.channel.Close(); err != nil {
		l.logger.Warn("failed to close push channel", "error", err)
	}
	l.logger.Info("push channel unbound", "room", l.roomID)
	l.bound, l.roomID = false, ""
}

func (l *Lifecycle) RoomID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.roomID
}

func (l *Lifecycle) Bound() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bound
}

// Connected reports whether the bound channel's transport is open.
func (l *Lifecycle) Connected() bool {
	l.mu.Lock()
	bound := l.bound
	l.mu.Unlock()
	return bound && l.channel.Connected()
}

// Reconnect re-arms the bound channel after it gave up.
func (l *Lifecycle) Reconnect() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.bound {
		return shared.ErrNoActiveRoom
	}
	return l.channel.Reconnect()
}
