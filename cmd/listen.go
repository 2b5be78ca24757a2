package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/session"
	"github.com/desertthunder/roomsync/internal/shared"
)

const leaveTimeout = 5 * time.Second

// lockSession takes the single live-session lock so two processes never hold one push channel each for the same profile.
func (r *Runner) lockSession() (func(), error) {
	path := r.config.Session.LockPath
	if path == "" {
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", shared.ErrSessionLocked, path)
	}

	return func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release session lock", "error", err)
		}
	}, nil
}

// joinRoom takes the session lock and joins id. The returned func leaves the room and releases the lock.
func (r *Runner) joinRoom(ctx context.Context, id string) (func(), error) {
	unlock, err := r.lockSession()
	if err != nil {
		return nil, err
	}

	r.auth.FetchUser(ctx)
	res := r.session.Join(ctx, id)
	if !res.Success {
		unlock()
		return nil, resultErr("join room", res)
	}
	r.cacheQueue(res.Room.Queue)

	return func() {
		leaveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaveTimeout)
		defer cancel()
		r.session.Leave(leaveCtx)
		unlock()
	}, nil
}

// listenState is the JSON line written on every change.
type listenState struct {
	Time  time.Time     `json:"time"`
	State session.State `json:"state"`
}

// RoomListen joins a room and writes its reconciled state on every change until interrupted, then leaves.
func (r *Runner) RoomListen(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	changes, unsubscribe := r.session.Subscribe()
	defer unsubscribe()

	leave, err := r.joinRoom(ctx, id)
	if err != nil {
		return err
	}
	defer leave()

	asJSON := cmd.Bool("json") || !r.isTerminal()
	r.logger.Info("listening", "room", id, "json", asJSON)

	var last string
	for {
		state := r.session.Snapshot()
		if asJSON {
			if err := r.writeJSON(listenState{Time: time.Now().UTC(), State: state}, false); err != nil {
				return err
			}
		} else if line := summarize(state); line != last {
			r.writePlain("%s %s\n", time.Now().Format(time.TimeOnly), line)
			last = line
		}

		select {
		case <-ctx.Done():
			r.logger.Info("interrupted, leaving room", "room", id)
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		}
	}
}

// summarize renders a one-line description of state for terminal output.
func summarize(st session.State) string {
	status := "○ offline"
	if st.Connected {
		status = "● live"
	}

	name := "-"
	if st.Room != nil {
		name = st.Room.Name
	}

	line := fmt.Sprintf("%s | %s | %d listening | %d queued", status, name, len(st.Participants), len(st.Queue))
	if st.CurrentTrack != nil {
		t := st.CurrentTrack.Track
		verb := "paused"
		if st.Playing {
			verb = "playing"
		}
		line += fmt.Sprintf(" | %s %s - %s", verb, t.Artist, t.Name)
	}
	if len(st.Queue) > 0 {
		next := st.Queue[0]
		line += fmt.Sprintf(" | next %s (%+d)", next.Track.Name, next.Votes)
	}
	if st.Error != "" {
		line += " | error: " + st.Error
	}
	return line
}
