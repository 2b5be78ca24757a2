package ui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/session"
)

type fakeSession struct {
	mu           sync.Mutex
	state        session.State
	changes      chan struct{}
	calls        []string
	reconnectErr error
	result       models.Result
}

func newFakeSession(state session.State) *fakeSession {
	return &fakeSession{state: state, changes: make(chan struct{}, 1), result: models.OK()}
}

func (f *fakeSession) Snapshot() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Subscribe() (<-chan struct{}, func()) {
	var once sync.Once
	return f.changes, func() { once.Do(func() { close(f.changes) }) }
}

func (f *fakeSession) VoteTrack(ctx context.Context, id string, v models.Vote) models.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "vote:"+id+":"+string(v))
	return f.result
}

func (f *fakeSession) RemoveTrack(ctx context.Context, id string) models.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "remove:"+id)
	return f.result
}

func (f *fakeSession) Reconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "reconnect")
	return f.reconnectErr
}

func (f *fakeSession) set(state session.State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
	f.changes <- struct{}{}
}

func roomState() session.State {
	alice := models.User{ID: "u1", Name: "Alice"}
	queue := []models.QueueItem{
		{ID: "q1", Track: models.Track{ID: "t1", Name: "Song 1", Artist: "Artist 1", Duration: 180}, Votes: 2, AddedBy: &alice, AddedAt: "2024-05-01T10:00:00Z"},
		{ID: "q2", Track: models.Track{ID: "t2", Name: "Song 2", Artist: "Artist 2", Duration: 200}},
	}
	return session.State{
		Room:         &models.Room{ID: "room1", Name: "Friday Mix"},
		Queue:        queue,
		Participants: []models.User{alice, {ID: "u2", Name: "Bob"}},
		Connected:    true,
	}
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestModel(t *testing.T, sess *fakeSession) *Model {
	t.Helper()
	m := NewModel(context.Background(), sess)
	m.now = func() time.Time { return time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC) }
	m.refresh()
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	t.Cleanup(m.Close)
	return m
}

func TestModel(t *testing.T) {
	t.Run("renders room state", func(t *testing.T) {
		m := newTestModel(t, newFakeSession(roomState()))
		view := m.View()

		for _, want := range []string{"Friday Mix", "2 listening: Alice, Bob", "Nothing playing", "Artist 1 - Song 1", "+2 votes", "added by Alice", "5 minutes ago"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("renders offline and playing", func(t *testing.T) {
		state := roomState()
		state.Connected = false
		state.Playing = true
		state.CurrentTrack = &state.Queue[0]
		m := newTestModel(t, newFakeSession(state))
		view := m.View()

		if !strings.Contains(view, "offline") {
			t.Errorf("expected offline indicator:\n%s", view)
		}
		if !strings.Contains(view, "▶ Artist 1 - Song 1") {
			t.Errorf("expected playing track:\n%s", view)
		}
	})

	t.Run("empty queue", func(t *testing.T) {
		state := roomState()
		state.Queue = nil
		m := newTestModel(t, newFakeSession(state))

		if !strings.Contains(m.View(), "The queue is empty.") {
			t.Error("expected empty queue message")
		}
		if cmd := m.vote(models.VoteUp); cmd != nil {
			t.Error("voting with no selection should do nothing")
		}
	})

	t.Run("vote issues a command without touching the queue", func(t *testing.T) {
		sess := newFakeSession(roomState())
		m := newTestModel(t, sess)

		_, cmd := m.Update(keyPress("+"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		msg := cmd()
		m.Update(msg)

		if len(sess.calls) != 1 || sess.calls[0] != "vote:q1:up" {
			t.Errorf("unexpected calls: %v", sess.calls)
		}
		if m.state.Queue[0].Votes != 2 {
			t.Error("queue must not change until a push event arrives")
		}
		if !m.statusOK || !strings.Contains(m.status, "vote up") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("downvote and remove follow the cursor", func(t *testing.T) {
		sess := newFakeSession(roomState())
		m := newTestModel(t, sess)

		m.Update(keyPress("j"))
		_, cmd := m.Update(keyPress("-"))
		cmd()
		_, cmd = m.Update(keyPress("d"))
		cmd()

		want := []string{"vote:q2:down", "remove:q2"}
		if strings.Join(sess.calls, ",") != strings.Join(want, ",") {
			t.Errorf("expected %v, got %v", want, sess.calls)
		}
	})

	t.Run("failed command shows the error", func(t *testing.T) {
		sess := newFakeSession(roomState())
		sess.result = models.Fail(errors.New("forbidden"))
		m := newTestModel(t, sess)

		_, cmd := m.Update(keyPress("d"))
		m.Update(cmd())

		if m.statusOK || !strings.Contains(m.View(), "remove Song 1 failed: forbidden") {
			t.Errorf("expected failure status, got %q", m.status)
		}
	})

	t.Run("state change redraws and keeps the selection", func(t *testing.T) {
		sess := newFakeSession(roomState())
		m := newTestModel(t, sess)
		m.Update(keyPress("j"))

		next := roomState()
		next.Queue = append([]models.QueueItem{{ID: "q0", Track: models.Track{ID: "t0", Name: "Fresh"}}}, next.Queue...)
		sess.set(next)

		msg := m.waitForChange()()
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Error("expected to keep listening for changes")
		}

		if len(m.state.Queue) != 3 {
			t.Fatalf("expected 3 items, got %d", len(m.state.Queue))
		}
		if item, _ := m.selected(); item.ID != "q2" {
			t.Errorf("expected cursor to stay on q2, got %s", item.ID)
		}
	})

	t.Run("closed subscription stops listening", func(t *testing.T) {
		m := newTestModel(t, newFakeSession(roomState()))
		m.Close()

		msg := m.waitForChange()()
		if got, ok := msg.(Msg); !ok || got.kind != MsgSubscriptionClosed {
			t.Fatalf("expected subscription closed, got %#v", msg)
		}
		if _, cmd := m.Update(msg); cmd != nil {
			t.Error("expected no follow-up command")
		}
	})

	t.Run("reconnect", func(t *testing.T) {
		sess := newFakeSession(roomState())
		sess.reconnectErr = errors.New("push channel closed")
		m := newTestModel(t, sess)

		_, cmd := m.Update(keyPress("r"))
		m.Update(cmd())

		if len(sess.calls) != 1 || sess.calls[0] != "reconnect" {
			t.Errorf("unexpected calls: %v", sess.calls)
		}
		if m.statusOK || !strings.Contains(m.status, "reconnect failed") {
			t.Errorf("unexpected status %q", m.status)
		}
	})

	t.Run("help toggle and quit", func(t *testing.T) {
		m := newTestModel(t, newFakeSession(roomState()))

		m.Update(keyPress("?"))
		if !m.help.ShowAll {
			t.Error("expected full help")
		}

		_, cmd := m.Update(keyPress("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}
