package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/session"
)

const refreshInterval = 2 * time.Second

// RoomSession is the part of [session.Session] the view drives.
type RoomSession interface {
	Snapshot() session.State
	Subscribe() (<-chan struct{}, func())
	VoteTrack(ctx context.Context, queueItemID string, vote models.Vote) models.Result
	RemoveTrack(ctx context.Context, queueItemID string) models.Result
	Reconnect() error
}

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	session  RoomSession
	changes  <-chan struct{}
	stop     func()
	state    session.State
	queue    list.Model
	help     help.Model
	keys     keyMap
	status   string
	statusOK bool
	width    int
	height   int
	now      func() time.Time
}

// NewModel creates a view over sess and subscribes to its changes. Call [Model.Close] when the program exits.
func NewModel(ctx context.Context, sess RoomSession) *Model {
	changes, stop := sess.Subscribe()

	queue := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Queue"
	queue.SetShowHelp(false)
	queue.SetFilteringEnabled(false)

	m := &Model{
		ctx:     ctx,
		session: sess,
		changes: changes,
		stop:    stop,
		queue:   queue,
		help:    help.New(),
		keys:    newKeyMap(),
		now:     time.Now,
	}
	m.refresh()
	return m
}

// Close unsubscribes from the session.
func (m *Model) Close() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// Init starts listening for session changes and the periodic refresh.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.queue.SetSize(max(msg.Width-4, 20), max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgStateChanged:
			m.refresh()
			return m, m.waitForChange()
		case MsgSubscriptionClosed:
			return m, nil
		case MsgCommandDone:
			done := msg.data.(commandDone)
			m.setStatus(done.action, done.result)
			return m, nil
		case MsgReconnected:
			if err, _ := msg.data.(error); err != nil {
				m.status, m.statusOK = fmt.Sprintf("reconnect failed: %v", err), false
			} else {
				m.status, m.statusOK = "reconnecting...", true
			}
			m.refresh()
			return m, nil
		case MsgTick:
			m.refresh()
			return m, tick()
		}
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.voteUp):
		return m, m.vote(models.VoteUp)
	case key.Matches(msg, m.keys.voteDown):
		return m, m.vote(models.VoteDown)
	case key.Matches(msg, m.keys.remove):
		return m, m.remove()
	case key.Matches(msg, m.keys.reconnect):
		return m, m.reconnect()
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

// View renders the room.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n\n")

	if len(m.state.Queue) == 0 {
		b.WriteString(styles.help.Render("The queue is empty."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.queue.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		style := styles.err
		if m.statusOK {
			style = styles.ok
		}
		b.WriteString("\n")
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderHeader() string {
	name := "(no room)"
	if m.state.Room != nil {
		name = m.state.Room.Name
		if name == "" {
			name = m.state.Room.ID
		}
	}

	conn := styles.ok.Render("● live")
	if !m.state.Connected {
		conn = styles.warn.Render("○ offline (r to reconnect)")
	}
	if m.state.Loading {
		conn = styles.warn.Render("… loading")
	}

	title := styles.title.Render(name) + "  " + conn
	people := make([]string, len(m.state.Participants))
	for i, p := range m.state.Participants {
		people[i] = p.Name
	}
	line := fmt.Sprintf("%d listening: %s", len(people), strings.Join(people, ", "))

	if m.state.Error != "" {
		line += "\n" + styles.err.Render(m.state.Error)
	}
	return title + "\n" + styles.help.Render(line)
}

func (m *Model) renderNowPlaying() string {
	cur := m.state.CurrentTrack
	if cur == nil {
		return styles.pane.Render("Nothing playing")
	}
	icon := "❚❚"
	if m.state.Playing {
		icon = "▶"
	}
	return styles.pane.Render(fmt.Sprintf("%s %s - %s", icon, cur.Track.Artist, cur.Track.Name))
}

// refresh copies session state into the view, keeping the cursor on the same queue item when possible.
func (m *Model) refresh() {
	m.state = m.session.Snapshot()

	selected := ""
	if it, ok := m.queue.SelectedItem().(queueItem); ok {
		selected = it.item.ID
	}

	m.queue.SetItems(queueItems(m.state.Queue, m.now()))
	for i, q := range m.state.Queue {
		if q.ID == selected {
			m.queue.Select(i)
			break
		}
	}
}

func (m *Model) selected() (models.QueueItem, bool) {
	it, ok := m.queue.SelectedItem().(queueItem)
	if !ok {
		return models.QueueItem{}, false
	}
	return it.item, true
}

func (m *Model) setStatus(action string, r models.Result) {
	if r.Success {
		m.status, m.statusOK = action, true
		return
	}
	m.status, m.statusOK = fmt.Sprintf("%s failed: %s", action, r.Error), false
}

func (m *Model) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return subscriptionClosedMsg()
		}
		return stateChangedMsg()
	}
}

func (m *Model) vote(v models.Vote) tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	ctx, sess := m.ctx, m.session
	action := fmt.Sprintf("vote %s on %s", v, item.Track.Name)
	return func() tea.Msg {
		return commandDoneMsg(action, sess.VoteTrack(ctx, item.ID, v))
	}
}

func (m *Model) remove() tea.Cmd {
	item, ok := m.selected()
	if !ok {
		return nil
	}
	ctx, sess := m.ctx, m.session
	action := fmt.Sprintf("remove %s", item.Track.Name)
	return func() tea.Msg {
		return commandDoneMsg(action, sess.RemoveTrack(ctx, item.ID))
	}
}

func (m *Model) reconnect() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return reconnectedMsg(sess.Reconnect())
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg()
	})
}
