package session

import (
	"context"
	"encoding/json"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

// API is the part of the command client the room session drives.
type API interface {
	ListRooms(ctx context.Context) ([]json.RawMessage, error)
	CreateRoom(ctx context.Context, name string, isPublic *bool) (json.RawMessage, error)
	GetRoom(ctx context.Context, roomID string) (json.RawMessage, error)
	JoinRoom(ctx context.Context, roomID string) (json.RawMessage, error)
	LeaveRoom(ctx context.Context, roomID string) error
	DeleteRoom(ctx context.Context, roomID string) error
	Queue(ctx context.Context, roomID string) ([]models.QueueItem, error)
	AddTrack(ctx context.Context, roomID, trackID string) (*models.QueueItem, error)
	RemoveTrack(ctx context.Context, roomID, queueItemID string) error
	VoteTrack(ctx context.Context, roomID, queueItemID string, vote models.Vote) error
	SearchTracks(ctx context.Context, query string) ([]models.Track, error)
	GetTrack(ctx context.Context, trackID string) (*models.Track, error)
	CreateTrack(ctx context.Context, input models.TrackInput) (*models.Track, error)
}

// UserSource supplies the signed-in user for the optimistic participant append on join.
type UserSource interface {
	User() *models.User
}

// State is a copy of the session's room state.
type State struct {
	Room         *models.Room       `json:"room"`
	Queue        []models.QueueItem `json:"queue"`
	Participants []models.User      `json:"participants"`
	CurrentTrack *models.QueueItem  `json:"currentTrack"`
	Playing      bool               `json:"isPlaying"`
	Loading      bool               `json:"loading"`
	Error        string             `json:"error,omitempty"`
	Connected    bool               `json:"connected"`
}

// Session is the room session. Create one per application with [New].
type Session struct {
	api       API
	lifecycle *Lifecycle
	users     UserSource
	logger    *log.Logger

	mu           sync.Mutex
	gen          uint64
	room         *models.Room
	queue        []models.QueueItem
	participants []models.User
	current      *models.QueueItem
	playing      bool
	loading      bool
	lastErr      string
	subs         map[int]chan struct{}
	nextSub      int
}

// New creates an empty session. users may be nil when nobody is signed in.
func New(api API, lifecycle *Lifecycle, users UserSource, logger *log.Logger) *Session {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Session{
		api:          api,
		lifecycle:    lifecycle,
		users:        users,
		logger:       shared.WithLogger(logger, "component", "session"),
		queue:        []models.QueueItem{},
		participants: []models.User{},
		subs:         make(map[int]chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	connected := s.lifecycle.Connected()

	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Queue:        slices.Clone(s.queue),
		Participants: slices.Clone(s.participants),
		Playing:      s.playing,
		Loading:      s.loading,
		Error:        s.lastErr,
		Connected:    connected,
	}
	if s.current != nil {
		cur := *s.current
		st.CurrentTrack = &cur
	}
	if s.room != nil {
		room := *s.room
		room.Queue, room.Participants, room.CurrentTrack = st.Queue, st.Participants, st.CurrentTrack
		st.Room = &room
	}
	return st
}

// RoomID returns the active room's ID, or "" when not joined.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ""
	}
	return s.room.ID
}

// Subscribe returns a channel that receives a signal after every state change, and a function to stop.
// Signals coalesce: a slow reader sees one pending signal, not one per change.
func (s *Session) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// notify signals subscribers. Callers hold s.mu.
func (s *Session) notify() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Session) setLoading() {
	s.mu.Lock()
	s.loading, s.lastErr = true, ""
	s.notify()
	s.mu.Unlock()
}

// done clears the loading flag and records err, if any.
func (s *Session) done(err error) {
	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
	}
	s.notify()
	s.mu.Unlock()
}

// Join joins roomID, replaces all session state with the normalized room and binds the push channel.
// On failure the previous state is left as it was.
func (s *Session) Join(ctx context.Context, roomID string) models.Result {
	s.setLoading()

	raw, err := s.api.JoinRoom(ctx, roomID)
	if err != nil {
		s.done(err)
		s.logger.Warn("join failed", "room", roomID, "error", err)
		return models.Fail(err)
	}

	room, err := NormalizeRoom(raw)
	if err != nil {
		s.done(err)
		return models.Fail(err)
	}
	if room.ID == "" {
		room.ID = roomID
	}

	participants := uniqueUsers(room.Participants)
	if len(participants) == 0 && room.Owner != nil {
		participants = []models.User{*room.Owner}
	}
	if s.users != nil {
		if me := s.users.User(); me != nil && indexUser(participants, me.ID) < 0 {
			participants = append(participants, *me)
		}
	}
	room.Participants = participants

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.room = &room
	s.queue = slices.Clone(room.Queue)
	s.participants = slices.Clone(participants)
	s.current = room.CurrentTrack
	s.playing = false
	s.loading = false
	s.notify()
	s.mu.Unlock()

	if err := s.lifecycle.Bind(room.ID, s.handlers(gen)); err != nil {
		s.logger.Error("failed to open push channel", "room", room.ID, "error", err)
		s.done(err)
	}

	s.logger.Info("joined room", "room", room.ID, "participants", len(participants), "queue", len(room.Queue))
	snapshot := room
	return models.Result{Success: true, Room: &snapshot}
}

// Leave leaves the active room. The backend call is best effort; the channel is closed and state cleared regardless.
func (s *Session) Leave(ctx context.Context) {
	if roomID := s.RoomID(); roomID != "" {
		if err := s.api.LeaveRoom(ctx, roomID); err != nil {
			s.logger.Warn("error leaving room", "room", roomID, "error", err)
		}
	}

	s.lifecycle.Unbind()

	s.mu.Lock()
	s.gen++
	s.room = nil
	s.queue = []models.QueueItem{}
	s.participants = []models.User{}
	s.current = nil
	s.playing = false
	s.loading = false
	s.lastErr = ""
	s.notify()
	s.mu.Unlock()
}

// activeRoom returns the joined room's ID or a failed result.
func (s *Session) activeRoom() (string, *models.Result) {
	roomID := s.RoomID()
	if roomID == "" {
		r := models.Fail(shared.ErrNoActiveRoom)
		return "", &r
	}
	return roomID, nil
}

// AddTrack queues trackID in the active room. The queue itself changes when track_added arrives.
func (s *Session) AddTrack(ctx context.Context, trackID string) models.Result {
	roomID, fail := s.activeRoom()
	if fail != nil {
		return *fail
	}
	item, err := s.api.AddTrack(ctx, roomID, trackID)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, QueueItem: item}
}

// RemoveTrack removes a queue item from the active room.
func (s *Session) RemoveTrack(ctx context.Context, queueItemID string) models.Result {
	roomID, fail := s.activeRoom()
	if fail != nil {
		return *fail
	}
	if err := s.api.RemoveTrack(ctx, roomID, queueItemID); err != nil {
		return models.Fail(err)
	}
	return models.OK()
}

// VoteTrack votes on a queue item in the active room.
func (s *Session) VoteTrack(ctx context.Context, queueItemID string, vote models.Vote) models.Result {
	roomID, fail := s.activeRoom()
	if fail != nil {
		return *fail
	}
	if err := s.api.VoteTrack(ctx, roomID, queueItemID, vote); err != nil {
		return models.Fail(err)
	}
	return models.OK()
}

// CreateManualTrack registers a track in the catalog. Session state is not touched.
func (s *Session) CreateManualTrack(ctx context.Context, input models.TrackInput) models.Result {
	track, err := s.api.CreateTrack(ctx, input)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, Track: track}
}

// ListRooms returns every room, normalized. Failures are logged and yield an empty list.
func (s *Session) ListRooms(ctx context.Context) []models.Room {
	raws, err := s.api.ListRooms(ctx)
	if err != nil {
		s.logger.Warn("failed to list rooms", "error", err)
		return []models.Room{}
	}

	rooms := make([]models.Room, 0, len(raws))
	for _, raw := range raws {
		room, err := NormalizeRoom(raw)
		if err != nil {
			s.logger.Warn("skipping unreadable room", "error", err)
			continue
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// CreateRoom creates a room without joining it.
func (s *Session) CreateRoom(ctx context.Context, name string, isPublic *bool) models.Result {
	s.setLoading()
	raw, err := s.api.CreateRoom(ctx, name, isPublic)
	if err == nil {
		var room models.Room
		if room, err = NormalizeRoom(raw); err == nil {
			s.done(nil)
			return models.Result{Success: true, Room: &room}
		}
	}
	s.done(err)
	return models.Fail(err)
}

// GetRoom fetches and normalizes one room.
func (s *Session) GetRoom(ctx context.Context, roomID string) models.Result {
	raw, err := s.api.GetRoom(ctx, roomID)
	if err != nil {
		return models.Fail(err)
	}
	room, err := NormalizeRoom(raw)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, Room: &room}
}

func (s *Session) DeleteRoom(ctx context.Context, roomID string) models.Result {
	if err := s.api.DeleteRoom(ctx, roomID); err != nil {
		return models.Fail(err)
	}
	return models.OK()
}

// Queue fetches the active room's queue from the backend without replacing local state.
func (s *Session) Queue(ctx context.Context) models.Result {
	roomID, fail := s.activeRoom()
	if fail != nil {
		return *fail
	}
	return s.QueueFor(ctx, roomID)
}

// QueueFor fetches any room's queue.
func (s *Session) QueueFor(ctx context.Context, roomID string) models.Result {
	items, err := s.api.Queue(ctx, roomID)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, Queue: items}
}

func (s *Session) SearchTracks(ctx context.Context, query string) models.Result {
	tracks, err := s.api.SearchTracks(ctx, query)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, Tracks: tracks}
}

func (s *Session) GetTrack(ctx context.Context, trackID string) models.Result {
	track, err := s.api.GetTrack(ctx, trackID)
	if err != nil {
		return models.Fail(err)
	}
	return models.Result{Success: true, Track: track}
}

// Reconnect re-arms the push channel after it exhausted its retries.
func (s *Session) Reconnect() error {
	return s.lifecycle.Reconnect()
}

func uniqueUsers(users []models.User) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if indexUser(out, u.ID) < 0 {
			out = append(out, u)
		}
	}
	return out
}

func indexUser(users []models.User, id string) int {
	return slices.IndexFunc(users, func(u models.User) bool { return u.ID == id })
}

func indexItem(queue []models.QueueItem, id string) int {
	return slices.IndexFunc(queue, func(q models.QueueItem) bool { return q.ID == id })
}
