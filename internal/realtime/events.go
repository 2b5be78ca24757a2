package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

// EventType is the frame discriminant.
type EventType string

const (
	QueueUpdate          EventType = "queue_update"
	TrackAdded           EventType = "track_added"
	TrackRemoved         EventType = "track_removed"
	VoteUpdate           EventType = "vote_update"
	ParticipantJoined    EventType = "participant_joined"
	ParticipantLeft      EventType = "participant_left"
	CurrentTrackChanged  EventType = "current_track_changed"
	PlaybackStateChanged EventType = "playback_state_changed"
)

// Event is a decoded push frame. Only the fields for Type are set.
type Event struct {
	Type    EventType
	Queue   []models.QueueItem // queue_update
	Item    *models.QueueItem  // track_added, current_track_changed (nil clears)
	ItemID  string             // track_removed, vote_update
	Votes   int                // vote_update
	User    *models.User       // participant_joined
	UserID  string             // participant_left
	Playing bool               // playback_state_changed
}

// Handlers receive decoded events. Nil handlers are skipped.
type Handlers struct {
	OnQueueUpdate          func(queue []models.QueueItem)
	OnTrackAdded           func(item models.QueueItem)
	OnTrackRemoved         func(queueItemID string)
	OnVoteUpdate           func(queueItemID string, votes int)
	OnParticipantJoined    func(user models.User)
	OnParticipantLeft      func(userID string)
	OnCurrentTrackChanged  func(item *models.QueueItem)
	OnPlaybackStateChanged func(playing bool)
}

type frame struct {
	Type    EventType       `json:"type"`
	Queue   json.RawMessage `json:"queue"`
	Track   json.RawMessage `json:"track"`
	TrackID *string         `json:"trackId"`
	Votes   *int            `json:"votes"`
	User    *models.User    `json:"user"`
	UserID  *string         `json:"userId"`
	Playing *bool           `json:"playing"`
}

func malformed(t EventType, reason string) error {
	return fmt.Errorf("%w: %s: %s", shared.ErrMalformedEvent, t, reason)
}

// Decode parses one frame. Errors wrap [shared.ErrMalformedEvent] or [shared.ErrUnknownEvent].
func Decode(data []byte) (Event, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Event{}, fmt.Errorf("%w: %v", shared.ErrMalformedEvent, err)
	}

	ev := Event{Type: f.Type}
	switch f.Type {
	case QueueUpdate:
		if isNull(f.Queue) {
			return Event{}, malformed(f.Type, "missing queue")
		}
		if err := json.Unmarshal(f.Queue, &ev.Queue); err != nil {
			return Event{}, malformed(f.Type, err.Error())
		}
	case TrackAdded:
		item, err := decodeItem(f.Track)
		if err != nil || item == nil {
			return Event{}, malformed(f.Type, "missing queue item")
		}
		ev.Item = item
	case CurrentTrackChanged:
		item, err := decodeItem(f.Track)
		if err != nil {
			return Event{}, malformed(f.Type, err.Error())
		}
		ev.Item = item
	case TrackRemoved:
		if f.TrackID == nil || *f.TrackID == "" {
			return Event{}, malformed(f.Type, "missing trackId")
		}
		ev.ItemID = *f.TrackID
	case VoteUpdate:
		if f.TrackID == nil || *f.TrackID == "" || f.Votes == nil {
			return Event{}, malformed(f.Type, "missing trackId or votes")
		}
		ev.ItemID, ev.Votes = *f.TrackID, *f.Votes
	case ParticipantJoined:
		if f.User == nil || f.User.ID == "" {
			return Event{}, malformed(f.Type, "missing user")
		}
		ev.User = f.User
	case ParticipantLeft:
		if f.UserID == nil || *f.UserID == "" {
			return Event{}, malformed(f.Type, "missing userId")
		}
		ev.UserID = *f.UserID
	case PlaybackStateChanged:
		if f.Playing == nil {
			return Event{}, malformed(f.Type, "missing playing")
		}
		ev.Playing = *f.Playing
	case "":
		return Event{}, fmt.Errorf("%w: missing type", shared.ErrMalformedEvent)
	default:
		return Event{}, fmt.Errorf("%w: %q", shared.ErrUnknownEvent, f.Type)
	}
	return ev, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// decodeItem returns nil for an absent or null item.
func decodeItem(raw json.RawMessage) (*models.QueueItem, error) {
	if isNull(raw) {
		return nil, nil
	}
	var item models.QueueItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, fmt.Errorf("queue item without id")
	}
	return &item, nil
}

// Dispatch routes ev to the matching handler.
func (h Handlers) Dispatch(ev Event) {
	switch ev.Type {
	case QueueUpdate:
		if h.OnQueueUpdate != nil {
			h.OnQueueUpdate(ev.Queue)
		}
	case TrackAdded:
		if h.OnTrackAdded != nil && ev.Item != nil {
			h.OnTrackAdded(*ev.Item)
		}
	case TrackRemoved:
		if h.OnTrackRemoved != nil {
			h.OnTrackRemoved(ev.ItemID)
		}
	case VoteUpdate:
		if h.OnVoteUpdate != nil {
			h.OnVoteUpdate(ev.ItemID, ev.Votes)
		}
	case ParticipantJoined:
		if h.OnParticipantJoined != nil && ev.User != nil {
			h.OnParticipantJoined(*ev.User)
		}
	case ParticipantLeft:
		if h.OnParticipantLeft != nil {
			h.OnParticipantLeft(ev.UserID)
		}
	case CurrentTrackChanged:
		if h.OnCurrentTrackChanged != nil {
			h.OnCurrentTrackChanged(ev.Item)
		}
	case PlaybackStateChanged:
		if h.OnPlaybackStateChanged != nil {
			h.OnPlaybackStateChanged(ev.Playing)
		}
	}
}

// handleFrame decodes and dispatches one frame, logging and dropping anything it cannot use.
func handleFrame(logger *log.Logger, h Handlers, data []byte) {
	ev, err := Decode(data)
	switch {
	case errors.Is(err, shared.ErrUnknownEvent):
		logger.Warn("dropping event with unknown type", "error", err)
		return
	case err != nil:
		logger.Warn("dropping malformed event", "error", err)
		return
	}
	logger.Debug("event", "type", ev.Type)
	h.Dispatch(ev)
}
