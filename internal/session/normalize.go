package session

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

var (
	queueKeys        = []string{"queue", "tracks"}
	participantKeys  = []string{"participants", "users", "members"}
	currentTrackKeys = []string{"currentTrack", "current_track"}
)

type roomFields struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	IsPublic  bool         `json:"isPublic"`
	Owner     *models.User `json:"owner"`
	CreatedAt string       `json:"createdAt"`
}

// NormalizeRoom maps a raw room payload onto [models.Room].
//
// Each collection takes the first non-null of its canonical name and documented alternates
// (queue/tracks, participants/users/members, currentTrack/current_track), defaulting to empty or nil.
func NormalizeRoom(raw json.RawMessage) (models.Room, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.Room{}, fmt.Errorf("%w: room payload is not an object", shared.ErrAPIRequest)
	}

	var base roomFields
	if err := json.Unmarshal(raw, &base); err != nil {
		return models.Room{}, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	room := models.Room{
		ID:           base.ID,
		Name:         base.Name,
		IsPublic:     base.IsPublic,
		Owner:        base.Owner,
		CreatedAt:    base.CreatedAt,
		Queue:        []models.QueueItem{},
		Participants: []models.User{},
	}

	if v := pick(fields, queueKeys...); v != nil {
		if err := json.Unmarshal(v, &room.Queue); err != nil {
			return models.Room{}, fmt.Errorf("%w: queue: %v", shared.ErrAPIRequest, err)
		}
	}
	if v := pick(fields, participantKeys...); v != nil {
		if err := json.Unmarshal(v, &room.Participants); err != nil {
			return models.Room{}, fmt.Errorf("%w: participants: %v", shared.ErrAPIRequest, err)
		}
	}
	if v := pick(fields, currentTrackKeys...); v != nil {
		var item models.QueueItem
		if err := json.Unmarshal(v, &item); err != nil {
			return models.Room{}, fmt.Errorf("%w: current track: %v", shared.ErrAPIRequest, err)
		}
		room.CurrentTrack = &item
	}
	return room, nil
}

// pick returns the first present, non-null value among keys.
func pick(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := fields[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}
