package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/desertthunder/roomsync/internal/models"
)

type createRoomRequest struct {
	Name     string `json:"name"`
	IsPublic *bool  `json:"isPublic,omitempty"`
}

type addTrackRequest struct {
	TrackID string `json:"trackId"`
}

type voteRequest struct {
	Vote models.Vote `json:"vote"`
}

func roomPath(roomID string) string {
	return "/rooms/rooms/" + url.PathEscape(roomID)
}

func queuePath(roomID string) string {
	return "/rooms/" + url.PathEscape(roomID) + "/queue"
}

// ListRooms returns every visible room as an unnormalized payload.
func (c *Client) ListRooms(ctx context.Context) ([]json.RawMessage, error) {
	var rooms []json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, "/rooms/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// CreateRoom creates a room. A nil isPublic leaves visibility to the backend default.
func (c *Client) CreateRoom(ctx context.Context, name string, isPublic *bool) (json.RawMessage, error) {
	var room json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/rooms/rooms", createRoomRequest{Name: name, IsPublic: isPublic}, &room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetRoom fetches one room.
func (c *Client) GetRoom(ctx context.Context, roomID string) (json.RawMessage, error) {
	var room json.RawMessage
	if err := c.doRequest(ctx, http.MethodGet, roomPath(roomID), nil, &room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom adds the current user to the room and returns its state.
func (c *Client) JoinRoom(ctx context.Context, roomID string) (json.RawMessage, error) {
	var room json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, roomPath(roomID)+"/join", nil, &room); err != nil {
		return nil, err
	}
	return room, nil
}

func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	return c.doRequest(ctx, http.MethodPost, roomPath(roomID)+"/leave", nil, nil)
}

func (c *Client) DeleteRoom(ctx context.Context, roomID string) error {
	return c.doRequest(ctx, http.MethodDelete, roomPath(roomID), nil, nil)
}

// Queue fetches the room's ordered queue.
func (c *Client) Queue(ctx context.Context, roomID string) ([]models.QueueItem, error) {
	var items []models.QueueItem
	if err := c.doRequest(ctx, http.MethodGet, queuePath(roomID), nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.QueueItem{}
	}
	return items, nil
}

// AddTrack places a catalog track in the room's queue.
func (c *Client) AddTrack(ctx context.Context, roomID, trackID string) (*models.QueueItem, error) {
	var item models.QueueItem
	if err := c.doRequest(ctx, http.MethodPost, queuePath(roomID), addTrackRequest{TrackID: trackID}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) RemoveTrack(ctx context.Context, roomID, queueItemID string) error {
	return c.doRequest(ctx, http.MethodDelete, queuePath(roomID)+"/"+url.PathEscape(queueItemID), nil, nil)
}

func (c *Client) VoteTrack(ctx context.Context, roomID, queueItemID string, vote models.Vote) error {
	endpoint := queuePath(roomID) + "/" + url.PathEscape(queueItemID) + "/vote"
	return c.doRequest(ctx, http.MethodPost, endpoint, voteRequest{Vote: vote}, nil)
}
