package services

import (
	"context"
	"net/http"
	"net/url"

	"github.com/desertthunder/roomsync/internal/models"
)

// SearchTracks queries the catalog.
func (c *Client) SearchTracks(ctx context.Context, query string) ([]models.Track, error) {
	var tracks []models.Track
	if err := c.doRequest(ctx, http.MethodGet, "/tracks/search?query="+url.QueryEscape(query), nil, &tracks); err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, nil
}

func (c *Client) GetTrack(ctx context.Context, trackID string) (*models.Track, error) {
	var track models.Track
	if err := c.doRequest(ctx, http.MethodGet, "/tracks/"+url.PathEscape(trackID), nil, &track); err != nil {
		return nil, err
	}
	return &track, nil
}

// CreateTrack registers a manually described track in the catalog.
func (c *Client) CreateTrack(ctx context.Context, input models.TrackInput) (*models.Track, error) {
	var track models.Track
	if err := c.doRequest(ctx, http.MethodPost, "/tracks/", input, &track); err != nil {
		return nil, err
	}
	return &track, nil
}
