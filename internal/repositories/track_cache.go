package repositories

import (
	"fmt"

	"github.com/desertthunder/roomsync/internal/models"
)

// TrackCacheAdapter implements tasks.TrackCacher using TrackRepository.
//
// Writes are upserts, so repeated sightings of a track refresh it instead of failing on the unique track_id.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// CacheTrack stores or refreshes one track. Tracks without an ID or name are skipped.
func (a *TrackCacheAdapter) CacheTrack(track models.Track) error {
	if track.ID == "" || track.Name == "" {
		return nil
	}
	if _, err := a.repo.Upsert(track); err != nil {
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}

// CacheTracks stores every track, stopping at the first failure.
func (a *TrackCacheAdapter) CacheTracks(tracks []models.Track) error {
	for _, t := range tracks {
		if err := a.CacheTrack(t); err != nil {
			return err
		}
	}
	return nil
}

// CacheQueue stores the tracks embedded in queue items.
func (a *TrackCacheAdapter) CacheQueue(items []models.QueueItem) error {
	for _, item := range items {
		if err := a.CacheTrack(item.Track); err != nil {
			return err
		}
	}
	return nil
}

// LookupTrack returns the cached track for a catalog ID.
func (a *TrackCacheAdapter) LookupTrack(trackID string) (*models.Track, bool) {
	cached, err := a.repo.GetByTrackID(trackID)
	if err != nil {
		return nil, false
	}
	t := cached.Track()
	return &t, true
}
