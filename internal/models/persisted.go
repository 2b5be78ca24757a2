package models

import (
	"fmt"
	"time"
)

// CachedTrack is a [Track] persisted locally so search results and imports can resolve without a round trip.
type CachedTrack struct {
	id        string
	sequence  int
	track     Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewCachedTrack builds a cache row for a catalog track. The row ID is assigned by the repository.
func NewCachedTrack(sequence int, track Track) *CachedTrack {
	now := time.Now()
	return &CachedTrack{sequence: sequence, track: track, createdAt: now, updatedAt: now}
}

func (t *CachedTrack) ID() string                 { return t.id }
func (t *CachedTrack) Sequence() int              { return t.sequence }
func (t *CachedTrack) TrackID() string            { return t.track.ID }
func (t *CachedTrack) Name() string               { return t.track.Name }
func (t *CachedTrack) Artist() string             { return t.track.Artist }
func (t *CachedTrack) ImageURL() string           { return t.track.ImageURL }
func (t *CachedTrack) Duration() int              { return t.track.Duration }
func (t *CachedTrack) ReleaseDate() string        { return t.track.ReleaseDate }
func (t *CachedTrack) CreatedAt() time.Time       { return t.createdAt }
func (t *CachedTrack) UpdatedAt() time.Time       { return t.updatedAt }
func (t *CachedTrack) DeletedAt() *time.Time      { return t.deletedAt }
func (t *CachedTrack) Track() Track               { return t.track }
func (t *CachedTrack) SetID(id string)            { t.id = id }
func (t *CachedTrack) SetSequence(seq int)        { t.sequence = seq }
func (t *CachedTrack) SetTrack(track Track)       { t.track = track }
func (t *CachedTrack) SetCreatedAt(ts time.Time)  { t.createdAt = ts }
func (t *CachedTrack) SetUpdatedAt(ts time.Time)  { t.updatedAt = ts }
func (t *CachedTrack) SetDeletedAt(ts *time.Time) { t.deletedAt = ts }

// Validate checks the fields the cache needs to deduplicate and display the track.
func (t *CachedTrack) Validate() error {
	if t.track.ID == "" {
		return fmt.Errorf("track id is required")
	}
	if t.track.Name == "" {
		return fmt.Errorf("track name is required")
	}
	if t.track.Duration < 0 {
		return fmt.Errorf("track duration cannot be negative")
	}
	return nil
}

// Credential is the persisted bearer token and the profile it belongs to.
type Credential struct {
	Profile   string
	Token     string
	User      *User
	UpdatedAt time.Time
}
