package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

const trackColumns = `id, sequence, track_id, name, artist, image_url, duration, release_date, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the local track cache.
//
// Rows are soft deleted; track_id is unique across live and deleted rows.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO tracks (id, sequence, track_id, name, artist, image_url, duration, release_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.TrackID(),
		track.Name(),
		track.Artist(),
		track.ImageURL(),
		track.Duration(),
		track.ReleaseDate(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	track.SetID(id)
	track.SetSequence(sequence)
	return nil
}

// Get retrieves a track by row ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a track by its catalog ID
func (r *TrackRepository) GetByTrackID(trackID string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE track_id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, trackID))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()

	query := `
		UPDATE tracks
		SET name = ?, artist = ?, image_url = ?, duration = ?, release_date = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Name(),
		track.Artist(),
		track.ImageURL(),
		track.Duration(),
		track.ReleaseDate(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	if err := expectOneRow(result, track.ID()); err != nil {
		return err
	}
	track.SetUpdatedAt(now)
	return nil
}

// Upsert inserts the track or refreshes the cached copy, reviving it if it was soft deleted.
func (r *TrackRepository) Upsert(track models.Track) (*models.CachedTrack, error) {
	cached := models.NewCachedTrack(0, track)
	if err := cached.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var id string
	err := r.db.QueryRow("SELECT id FROM tracks WHERE track_id = ?", track.ID).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := r.Create(cached); err != nil {
			return nil, err
		}
		return cached, nil
	case err != nil:
		return nil, fmt.Errorf("failed to look up track: %w", err)
	}

	query := `
		UPDATE tracks
		SET name = ?, artist = ?, image_url = ?, duration = ?, release_date = ?, updated_at = ?, deleted_at = NULL
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, track.Name, track.Artist, track.ImageURL, track.Duration, track.ReleaseDate, time.Now(), id); err != nil {
		return nil, fmt.Errorf("failed to refresh track: %w", err)
	}
	return r.Get(id)
}

// Delete soft-deletes a track by ID
func (r *TrackRepository) Delete(id string) error {
	query := `
		UPDATE tracks
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	return expectOneRow(result, id)
}

// List retrieves all tracks matching the given criteria, excluding soft-deleted tracks.
//
// Supported criteria: "artist" (exact), "query" (substring of name or artist), "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`
	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ?"
		args = append(args, artist)
	}

	if q, ok := criteria["query"].(string); ok && strings.TrimSpace(q) != "" {
		like := "%" + strings.TrimSpace(q) + "%"
		query += " AND (name LIKE ? OR artist LIKE ?)"
		args = append(args, like, like)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row of [trackColumns] into a [models.CachedTrack]
func (r *TrackRepository) scan(row scanner) (*models.CachedTrack, error) {
	var (
		id        string
		sequence  int
		track     models.Track
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &track.ID, &track.Name, &track.Artist, &track.ImageURL, &track.Duration, &track.ReleaseDate, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: not in cache", shared.ErrTrackNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	cached := models.NewCachedTrack(sequence, track)
	cached.SetID(id)
	cached.SetCreatedAt(createdAt)
	cached.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		cached.SetDeletedAt(&deletedAt.Time)
	}

	return cached, nil
}

func expectOneRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: not found or already deleted: %s", shared.ErrTrackNotFound, id)
	}
	return nil
}
