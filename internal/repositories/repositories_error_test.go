package repositories

import (
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		if _, err := repo.Get("non-existent-id"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
		if _, err := repo.GetByTrackID("non-existent"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		track := models.NewCachedTrack(0, sampleTrack("t1", "Song A", "Artist A"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}

		if err := repo.Delete(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound deleting twice, got %v", err)
		}
		if err := repo.Update(track); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound updating deleted track, got %v", err)
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)
		if err := repo.Create(models.NewCachedTrack(0, sampleTrack("t1", "Song A", "Artist A"))); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		err := repo.Create(models.NewCachedTrack(0, sampleTrack("t1", "Song A", "Artist A")))
		if err == nil {
			t.Fatal("expected unique constraint error")
		}
		if !strings.Contains(err.Error(), "failed to insert track") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewTrackRepository(db)

		tt := []struct {
			name  string
			track models.Track
		}{
			{name: "missing id", track: models.Track{Name: "Song"}},
			{name: "missing name", track: models.Track{ID: "t1"}},
			{name: "negative duration", track: models.Track{ID: "t1", Name: "Song", Duration: -1}},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				err := repo.Create(models.NewCachedTrack(0, tc.track))
				if err == nil || !strings.Contains(err.Error(), "validation failed") {
					t.Errorf("expected validation error, got %v", err)
				}
				if _, err := repo.Upsert(tc.track); err == nil {
					t.Error("expected upsert validation error")
				}
			})
		}
	})
}
