package formatter

import (
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/roomsync/internal/shared"
)

// ManifestEntry records the outcome of one room's export.
type ManifestEntry struct {
	RoomID   string   `json:"room_id"`
	RoomName string   `json:"room_name"`
	Status   string   `json:"status"`
	Files    []string `json:"files,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Manifest summarizes a multi-room export.
type Manifest struct {
	Format            string          `json:"format"`
	CreatedAt         time.Time       `json:"created_at"`
	TotalRooms        int             `json:"total_rooms"`
	SuccessfulExports int             `json:"successful_exports"`
	FailedExports     int             `json:"failed_exports"`
	Rooms             []ManifestEntry `json:"rooms"`
}

// NewManifestEntry builds an entry, deriving the status from err.
func NewManifestEntry(roomID, roomName string, files []string, err error) ManifestEntry {
	entry := ManifestEntry{RoomID: roomID, RoomName: roomName, Status: "success", Files: files}
	if err != nil {
		entry.Status = "failed"
		entry.Error = err.Error()
	}
	return entry
}

// WriteManifest writes manifest as indented JSON to path.
func WriteManifest(manifest Manifest, path string) error {
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = time.Now()
	}
	if manifest.Rooms == nil {
		manifest.Rooms = []ManifestEntry{}
	}

	data, err := shared.MarshalJSON(manifest, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
