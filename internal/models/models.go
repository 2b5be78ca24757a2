// package models defines the data model for collaborative listening rooms
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include [CachedTrack] and [Credential].
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// User is an account identity. Two users are the same user when their IDs match.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Same reports whether u and other share an identity.
func (u User) Same(other User) bool {
	return u.ID == other.ID
}

// Track is an immutable catalog entry. Duration is in seconds.
type Track struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Artist      string  `json:"artist"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Duration    int     `json:"duration"`
	SpotifyID   *string `json:"spotifyId,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
}

// QueueItem is a [Track] placed into a room's queue. Its ID is distinct from the track's.
type QueueItem struct {
	ID      string `json:"id"`
	Track   Track  `json:"track"`
	AddedBy *User  `json:"addedBy,omitempty"`
	Votes   int    `json:"votes"`
	AddedAt string `json:"addedAt"`
}

// AddedTime parses AddedAt, returning the zero time when it is missing or malformed.
func (q QueueItem) AddedTime() time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, q.AddedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Room is the canonical room shape after normalization.
type Room struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	IsPublic     bool        `json:"isPublic"`
	Owner        *User       `json:"owner"`
	Participants []User      `json:"participants"`
	Queue        []QueueItem `json:"queue"`
	CurrentTrack *QueueItem  `json:"currentTrack"`
	CreatedAt    string      `json:"createdAt,omitempty"`
}

// Vote is a queue vote direction.
type Vote string

const (
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// ParseVote accepts "up"/"down" as well as "+"/"-".
func ParseVote(s string) (Vote, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "+":
		return VoteUp, nil
	case "down", "-":
		return VoteDown, nil
	default:
		return "", fmt.Errorf("invalid vote direction %q (want up or down)", s)
	}
}

// TrackInput is the payload for manual track creation.
type TrackInput struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Artist   string `json:"artist,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Duration int    `json:"duration"`
}

// Validate checks the fields the backend requires.
func (t TrackInput) Validate() error {
	if strings.TrimSpace(t.Path) == "" {
		return fmt.Errorf("track path is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("track name is required")
	}
	if t.Duration < 0 {
		return fmt.Errorf("track duration cannot be negative")
	}
	return nil
}

// Result is the outcome of a session operation. Failures carry a human-readable message instead of a Go error.
type Result struct {
	Success   bool        `json:"success"`
	Error     string      `json:"error,omitempty"`
	Room      *Room       `json:"room,omitempty"`
	QueueItem *QueueItem  `json:"queueItem,omitempty"`
	Track     *Track      `json:"track,omitempty"`
	Queue     []QueueItem `json:"queue,omitempty"`
	Tracks    []Track     `json:"tracks,omitempty"`
}

// OK returns a successful [Result].
func OK() Result {
	return Result{Success: true}
}

// Fail returns a failed [Result] carrying err's message.
func Fail(err error) Result {
	if err == nil {
		return Result{Success: false, Error: "unknown error"}
	}
	return Result{Success: false, Error: err.Error()}
}

// Err converts a failed result back into an error, or nil on success.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s", r.Error)
}
