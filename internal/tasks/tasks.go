// package tasks implements bulk queue operations on top of the command client.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

// QueueAPI is the subset of the command client used by bulk operations.
type QueueAPI interface {
	GetRoom(ctx context.Context, roomID string) (json.RawMessage, error)
	Queue(ctx context.Context, roomID string) ([]models.QueueItem, error)
	GetTrack(ctx context.Context, trackID string) (*models.Track, error)
	SearchTracks(ctx context.Context, query string) ([]models.Track, error)
	AddTrack(ctx context.Context, roomID, trackID string) (*models.QueueItem, error)
}

// TrackCacher persists tracks seen during bulk operations. Implemented by repositories.TrackCacheAdapter.
//
// Cache errors are logged and never fail an operation.
type TrackCacher interface {
	CacheTrack(track models.Track) error
	LookupTrack(trackID string) (*models.Track, bool)
}

// EngineOpts tunes request pacing.
type EngineOpts struct {
	RateLimit float64 // requests per second (default: 5)
	Burst     int     // default: 1
}

// QueueEngine orchestrates bulk imports and exports.
type QueueEngine struct {
	api     QueueAPI
	cache   TrackCacher
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewQueueEngine creates a QueueEngine. cache may be nil.
func NewQueueEngine(api QueueAPI, cache TrackCacher, opts EngineOpts, logger *log.Logger) *QueueEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &QueueEngine{
		api:     api,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.Burst),
		logger:  shared.WithLogger(logger, "component", "tasks"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *QueueEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *QueueEngine) cacheTrack(track models.Track) {
	if e.cache == nil {
		return
	}
	if err := e.cache.CacheTrack(track); err != nil {
		e.logger.Warn("failed to cache track", "track", track.ID, "error", err)
	}
}
