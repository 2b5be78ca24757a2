package tasks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

const searchPrefix = "search:"

// ImportLine is one non-empty, non-comment line of import input.
type ImportLine struct {
	Number  int    // 1-based line number in the input
	TrackID string // set for plain track ID lines
	Query   string // set for "search:" lines
}

func (l ImportLine) String() string {
	if l.Query != "" {
		return fmt.Sprintf("search %q", l.Query)
	}
	return l.TrackID
}

// LineResult is the outcome of importing one line.
type LineResult struct {
	Line  ImportLine
	Track *models.Track
	Item  *models.QueueItem
	Error error
}

// ImportResult contains per-line outcomes of [QueueEngine.Import].
type ImportResult struct {
	RoomID  string
	Results []LineResult
	Added   int
	Failed  int
}

// ParseImportLines reads track IDs or "search:<query>" lines.
//
// Blank lines and lines starting with "#" are skipped. An empty "search:" line is an error.
func ParseImportLines(r io.Reader) ([]ImportLine, error) {
	var lines []ImportLine
	scanner := bufio.NewScanner(r)
	number := 0
	for scanner.Scan() {
		number++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if len(text) >= len(searchPrefix) && strings.EqualFold(text[:len(searchPrefix)], searchPrefix) {
			query := strings.TrimSpace(text[len(searchPrefix):])
			if query == "" {
				return nil, fmt.Errorf("%w: line %d: empty search query", shared.ErrInvalidInput, number)
			}
			lines = append(lines, ImportLine{Number: number, Query: query})
			continue
		}

		lines = append(lines, ImportLine{Number: number, TrackID: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import input: %w", err)
	}
	return lines, nil
}

// Import resolves every line to a catalog track and adds it to roomID's queue.
//
// Resolution and adds are paced by the engine's limiter. A line that fails is recorded and the import continues;
// only context cancellation stops it early, in which case the partial result is returned with the context error.
func (e *QueueEngine) Import(ctx context.Context, progress chan<- ProgressUpdate, roomID string, lines []ImportLine) (*ImportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: room ID", shared.ErrMissingArgument)
	}

	total := len(lines)
	result := &ImportResult{RoomID: roomID, Results: make([]LineResult, 0, total)}

	for i, line := range lines {
		e.sendProgress(progress, resolveUpdate(i+1, total, line))

		res := LineResult{Line: line}
		res.Track, res.Error = e.resolve(ctx, line)
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		e.sendProgress(progress, resolvedUpdate(i+1, total, &res))
		result.Results = append(result.Results, res)
	}

	for i := range result.Results {
		res := &result.Results[i]
		if res.Error != nil {
			result.Failed++
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return result, err
		}

		res.Item, res.Error = e.api.AddTrack(ctx, roomID, res.Track.ID)
		if res.Error != nil {
			result.Failed++
			e.logger.Warn("failed to add track", "room", roomID, "track", res.Track.ID, "line", res.Line.Number, "error", res.Error)
		} else {
			result.Added++
		}
		e.sendProgress(progress, addUpdate(i+1, total, res))
	}

	e.logger.Info("queue import finished", "room", roomID, "added", result.Added, "failed", result.Failed)
	return result, nil
}

// resolve turns a line into a catalog track, consulting the cache before the API for plain IDs.
func (e *QueueEngine) resolve(ctx context.Context, line ImportLine) (*models.Track, error) {
	if line.Query == "" && e.cache != nil {
		if track, ok := e.cache.LookupTrack(line.TrackID); ok {
			return track, nil
		}
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if line.Query == "" {
		track, err := e.api.GetTrack(ctx, line.TrackID)
		if err != nil {
			return nil, err
		}
		e.cacheTrack(*track)
		return track, nil
	}

	tracks, err := e.api.SearchTracks(ctx, line.Query)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: no results for %q", shared.ErrTrackNotFound, line.Query)
	}
	for _, t := range tracks {
		e.cacheTrack(t)
	}
	track := tracks[0]
	return &track, nil
}
