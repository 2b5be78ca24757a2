package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolveTracks Phase = iota
	AddTracks
	FetchRooms
	ExportQueues
)

func (p Phase) String() string {
	switch p {
	case ResolveTracks:
		return "resolve_tracks"
	case AddTracks:
		return "add_tracks"
	case FetchRooms:
		return "fetch_rooms"
	case ExportQueues:
		return "export_queues"
	default:
		return ""
	}
}

func resolveUpdate(step, total int, line ImportLine) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s...", step, total, line),
	}
}

func resolvedUpdate(step, total int, track *LineResult) ProgressUpdate {
	if track.Error != nil {
		return ProgressUpdate{
			Phase:   ResolveTracks,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ line %d: %v", step, total, track.Line.Number, track.Error),
			Data:    track,
		}
	}
	return ProgressUpdate{
		Phase:   ResolveTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, track.Track.Artist, track.Track.Name),
		Data:    track,
	}
}

func addUpdate(step, total int, res *LineResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   AddTracks,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Track.Name, res.Error),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Track.Name),
		Data:    res,
	}
}

func fetchingRoomUpdate(step, total int, roomID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchRooms,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching room %s...", step, total, roomID),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportQueues,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportQueues,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
