package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/session"
	"github.com/desertthunder/roomsync/internal/shared"
)

// BulkExportOpts contains configuration for multi-room queue exports.
type BulkExportOpts struct {
	Format     string // Export format: json, csv, markdown, txt
	OutputDir  string // Base output directory (default: queue_export_{epoch})
	NumWorkers int    // Concurrent workers (default: 3, max: 10)
	WithCover  bool   // Download cover art for markdown exports
}

// RoomExportJob is a fetched room waiting to be written.
type RoomExportJob struct {
	RoomID string
	Export *formatter.QueueExport
}

// RoomExportResult is the outcome of exporting one room.
type RoomExportResult struct {
	RoomID   string
	RoomName string
	Success  bool
	Files    []string
	Error    error
}

// BulkExportResult summarizes [QueueEngine.ExportRooms].
type BulkExportResult struct {
	TotalRooms        int
	SuccessfulExports int
	FailedExports     int
	Results           []RoomExportResult
	OutputDirectory   string
	ManifestPath      string
}

// ExportRooms exports the queues of several rooms concurrently and writes a manifest.
//
// Room fetches are paced by the engine's limiter on a single producer goroutine; file writes fan out to workers.
// Failed rooms are recorded in the result and the manifest.
func (e *QueueEngine) ExportRooms(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.api == nil {
		return nil, fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one room ID", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("queue_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	opts.NumWorkers = min(opts.NumWorkers, 10)

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalRooms:      len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]RoomExportResult, 0, len(ids)),
	}

	jobs := make(chan RoomExportJob, len(ids))
	results := make(chan RoomExportResult, len(ids))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, roomID := range ids {
			if err := e.limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(prog, fetchingRoomUpdate(i+1, len(ids), roomID))

			export, err := e.FetchExport(ctx, roomID)
			if err != nil {
				results <- RoomExportResult{RoomID: roomID, RoomName: roomID, Error: err}
				continue
			}
			jobs <- RoomExportJob{RoomID: roomID, Export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	manifest := formatter.Manifest{Format: opts.Format, TotalRooms: len(ids)}
	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		manifest.Rooms = append(manifest.Rooms, formatter.NewManifestEntry(res.RoomID, res.RoomName, res.Files, res.Error))

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res.RoomName, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res.RoomName, res.Error))
		}
	}

	manifest.SuccessfulExports = result.SuccessfulExports
	manifest.FailedExports = result.FailedExports

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(manifest, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// FetchExport loads a room and its queue, preferring the queue endpoint over the room payload.
func (e *QueueEngine) FetchExport(ctx context.Context, roomID string) (*formatter.QueueExport, error) {
	raw, err := e.api.GetRoom(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}
	room, err := session.NormalizeRoom(raw)
	if err != nil {
		return nil, err
	}
	if room.ID == "" {
		room.ID = roomID
	}

	queue, err := e.api.Queue(ctx, roomID)
	if err != nil {
		e.logger.Warn("queue fetch failed, using room payload", "room", roomID, "error", err)
		queue = nil
	}

	for _, item := range coalesce(queue, room.Queue) {
		e.cacheTrack(item.Track)
	}
	return formatter.NewQueueExport(room, queue), nil
}

// ExportRoom fetches one room and writes it to opts.OutputDir in opts.Format.
func (e *QueueEngine) ExportRoom(ctx context.Context, roomID string, opts BulkExportOpts) RoomExportResult {
	if e.api == nil {
		return RoomExportResult{RoomID: roomID, Error: fmt.Errorf("%w: API client not initialized", shared.ErrServiceUnavailable)}
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return RoomExportResult{RoomID: roomID, Error: fmt.Errorf("failed to create output directory: %w", err)}
	}

	export, err := e.FetchExport(ctx, roomID)
	if err != nil {
		return RoomExportResult{RoomID: roomID, Error: err}
	}
	return e.exportSingleRoom(RoomExportJob{RoomID: roomID, Export: export}, opts)
}

func coalesce(a, b []models.QueueItem) []models.QueueItem {
	if a != nil {
		return a
	}
	return b
}

// exportWorker writes rooms from the jobs channel.
func (e *QueueEngine) exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan RoomExportJob, results chan<- RoomExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- RoomExportResult{RoomID: job.RoomID, RoomName: job.Export.RoomName, Error: ctx.Err()}
			continue
		default:
		}

		results <- e.exportSingleRoom(job, opts)
	}
}

// exportSingleRoom writes one room in the requested format.
func (e *QueueEngine) exportSingleRoom(j RoomExportJob, opts BulkExportOpts) RoomExportResult {
	result := RoomExportResult{
		RoomID:   j.RoomID,
		RoomName: j.Export.RoomName,
		Files:    []string{},
	}

	var err error
	switch opts.Format {
	case formatter.FormatCSV:
		var path string
		path, err = formatter.WriteCSVExport(j.Export, filepath.Join(opts.OutputDir, j.RoomID))
		result.Files = append(result.Files, path)
	case formatter.FormatMarkdown, "md":
		var md *formatter.MarkdownExportResult
		md, err = formatter.WriteMarkdownExport(j.Export, filepath.Join(opts.OutputDir, j.RoomID), opts.WithCover)
		if md != nil {
			result.Files = md.Files
		}
	case formatter.FormatText, "text":
		var path string
		path, err = formatter.WriteTextExport(j.Export, filepath.Join(opts.OutputDir, j.RoomID+"_queue.txt"))
		result.Files = append(result.Files, path)
	case formatter.FormatJSON:
		var path string
		path, err = formatter.WriteJSONExport(j.Export, filepath.Join(opts.OutputDir, j.RoomID+".json"))
		result.Files = append(result.Files, path)
	default:
		err = fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, opts.Format)
	}

	if err != nil {
		result.Files = nil
		result.Error = err
		return result
	}
	result.Success = true
	return result
}
