package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/desertthunder/roomsync/internal/tasks"
)

// QueueShow prints a room's queue.
func (r *Runner) QueueShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}

	res := r.session.QueueFor(ctx, roomID)
	if err := resultErr("get queue", res); err != nil {
		return err
	}
	r.cacheQueue(res.Queue)

	if cmd.Bool("json") {
		return r.writeJSON(res.Queue, cmd.Bool("pretty"))
	}
	if len(res.Queue) == 0 {
		return r.writePlain("The queue is empty.\n")
	}
	r.writePlain("%s\n", renderTable(queueHeaders, queueRows(res.Queue), queueAligns))
	return r.writePlain("%s\n", english.Plural(len(res.Queue), "track", "tracks"))
}

// QueueAdd adds a track to a room's queue. The change shows up for listeners through the push channel.
func (r *Runner) QueueAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}

	item, err := r.client.AddTrack(ctx, roomID, trackID)
	if err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if item != nil && item.Track.ID != "" {
		r.cacheTracks(item.Track)
		return r.writePlain("✓ Queued %s - %s (%s)\n", item.Track.Artist, item.Track.Name, item.ID)
	}
	return r.writePlain("✓ Queued %s\n", trackID)
}

// QueueRemove removes a queue item from a room.
func (r *Runner) QueueRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}
	itemID, err := requireArg(cmd, "item")
	if err != nil {
		return err
	}

	if err := r.client.RemoveTrack(ctx, roomID, itemID); err != nil {
		return fmt.Errorf("remove track: %w", err)
	}
	return r.writePlain("✓ Removed %s\n", itemID)
}

// QueueVote votes a queue item up or down.
func (r *Runner) QueueVote(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}
	itemID, err := requireArg(cmd, "item")
	if err != nil {
		return err
	}
	vote, err := models.ParseVote(cmd.StringArg("direction"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if err := r.client.VoteTrack(ctx, roomID, itemID, vote); err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	return r.writePlain("✓ Voted %s on %s\n", vote, itemID)
}

// QueueExport renders a room's queue to stdout, or writes it under --output.
func (r *Runner) QueueExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}
	format := cmd.String("format")

	output := cmd.String("output")
	if output == "" {
		export, err := r.engine.FetchExport(ctx, roomID)
		if err != nil {
			return err
		}
		data, err := formatter.Render(format, export)
		if err != nil {
			return err
		}
		_, err = r.output.Write(data)
		return err
	}

	res := r.engine.ExportRoom(ctx, roomID, tasks.BulkExportOpts{
		Format:    format,
		OutputDir: output,
		WithCover: cmd.Bool("cover"),
	})
	if res.Error != nil {
		return fmt.Errorf("export failed: %w", res.Error)
	}

	r.writePlain("✓ Exported %s\n", res.RoomName)
	for _, f := range res.Files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

// QueueImport adds every track listed in a file (or stdin) to a room's queue.
func (r *Runner) QueueImport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	roomID, err := requireArg(cmd, "room")
	if err != nil {
		return err
	}

	var in io.Reader = r.input
	if path := cmd.StringArg("file"); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}
		defer f.Close()
		in = f
	}

	lines, err := tasks.ParseImportLines(in)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return fmt.Errorf("%w: no tracks to import", shared.ErrInvalidInput)
	}

	asJSON := cmd.Bool("json")
	progress := make(chan tasks.ProgressUpdate, 16)
	var done <-chan struct{}
	if asJSON {
		done = r.discardProgress(progress)
	} else {
		done = r.printProgress(progress)
	}

	result, err := r.engine.Import(ctx, progress, roomID, lines)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if asJSON {
		return r.writeJSON(importReport(result), true)
	}

	r.writePlainln("Added %d of %s to %s", result.Added, english.Plural(len(lines), "line", "lines"), roomID)
	for _, lr := range result.Results {
		if lr.Error != nil {
			r.writePlain("  ✗ line %d (%s): %v\n", lr.Line.Number, lr.Line, lr.Error)
		}
	}
	if result.Failed > 0 {
		return fmt.Errorf("%w: %d lines failed", shared.ErrAPIRequest, result.Failed)
	}
	return nil
}

func (r *Runner) discardProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.logger.Debug("import progress", "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()
	return done
}

type importLineReport struct {
	Line    int           `json:"line"`
	Input   string        `json:"input"`
	Track   *models.Track `json:"track,omitempty"`
	QueueID string        `json:"queueItemId,omitempty"`
	Error   string        `json:"error,omitempty"`
}

type importSummary struct {
	RoomID string             `json:"roomId"`
	Added  int                `json:"added"`
	Failed int                `json:"failed"`
	Lines  []importLineReport `json:"lines"`
}

func importReport(result *tasks.ImportResult) importSummary {
	summary := importSummary{
		RoomID: result.RoomID,
		Added:  result.Added,
		Failed: result.Failed,
		Lines:  make([]importLineReport, 0, len(result.Results)),
	}
	for _, lr := range result.Results {
		line := importLineReport{Line: lr.Line.Number, Input: lr.Line.String(), Track: lr.Track}
		if lr.Item != nil {
			line.QueueID = lr.Item.ID
		}
		if lr.Error != nil {
			line.Error = lr.Error.Error()
		}
		summary.Lines = append(summary.Lines, line)
	}
	return summary
}
