package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/desertthunder/roomsync/internal/tasks"
)

// requireArg returns the named positional argument or a missing argument error.
func requireArg(cmd *cli.Command, name string) (string, error) {
	v := strings.TrimSpace(cmd.StringArg(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return v, nil
}

func ownerName(room models.Room) string {
	if room.Owner == nil {
		return "-"
	}
	return room.Owner.Name
}

func visibility(room models.Room) string {
	if room.IsPublic {
		return "public"
	}
	return "private"
}

func queueRows(items []models.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		added := "-"
		if t := item.AddedTime(); !t.IsZero() {
			added = humanize.Time(t)
		}
		by := "-"
		if item.AddedBy != nil {
			by = item.AddedBy.Name
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.ID,
			item.Track.Name,
			item.Track.Artist,
			formatter.FormatDuration(item.Track.Duration),
			fmt.Sprintf("%+d", item.Votes),
			by,
			added,
		})
	}
	return rows
}

var queueHeaders = []string{"#", "Item", "Track", "Artist", "Length", "Votes", "Added By", "Added"}
var queueAligns = []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight}

// RoomsList prints every room visible to the signed-in user.
func (r *Runner) RoomsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	rooms := r.session.ListRooms(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(rooms, cmd.Bool("pretty"))
	}

	if len(rooms) == 0 {
		return r.writePlain("No rooms found\n")
	}

	rows := make([][]string, 0, len(rooms))
	for _, room := range rooms {
		rows = append(rows, []string{
			room.ID,
			room.Name,
			ownerName(room),
			visibility(room),
			strconv.Itoa(len(room.Participants)),
			strconv.Itoa(len(room.Queue)),
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"ID", "Name", "Owner", "Visibility", "Listeners", "Queued"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
	))
	return r.writePlain("%s\n", english.Plural(len(rooms), "room", "rooms"))
}

// RoomsCreate creates a room without joining it.
func (r *Runner) RoomsCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	name, err := requireArg(cmd, "name")
	if err != nil {
		return err
	}

	public := !cmd.Bool("private")
	res := r.session.CreateRoom(ctx, name, &public)
	if err := resultErr("create room", res); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(res.Room, true)
	}
	return r.writePlain("✓ Room created: %s (%s)\n", res.Room.Name, res.Room.ID)
}

// RoomsShow prints a room's details and queue.
func (r *Runner) RoomsShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	res := r.session.GetRoom(ctx, id)
	if err := resultErr("get room", res); err != nil {
		return err
	}
	room := *res.Room
	r.cacheQueue(room.Queue)

	if cmd.Bool("json") {
		return r.writeJSON(room, cmd.Bool("pretty"))
	}

	r.writePlainHeader(room.Name)
	r.writePlain("ID:         %s\n", room.ID)
	r.writePlain("Owner:      %s\n", ownerName(room))
	r.writePlain("Visibility: %s\n", visibility(room))

	names := make([]string, 0, len(room.Participants))
	for _, p := range room.Participants {
		names = append(names, p.Name)
	}
	r.writePlain("Listeners:  %s\n", strings.Join(names, ", "))

	if room.CurrentTrack != nil {
		t := room.CurrentTrack.Track
		r.writePlain("Playing:    %s - %s\n", t.Artist, t.Name)
	}

	if len(room.Queue) == 0 {
		return r.writePlainln("The queue is empty.")
	}
	r.writePlain("\n%s\n", renderTable(queueHeaders, queueRows(room.Queue), queueAligns))
	return nil
}

// RoomsDelete deletes a room.
func (r *Runner) RoomsDelete(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	if err := resultErr("delete room", r.session.DeleteRoom(ctx, id)); err != nil {
		return err
	}
	return r.writePlain("✓ Room deleted: %s\n", id)
}

// RoomsExport exports several room queues concurrently and writes a manifest.
func (r *Runner) RoomsExport(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if cmd.Bool("all") {
		for _, room := range r.session.ListRooms(ctx) {
			ids = append(ids, room.ID)
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: room IDs or --all", shared.ErrMissingArgument)
	}

	opts := tasks.BulkExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		WithCover:  cmd.Bool("cover"),
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.printProgress(progress)
	result, err := r.engine.ExportRooms(ctx, progress, ids, opts)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("Exported %d of %s to %s", result.SuccessfulExports,
		english.Plural(result.TotalRooms, "room", "rooms"), result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %v\n", res.RoomID, res.Error)
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.FailedExports > 0 {
		return fmt.Errorf("%w: %d room exports failed", shared.ErrAPIRequest, result.FailedExports)
	}
	return nil
}

// printProgress drains progress updates to the output until the channel closes.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			r.writePlain("[%s %d/%d] %s\n", u.Phase, u.Step, u.Total, u.Message)
		}
	}()
	return done
}
