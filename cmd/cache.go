package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

func (r *Runner) requireCache() error {
	if r.tracks == nil {
		return fmt.Errorf("%w: track cache needs a database, run 'roomsync setup'", shared.ErrServiceUnavailable)
	}
	return nil
}

// CacheTracks lists tracks cached from searches, room views and imports.
func (r *Runner) CacheTracks(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}

	cached, err := r.tracks.List(map[string]any{
		"query":  cmd.String("query"),
		"artist": cmd.String("artist"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]models.Track, 0, len(cached))
		for _, c := range cached {
			out = append(out, c.Track())
		}
		return r.writeJSON(out, true)
	}

	if len(cached) == 0 {
		return r.writePlain("No cached tracks\n")
	}

	rows := make([][]string, 0, len(cached))
	for _, c := range cached {
		rows = append(rows, []string{
			strconv.Itoa(c.Sequence()),
			c.TrackID(),
			c.Name(),
			c.Artist(),
			formatter.FormatDuration(c.Duration()),
			humanize.Time(c.UpdatedAt()),
		})
	}
	r.writePlain("%s\n", renderTable(
		[]string{"#", "Track ID", "Name", "Artist", "Length", "Seen"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return r.writePlain("%s\n", english.Plural(len(cached), "cached track", "cached tracks"))
}

// CacheRemove drops one track from the cache by its catalog ID.
func (r *Runner) CacheRemove(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCache(); err != nil {
		return err
	}
	trackID, err := requireArg(cmd, "track")
	if err != nil {
		return err
	}

	cached, err := r.tracks.GetByTrackID(trackID)
	if errors.Is(err, shared.ErrTrackNotFound) {
		return fmt.Errorf("%w: %s is not cached", shared.ErrTrackNotFound, trackID)
	} else if err != nil {
		return err
	}

	if err := r.tracks.Delete(cached.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Removed %s - %s from the cache\n", cached.Artist(), cached.Name())
}

// cacheCommand handles the local track cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local track cache",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List cached tracks",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Filter by name or artist substring",
					},
					&cli.StringFlag{
						Name:  "artist",
						Usage: "Filter by exact artist",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of tracks to list",
						Value: 50,
					},
					jsonFlag(),
				},
				Action: r.CacheTracks,
			},
			{
				Name:  "remove",
				Usage: "Remove a track from the cache",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "track"},
				},
				Action: r.CacheRemove,
			},
		},
	}
}
