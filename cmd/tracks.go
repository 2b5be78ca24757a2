package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/formatter"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

func trackRows(tracks []models.Track) [][]string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{t.ID, t.Name, t.Artist, formatter.FormatDuration(t.Duration)})
	}
	return rows
}

var trackHeaders = []string{"ID", "Name", "Artist", "Length"}
var trackAligns = []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}

// TracksSearch queries the catalog and caches the results.
func (r *Runner) TracksSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	query, err := requireArg(cmd, "query")
	if err != nil {
		return err
	}

	res := r.session.SearchTracks(ctx, query)
	if err := resultErr("search", res); err != nil {
		return err
	}
	r.cacheTracks(res.Tracks...)

	tracks := res.Tracks
	if limit := cmd.Int("limit"); limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}
	if len(tracks) == 0 {
		return r.writePlain("No tracks found for %q\n", query)
	}
	r.writePlain("%s\n", renderTable(trackHeaders, trackRows(tracks), trackAligns))
	return nil
}

// TracksShow prints one catalog track.
func (r *Runner) TracksShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}

	res := r.session.GetTrack(ctx, id)
	if err := resultErr("get track", res); err != nil {
		return err
	}
	r.cacheTracks(*res.Track)

	if cmd.Bool("json") {
		return r.writeJSON(res.Track, cmd.Bool("pretty"))
	}

	t := res.Track
	r.writePlain("ID:       %s\n", t.ID)
	r.writePlain("Name:     %s\n", t.Name)
	r.writePlain("Artist:   %s\n", t.Artist)
	r.writePlain("Length:   %s\n", formatter.FormatDuration(t.Duration))
	if t.ReleaseDate != "" {
		r.writePlain("Released: %s\n", t.ReleaseDate)
	}
	if t.ImageURL != "" {
		r.writePlain("Cover:    %s\n", t.ImageURL)
	}
	return nil
}

// TracksCreate registers a track that the catalog search cannot find.
func (r *Runner) TracksCreate(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	input := models.TrackInput{
		Path:     cmd.String("path"),
		Name:     cmd.String("name"),
		Artist:   cmd.String("artist"),
		ImageURL: cmd.String("image"),
		Duration: cmd.Int("duration"),
	}
	if err := input.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	res := r.session.CreateManualTrack(ctx, input)
	if err := resultErr("create track", res); err != nil {
		return err
	}
	if res.Track == nil {
		return r.writePlain("✓ Track created: %s\n", input.Name)
	}
	r.cacheTracks(*res.Track)

	if cmd.Bool("json") {
		return r.writeJSON(res.Track, true)
	}
	return r.writePlain("✓ Track created: %s (%s)\n", res.Track.Name, res.Track.ID)
}
