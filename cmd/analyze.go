package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/dashboard"
	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// load restores the session and runs one full dashboard load for tr.
func (r *Runner) load(ctx context.Context, tr models.TimeRange) (*models.Dashboard, error) {
	ctrl, state, err := r.loggedIn(ctx, tr)
	if err != nil {
		return nil, err
	}

	stop := r.watchProgress(ctrl)
	state = ctrl.Dispatch(ctx, state, dashboard.State.Analyze)
	stop()

	if err := state.Err(); err != nil {
		return nil, err
	}
	return state.Dashboard(), nil
}

// watchProgress logs load progress until the returned func is called.
func (r *Runner) watchProgress(ctrl *dashboard.Controller) (stop func()) {
	ch := make(chan tasks.ProgressUpdate, 8)
	ctrl.Progress = ch

	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range ch {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	return func() {
		ctrl.Progress = nil
		close(ch)
		<-done
	}
}

// Analyze prints the genre breakdown with the top tracks and artists.
func (r *Runner) Analyze(ctx context.Context, cmd *cli.Command) error {
	tr, err := r.timeRange(cmd)
	if err != nil {
		return err
	}

	d, err := r.load(ctx, tr)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(d, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Listening stats · " + tr.Label())
	text, err := formatter.ExportToText(d)
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}

// Tracks prints the top tracks for the selected range.
func (r *Runner) Tracks(ctx context.Context, cmd *cli.Command) error {
	tr, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if _, _, err := r.loggedIn(ctx, tr); err != nil {
		return err
	}

	r.logger.Info("fetching top tracks", "range", tr)
	tracks, err := r.backend.TopTracks(ctx, tr)
	if err != nil {
		return err
	}
	tracks = limit(tracks, cmd.Int("limit"))

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Top tracks · " + tr.Label())
	for i, t := range tracks {
		r.writePlain("%3d. %-36s %-28s %6s\n", i+1,
			formatter.Truncate(t.Name, 36),
			formatter.Truncate(t.ArtistNames(), 28),
			formatter.FormatDuration(t.DurationMS))
	}
	return nil
}

// Artists prints the top artists for the selected range.
func (r *Runner) Artists(ctx context.Context, cmd *cli.Command) error {
	tr, err := r.timeRange(cmd)
	if err != nil {
		return err
	}
	if _, _, err := r.loggedIn(ctx, tr); err != nil {
		return err
	}

	r.logger.Info("fetching top artists", "range", tr)
	artists, err := r.backend.TopArtists(ctx, tr)
	if err != nil {
		return err
	}
	artists = limit(artists, cmd.Int("limit"))

	if cmd.Bool("json") {
		return r.writeJSON(artists, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Top artists · " + tr.Label())
	for i, a := range artists {
		r.writePlain("%3d. %-28s %12s followers  %3d  %s\n", i+1,
			formatter.Truncate(a.Name, 28),
			formatter.FormatCount(a.Followers.Total),
			a.Popularity,
			formatter.Truncate(strings.Join(a.Genres, ", "), 40))
	}
	return nil
}

func limit[T any](items []T, n int) []T {
	if n > 0 && n < len(items) {
		return items[:n]
	}
	return items
}
