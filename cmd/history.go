package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

type snapshotSummary struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Owner     string    `json:"owner,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	formatter.Summary
}

func summarize(s *models.Snapshot) snapshotSummary {
	return snapshotSummary{
		ID:        s.ID(),
		Sequence:  s.Sequence(),
		Owner:     s.Owner(),
		CreatedAt: s.CreatedAt(),
		Summary:   formatter.NewSummary(s.Dashboard()),
	}
}

// HistoryList prints saved snapshots, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.snapshotRepo()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": cmd.Int("limit")}
	if cmd.IsSet("range") {
		tr, err := r.timeRange(cmd)
		if err != nil {
			return err
		}
		criteria["time_range"] = tr
	}

	snapshots, err := repo.List(criteria)
	if err != nil {
		return err
	}

	summaries := make([]snapshotSummary, len(snapshots))
	for i, s := range snapshots {
		summaries[i] = summarize(s)
	}
	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		return r.writePlain("No snapshots saved yet. Run 'tunedash analyze' to create one.\n")
	}
	r.writePlainHeader("Snapshots")
	for _, s := range summaries {
		top := s.TopGenre
		if top == "" {
			top = "-"
		}
		r.writePlain("#%-4d %s  %-14s top genre %-20s %s tracks\n",
			s.Sequence, s.CreatedAt.Local().Format("2006-01-02 15:04"), s.TimeRange.Label(), top,
			formatter.FormatCount(s.TotalTracks))
	}
	return nil
}

// snapshotArg resolves the sequence argument. Without one, latest picks the newest
// snapshot of --range; otherwise the argument is required.
func (r *Runner) snapshotArg(cmd *cli.Command, latest bool) (*models.Snapshot, error) {
	repo, err := r.snapshotRepo()
	if err != nil {
		return nil, err
	}

	seq := cmd.IntArg("sequence")
	if seq > 0 {
		return repo.GetBySequence(seq)
	}
	if !latest {
		return nil, fmt.Errorf("%w: snapshot sequence", shared.ErrMissingArgument)
	}

	tr, err := r.timeRange(cmd)
	if err != nil {
		return nil, err
	}
	return repo.Latest(tr)
}

// HistoryShow prints one snapshot, or the latest of --range when no sequence is given.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshotArg(cmd, true)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(s.Dashboard(), cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Snapshot #%d · %s", s.Sequence(), s.CreatedAt().Local().Format(time.RFC1123)))
	text, err := formatter.ExportToText(s.Dashboard())
	if err != nil {
		return err
	}
	_, err = r.output.Write(text)
	return err
}

// HistoryDelete soft-deletes one snapshot.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	s, err := r.snapshotArg(cmd, false)
	if err != nil {
		return err
	}
	if err := r.snapshots.Delete(s.ID()); err != nil {
		return err
	}
	r.logger.Info("snapshot deleted", "sequence", s.Sequence(), "id", s.ID())
	return r.writePlain("✓ Deleted snapshot #%d\n", s.Sequence())
}

// HistoryPrune keeps the newest --keep snapshots of each time range.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	keep := cmd.Int("keep")
	if keep < 0 {
		return fmt.Errorf("%w: --keep must not be negative", shared.ErrInvalidFlag)
	}

	repo, err := r.snapshotRepo()
	if err != nil {
		return err
	}
	n, err := repo.Prune(keep)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Pruned %d snapshot(s)\n", n)
}
