package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// Export writes one dashboard, a saved snapshot, or every range at once with --all.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if cmd.Bool("all") {
		return r.exportAll(ctx, cmd, format)
	}

	var d *models.Dashboard
	if seq := cmd.Int("snapshot"); seq > 0 {
		repo, err := r.snapshotRepo()
		if err != nil {
			return err
		}
		s, err := repo.GetBySequence(seq)
		if err != nil {
			return err
		}
		d = s.Dashboard()
	} else {
		tr, err := r.timeRange(cmd)
		if err != nil {
			return err
		}
		if d, err = r.load(ctx, tr); err != nil {
			return err
		}
	}

	files, err := formatter.Write(d, formatter.ExportOptions{
		Format: format,
		Dir:    cmd.String("output"),
		Title:  cmd.String("title"),
	})
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.logger.Info("export complete", "format", format, "range", d.TimeRange, "files", len(files))
	r.writePlain("✓ Exported %s (%s)\n", d.TimeRange.Label(), format)
	for _, f := range files {
		r.writePlain("  %s\n", f)
	}
	return nil
}

func (r *Runner) exportAll(ctx context.Context, cmd *cli.Command, format formatter.Format) error {
	if cmd.IsSet("snapshot") || cmd.IsSet("range") {
		return fmt.Errorf("%w: --all exports every range and cannot be combined with --range or --snapshot", shared.ErrInvalidFlag)
	}
	if _, _, err := r.loggedIn(ctx, models.DefaultTimeRange); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for u := range progress {
			if u.Phase == tasks.ExportRange {
				r.writePlain("  [%d/%d] %s\n", u.Step, u.Total, u.Message)
			}
		}
	}()

	result, err := r.pipeline.BulkExport(ctx, progress, nil, tasks.BulkExportOpts{
		Format:    format,
		OutputDir: cmd.String("output"),
		Title:     cmd.String("title"),
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d of %d ranges to %s", result.Successful, result.TotalRanges, result.OutputDirectory)
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("  ✗ %s: %s\n", res.TimeRange.Label(), res.Error)
			continue
		}
		for _, f := range res.Files {
			r.writePlain("  %s\n", f)
		}
	}
	r.writePlain("Manifest: %s\n", result.ManifestPath)

	if result.Successful == 0 {
		return fmt.Errorf("%w: no range could be exported", shared.ErrLoadFailed)
	}
	return nil
}
