package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

const ManifestFile = "export_manifest.json"

// BulkExportOpts contains configuration for exporting several time ranges at once.
type BulkExportOpts struct {
	Format     formatter.Format // json, csv, markdown, txt
	OutputDir  string           // default: tunedash_export_{epoch}
	NumWorkers int              // concurrent writers (default: 3, max: 3)
	RateLimit  float64          // loads per second (default: 1)
	Title      string           // markdown heading
}

// RangeExportResult is the outcome for one time range.
type RangeExportResult struct {
	TimeRange models.TimeRange `json:"time_range"`
	Success   bool             `json:"success"`
	Files     []string         `json:"files"`
	Error     string           `json:"error,omitempty"`
	TopGenre  string           `json:"top_genre,omitempty"`
	err       error
}

// Err is the failure cause, nil on success.
func (r RangeExportResult) Err() error { return r.err }

// BulkExportResult summarizes a bulk export and is written as the manifest.
type BulkExportResult struct {
	Format          formatter.Format    `json:"format"`
	ExportedAt      time.Time           `json:"exported_at"`
	OutputDirectory string              `json:"output_directory"`
	TotalRanges     int                 `json:"total_ranges"`
	Successful      int                 `json:"successful"`
	Failed          int                 `json:"failed"`
	Results         []RangeExportResult `json:"results"`
	ManifestPath    string              `json:"-"`
}

type exportJob struct {
	dashboard *models.Dashboard
}

// BulkExport loads each range in turn, throttled by a [rate.Limiter], and hands the loaded
// dashboards to a pool of writers. Failed ranges are recorded and do not stop the others.
//
// Results are ordered like ranges. A manifest summarizing the run is written to the output directory.
func (p *Pipeline) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	ranges []models.TimeRange,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if len(ranges) == 0 {
		ranges = models.TimeRanges()
	}
	for _, r := range ranges {
		if !r.Valid() {
			return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, r)
		}
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tunedash_export_%d", p.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	opts.NumWorkers = min(opts.NumWorkers, len(models.TimeRanges()))
	if opts.RateLimit <= 0 {
		opts.RateLimit = 1.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		ExportedAt:      p.now(),
		OutputDirectory: opts.OutputDir,
		TotalRanges:     len(ranges),
		Results:         make([]RangeExportResult, 0, len(ranges)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan exportJob, len(ranges))
	results := make(chan RangeExportResult, len(ranges))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go p.exportWorker(&wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for _, r := range ranges {
			if err := limiter.Wait(ctx); err != nil {
				results <- RangeExportResult{TimeRange: r, Error: err.Error(), err: err}
				continue
			}

			d, err := p.LoadAll(ctx, r, nil)
			if err != nil {
				results <- RangeExportResult{TimeRange: r, Error: err.Error(), err: err}
				continue
			}
			jobs <- exportJob{dashboard: d}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Results = append(result.Results, res)
		sendProgress(prog, exportRangeUpdate(completed, len(ranges), res.TimeRange, len(res.Files), res.err))
	}

	order := make(map[models.TimeRange]int, len(ranges))
	for i, r := range ranges {
		if _, ok := order[r]; !ok {
			order[r] = i
		}
	}
	sort.SliceStable(result.Results, func(i, j int) bool {
		return order[result.Results[i].TimeRange] < order[result.Results[j].TimeRange]
	})

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func (p *Pipeline) exportWorker(wg *sync.WaitGroup, jobs <-chan exportJob, results chan<- RangeExportResult, opts BulkExportOpts) {
	defer wg.Done()
	for job := range jobs {
		results <- p.exportDashboard(job.dashboard, opts)
	}
}

func (p *Pipeline) exportDashboard(d *models.Dashboard, opts BulkExportOpts) RangeExportResult {
	res := RangeExportResult{TimeRange: d.TimeRange, Files: []string{}}

	files, err := formatter.Write(d, formatter.ExportOptions{
		Format:   opts.Format,
		Dir:      opts.OutputDir,
		BaseName: fmt.Sprintf("tunedash_%s", d.TimeRange),
		Title:    opts.Title,
	})
	if err != nil {
		p.logger.Error("range export failed", "range", d.TimeRange, "error", err)
		res.err = fmt.Errorf("%s export failed: %w", opts.Format, err)
		res.Error = res.err.Error()
		return res
	}

	if top, ok := d.Analysis.TopGenre(); ok {
		res.TopGenre = top.Genre
	}
	res.Files = files
	res.Success = true
	return res
}
