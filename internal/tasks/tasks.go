package tasks

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/services"
	"github.com/desertthunder/tunedash/internal/shared"
)

const fetchCount = 3

// Category names one of the three datasets of a load.
type Category int

const (
	CategoryAnalysis Category = iota
	CategoryTracks
	CategoryArtists
)

func (c Category) String() string {
	switch c {
	case CategoryAnalysis:
		return "analysis data"
	case CategoryTracks:
		return "top tracks"
	case CategoryArtists:
		return "top artists"
	default:
		return "unknown"
	}
}

// LoadError reports the first failed dataset of a load, checked in the fixed order
// analysis, tracks, artists.
type LoadError struct {
	Category Category
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.Category, e.Err)
}

// Message is the user-facing text, without the underlying cause.
func (e *LoadError) Message() string {
	return fmt.Sprintf("Failed to fetch %s", e.Category)
}

func (e *LoadError) Unwrap() []error {
	return []error{shared.ErrLoadFailed, e.Err}
}

// Fetcher is the part of [services.Service] a load needs.
type Fetcher interface {
	Analysis(ctx context.Context) (*models.AnalysisResult, error)
	TopTracks(ctx context.Context, r models.TimeRange) ([]models.Track, error)
	TopArtists(ctx context.Context, r models.TimeRange) ([]models.Artist, error)
}

var _ Fetcher = (services.Service)(nil)

// SnapshotSaver persists successful loads.
type SnapshotSaver interface {
	SaveDashboard(owner string, d *models.Dashboard) (*models.Snapshot, error)
}

// Pipeline runs dashboard loads.
type Pipeline struct {
	fetcher Fetcher
	palette models.Palette
	saver   SnapshotSaver
	logger  *log.Logger
	now     func() time.Time

	mu    sync.RWMutex
	owner string
}

// PipelineOpts holds optional dependencies; nil values get defaults.
type PipelineOpts struct {
	Palette models.Palette
	Saver   SnapshotSaver
	Logger  *log.Logger
	Now     func() time.Time
}

func NewPipeline(fetcher Fetcher, opts PipelineOpts) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		palette: opts.Palette,
		saver:   opts.Saver,
		logger:  opts.Logger,
		now:     opts.Now,
	}
	if len(p.palette) == 0 {
		p.palette = models.DefaultPalette
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// SetOwner labels snapshots saved from now on, normally with the user's display name.
func (p *Pipeline) SetOwner(owner string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.owner = owner
}

func (p *Pipeline) Owner() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.owner
}

// LoadAll fetches analysis, top tracks and top artists concurrently and waits for all three.
//
// The result is all or nothing: on any failure it returns nil and a [*LoadError] for the first
// failed dataset. The goroutines share no cancellation, so a slow fetch does not turn into a
// misleading "context canceled" for a different category. A snapshot save failure is logged
// and does not fail the load.
func (p *Pipeline) LoadAll(ctx context.Context, r models.TimeRange, progress chan<- ProgressUpdate) (*models.Dashboard, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: time range %q", shared.ErrInvalidArgument, r)
	}

	sendProgress(progress, loadStartedUpdate(r))
	started := p.now()

	var (
		analysis *models.AnalysisResult
		tracks   []models.Track
		artists  []models.Artist
		errs     [fetchCount]error
		done     atomic.Int32
		g        errgroup.Group
	)

	fetch := func(c Category, fn func() error) {
		g.Go(func() error {
			if err := fn(); err != nil {
				errs[c] = err
				return err
			}
			sendProgress(progress, fetchedUpdate(c, int(done.Add(1))))
			return nil
		})
	}

	fetch(CategoryAnalysis, func() (err error) {
		analysis, err = p.fetcher.Analysis(ctx)
		return err
	})
	fetch(CategoryTracks, func() (err error) {
		tracks, err = p.fetcher.TopTracks(ctx, r)
		return err
	})
	fetch(CategoryArtists, func() (err error) {
		artists, err = p.fetcher.TopArtists(ctx, r)
		return err
	})
	if err := g.Wait(); err != nil {
		// Wait reports whichever fetch failed first in time; the error names the first in category order.
		lerr := firstLoadError(errs)
		p.logger.Warn("dashboard load failed", "range", r, "category", lerr.Category, "error", lerr.Err)
		sendProgress(progress, loadFailedUpdate(lerr))
		return nil, lerr
	}

	if analysis == nil {
		analysis = &models.AnalysisResult{}
	}
	sendProgress(progress, buildChartUpdate(analysis.GenreCount()))
	d := models.NewDashboard(r, *analysis, tracks, artists, p.palette, p.now())

	p.logger.Info("loaded dashboard", "range", r, "genres", analysis.GenreCount(),
		"tracks", len(d.TopTracks), "artists", len(d.TopArtists), "took", d.LoadedAt.Sub(started))

	if p.saver != nil {
		_, err := p.saver.SaveDashboard(p.Owner(), d)
		if err != nil {
			p.logger.Error("failed to save snapshot", "range", r, "error", err)
		}
		sendProgress(progress, snapshotUpdate(err))
	}

	sendProgress(progress, loadCompleteUpdate(d))
	return d, nil
}

func firstLoadError(errs [fetchCount]error) *LoadError {
	for c, err := range errs {
		if err != nil {
			return &LoadError{Category: Category(c), Err: err}
		}
	}
	return nil
}

// ShouldReload is the time range effect rule: a range change reloads only when data is
// already loaded and no load is in flight.
func ShouldReload(prev, next models.TimeRange, loaded, loading bool) bool {
	return prev != next && loaded && !loading
}
