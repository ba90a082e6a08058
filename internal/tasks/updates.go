package tasks

import (
	"fmt"

	"github.com/desertthunder/tunedash/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadStarted Phase = iota
	FetchAnalysis
	FetchTracks
	FetchArtists
	BuildChart
	SaveSnapshot
	LoadComplete
	LoadFailed
	ExportRange
)

func (p Phase) String() string {
	switch p {
	case LoadStarted:
		return "load_started"
	case FetchAnalysis:
		return "fetch_analysis"
	case FetchTracks:
		return "fetch_tracks"
	case FetchArtists:
		return "fetch_artists"
	case BuildChart:
		return "build_chart"
	case SaveSnapshot:
		return "save_snapshot"
	case LoadComplete:
		return "load_complete"
	case LoadFailed:
		return "load_failed"
	case ExportRange:
		return "export_range"
	default:
		return ""
	}
}

// sendProgress delivers update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadStartedUpdate(r models.TimeRange) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadStarted,
		Step:    0,
		Total:   fetchCount,
		Message: fmt.Sprintf("Loading listening stats (%s)...", r.Label()),
		Data:    r,
	}
}

func fetchedUpdate(c Category, step int) ProgressUpdate {
	phase := FetchAnalysis
	switch c {
	case CategoryTracks:
		phase = FetchTracks
	case CategoryArtists:
		phase = FetchArtists
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   fetchCount,
		Message: fmt.Sprintf("[%d/%d] Fetched %s", step, fetchCount, c),
	}
}

func buildChartUpdate(labels int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildChart,
		Step:    fetchCount,
		Total:   fetchCount,
		Message: fmt.Sprintf("Building chart for %d genres...", labels),
	}
}

func snapshotUpdate(err error) ProgressUpdate {
	msg := "Saved snapshot"
	if err != nil {
		msg = fmt.Sprintf("Snapshot not saved: %v", err)
	}
	return ProgressUpdate{Phase: SaveSnapshot, Step: fetchCount, Total: fetchCount, Message: msg}
}

func loadCompleteUpdate(d *models.Dashboard) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadComplete,
		Step:    fetchCount,
		Total:   fetchCount,
		Message: fmt.Sprintf("Loaded %d genres, %d tracks, %d artists", d.Analysis.GenreCount(), len(d.TopTracks), len(d.TopArtists)),
		Data:    d,
	}
}

func loadFailedUpdate(err *LoadError) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadFailed,
		Total:   fetchCount,
		Message: err.Message(),
		Data:    err,
	}
}

func exportRangeUpdate(step, total int, r models.TimeRange, files int, err error) ProgressUpdate {
	if err != nil {
		return ProgressUpdate{
			Phase:   ExportRange,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, r.Label(), err),
		}
	}
	return ProgressUpdate{
		Phase:   ExportRange,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, r.Label(), files),
	}
}
