// Package tasks loads the listening dashboard from the backend with real-time progress reporting.
//
// # Loading
//
// [Pipeline.LoadAll] fetches the genre analysis, top tracks and top artists for one time
// range concurrently and waits for all three before building a [models.Dashboard]. A load
// either yields a complete dashboard or a [*LoadError] naming the first failed dataset in the
// order analysis, tracks, artists. Partial results are never returned.
//
// Successful loads are handed to an optional [SnapshotSaver] so past dashboards can be browsed
// offline.
//
// # Bulk export
//
// [Pipeline.BulkExport] loads several ranges with a rate limiter and writes each through a
// worker pool, then records the run in an export manifest.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
