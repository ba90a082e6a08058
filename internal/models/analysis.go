package models

import (
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// GenreCount pairs a genre label with its number of occurrences.
//
// On the wire it is a two element array: ["pop", 5].
type GenreCount struct {
	Genre string
	Count int
}

func (g GenreCount) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{g.Genre, g.Count})
}

func (g *GenreCount) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("genre count: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("genre count: expected 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &g.Genre); err != nil {
		return fmt.Errorf("genre count label: %w", err)
	}
	if err := json.Unmarshal(pair[1], &g.Count); err != nil {
		return fmt.Errorf("genre count value: %w", err)
	}
	return nil
}

// AnalysisResult is the payload of GET /api/analysis.
//
// Derived values (ranking, totals, percentages) are recomputed from Buckets on every call.
type AnalysisResult struct {
	TotalTracks int          `json:"total_tracks"`
	Buckets     Buckets      `json:"buckets"`
	TopGenres   []GenreCount `json:"top_genres"`
}

// Ranked returns the buckets sorted by count descending.
// Ties keep their bucket order.
func (a AnalysisResult) Ranked() []GenreCount {
	ranked := make([]GenreCount, len(a.Buckets))
	copy(ranked, a.Buckets)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// Total sums the bucket counts.
func (a AnalysisResult) Total() int {
	total := 0
	for _, b := range a.Buckets {
		total += b.Count
	}
	return total
}

// Percentage returns count as a share of [AnalysisResult.Total], in the range 0-100.
func (a AnalysisResult) Percentage(count int) float64 {
	total := a.Total()
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// TopGenre is the first entry of [AnalysisResult.Ranked].
func (a AnalysisResult) TopGenre() (GenreCount, bool) {
	ranked := a.Ranked()
	if len(ranked) == 0 {
		return GenreCount{}, false
	}
	return ranked[0], true
}

// GenreCount is the number of distinct genres.
func (a AnalysisResult) GenreCount() int {
	return len(a.Buckets)
}

// Empty reports whether there is nothing to chart.
func (a AnalysisResult) Empty() bool {
	return len(a.Buckets) == 0
}
