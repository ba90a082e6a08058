package models

import (
	"fmt"
	"time"
)

// Dashboard holds the three result slots of a load plus the derived chart.
// A Dashboard only exists when all three fetches succeeded.
type Dashboard struct {
	TimeRange  TimeRange      `json:"time_range"`
	Analysis   AnalysisResult `json:"analysis"`
	TopTracks  []Track        `json:"top_tracks"`
	TopArtists []Artist       `json:"top_artists"`
	Chart      ChartSeries    `json:"chart"`
	LoadedAt   time.Time      `json:"loaded_at"`
}

// NewDashboard assembles a [Dashboard] and regenerates its chart from the analysis.
func NewDashboard(r TimeRange, a AnalysisResult, tracks []Track, artists []Artist, p Palette, loadedAt time.Time) *Dashboard {
	if tracks == nil {
		tracks = []Track{}
	}
	if artists == nil {
		artists = []Artist{}
	}
	return &Dashboard{
		TimeRange:  r,
		Analysis:   a,
		TopTracks:  tracks,
		TopArtists: artists,
		Chart:      NewChartSeries(a, p),
		LoadedAt:   loadedAt,
	}
}

// Recolor rebuilds the chart with a different palette.
func (d *Dashboard) Recolor(p Palette) {
	d.Chart = NewChartSeries(d.Analysis, p)
}

func (d *Dashboard) Validate() error {
	if d == nil {
		return fmt.Errorf("dashboard is nil")
	}
	if !d.TimeRange.Valid() {
		return fmt.Errorf("invalid time range %q", d.TimeRange)
	}
	if d.TopTracks == nil || d.TopArtists == nil {
		return fmt.Errorf("dashboard is missing result slots")
	}
	return nil
}
