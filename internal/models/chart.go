package models

// Palette is an ordered list of hex colours assigned to chart labels by index.
type Palette []string

// DefaultPalette holds the fifteen chart colours of the web dashboard.
var DefaultPalette = Palette{
	"#1DB954", "#FF6B6B", "#4ECDC4", "#45B7D1", "#FFE66D",
	"#FF9F43", "#A8E6CF", "#FFB3BA", "#BFBFFF", "#C7CEEA",
	"#F8B500", "#FF8A80", "#81C784", "#64B5F6", "#F06292",
}

// ChartSeries is a read-only chart view of an [AnalysisResult].
//
// Colors is never longer than Labels or the palette; labels past the end of the
// palette have no colour rather than a repeated one.
type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
	Colors []string `json:"colors"`
}

// NewChartSeries builds labels and values in bucket order and assigns palette colours by index.
func NewChartSeries(a AnalysisResult, p Palette) ChartSeries {
	s := ChartSeries{
		Labels: make([]string, 0, len(a.Buckets)),
		Values: make([]int, 0, len(a.Buckets)),
	}
	for _, b := range a.Buckets {
		s.Labels = append(s.Labels, b.Genre)
		s.Values = append(s.Values, b.Count)
	}

	n := min(len(s.Labels), len(p))
	s.Colors = make([]string, n)
	copy(s.Colors, p[:n])
	return s
}

func (s ChartSeries) Len() int {
	return len(s.Labels)
}

// Color returns the colour for the label at i, or false when the palette ran out.
func (s ChartSeries) Color(i int) (string, bool) {
	if i < 0 || i >= len(s.Colors) {
		return "", false
	}
	return s.Colors[i], true
}

// ColorFor looks up the colour assigned to genre.
func (s ChartSeries) ColorFor(genre string) (string, bool) {
	for i, l := range s.Labels {
		if l == genre {
			return s.Color(i)
		}
	}
	return "", false
}
