package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
)

const (
	maxLabelWidth = 18
	legendSize    = 10
	barRune       = "█"
)

// renderChart draws one horizontal bar per genre in bucket order, coloured from the chart
// series. Genres past the end of the palette are drawn uncoloured.
func renderChart(d *models.Dashboard, width int) string {
	s := d.Chart
	if s.Len() == 0 {
		return styles.help.Render("No genre data for this range.")
	}

	labelWidth := 0
	maxValue := 0
	for i, label := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(formatter.Truncate(label, maxLabelWidth)))
		maxValue = max(maxValue, s.Values[i])
	}

	// label, space, bar, space, count, space, percent
	barWidth := max(width-labelWidth-20, 10)

	var b strings.Builder
	for i, label := range s.Labels {
		value := s.Values[i]
		n := 0
		if value > 0 {
			n = max(value*barWidth/maxValue, 1)
		}

		bar := strings.Repeat(barRune, n)
		if c, ok := s.Color(i); ok {
			bar = styles.As(bar, lipgloss.Color(c))
		}

		name := formatter.Truncate(label, maxLabelWidth)
		pad := strings.Repeat(" ", labelWidth-lipgloss.Width(name))
		fmt.Fprintf(&b, "%s%s %s %d (%s)\n", name, pad, bar, value,
			formatter.FormatPercent(d.Analysis.Percentage(value)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderLegend lists the ranked genres with their chart colour.
func renderLegend(d *models.Dashboard) string {
	ranked := d.Analysis.Ranked()
	if len(ranked) == 0 {
		return ""
	}

	parts := make([]string, 0, min(len(ranked), legendSize))
	for i, g := range ranked {
		if i == legendSize {
			break
		}
		swatch := "■"
		if c, ok := d.Chart.ColorFor(g.Genre); ok {
			swatch = styles.As(swatch, lipgloss.Color(c))
		}
		parts = append(parts, fmt.Sprintf("%s %d. %s", swatch, i+1, g.Genre))
	}
	return strings.Join(parts, "  ")
}

// renderSummary is the one-line overview above the chart.
func renderSummary(d *models.Dashboard) string {
	a := d.Analysis
	line := fmt.Sprintf("%s tracks analyzed · %d genres", formatter.FormatCount(a.TotalTracks), a.GenreCount())
	if top, ok := a.TopGenre(); ok {
		line += fmt.Sprintf(" · top genre %s (%s)", styles.ok.Render(top.Genre), formatter.FormatPercent(a.Percentage(top.Count)))
	}
	return line
}
