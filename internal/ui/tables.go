package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/desertthunder/tunedash/internal/formatter"
	"github.com/desertthunder/tunedash/internal/models"
)

// Panel selects which table has focus.
type Panel int

const (
	TracksPanel Panel = iota
	ArtistsPanel
)

func (p Panel) String() string {
	if p == ArtistsPanel {
		return "Top Artists"
	}
	return "Top Tracks"
}

func newTable(height int) table.Model {
	t := table.New(table.WithHeight(height))
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#1DB954"))
	t.SetStyles(s)
	return t
}

// trackColumns splits the free width between title, artists and album.
func trackColumns(width int) []table.Column {
	free := max(width-4-6-8, 30)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Title", Width: free * 2 / 5},
		{Title: "Artists", Width: free * 3 / 10},
		{Title: "Album", Width: free * 3 / 10},
		{Title: "Time", Width: 6},
	}
}

func trackRows(tracks []models.Track, cols []table.Column) []table.Row {
	rows := make([]table.Row, len(tracks))
	for i, t := range tracks {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			formatter.Truncate(t.Name, cols[1].Width),
			formatter.Truncate(t.ArtistNames(), cols[2].Width),
			formatter.Truncate(t.Album.Name, cols[3].Width),
			formatter.FormatDuration(t.DurationMS),
		}
	}
	return rows
}

func artistColumns(width int) []table.Column {
	free := max(width-4-12-10-8, 30)
	return []table.Column{
		{Title: "#", Width: 4},
		{Title: "Name", Width: free * 2 / 5},
		{Title: "Genres", Width: free * 3 / 5},
		{Title: "Followers", Width: 12},
		{Title: "Popularity", Width: 10},
	}
}

func artistRows(artists []models.Artist, cols []table.Column) []table.Row {
	rows := make([]table.Row, len(artists))
	for i, a := range artists {
		rows[i] = table.Row{
			strconv.Itoa(i + 1),
			formatter.Truncate(a.Name, cols[1].Width),
			formatter.Truncate(strings.Join(a.Genres, ", "), cols[2].Width),
			formatter.FormatCount(a.Followers.Total),
			strconv.Itoa(a.Popularity),
		}
	}
	return rows
}
