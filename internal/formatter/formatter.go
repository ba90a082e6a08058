// package formatter renders dashboards as CSV, Markdown, plain text and JSON, and formats values for display
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
)

// ParseFormat accepts json, csv, markdown (or md) and txt (or text).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// ExportGenresCSV writes one row per genre in ranked order: Rank, Genre, Count, Percent.
func ExportGenresCSV(d *models.Dashboard) ([]byte, error) {
	rows := [][]string{{"Rank", "Genre", "Count", "Percent"}}
	for i, g := range d.Analysis.Ranked() {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			g.Genre,
			strconv.Itoa(g.Count),
			strconv.FormatFloat(d.Analysis.Percentage(g.Count), 'f', 1, 64),
		})
	}
	return writeCSV(rows)
}

// ExportTracksCSV writes one row per track in rank order.
func ExportTracksCSV(d *models.Dashboard) ([]byte, error) {
	rows := [][]string{{"Rank", "ID", "Title", "Artists", "Album", "Duration", "Popularity", "Explicit", "URL"}}
	for i, t := range d.TopTracks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			t.ID,
			t.Name,
			t.ArtistNames(),
			t.Album.Name,
			FormatDuration(t.DurationMS),
			strconv.Itoa(t.Popularity),
			strconv.FormatBool(t.Explicit),
			t.URL(),
		})
	}
	return writeCSV(rows)
}

// ExportArtistsCSV writes one row per artist in rank order.
func ExportArtistsCSV(d *models.Dashboard) ([]byte, error) {
	rows := [][]string{{"Rank", "ID", "Name", "Genres", "Followers", "Popularity", "URL"}}
	for i, a := range d.TopArtists {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			a.ID,
			a.Name,
			strings.Join(a.Genres, "; "),
			strconv.Itoa(a.Followers.Total),
			strconv.Itoa(a.Popularity),
			a.URL(),
		})
	}
	return writeCSV(rows)
}

func writeCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders a report with a genre table, top tracks and top artists.
//
// title is used as the heading; imageFilename, when set, is embedded below it.
func ExportToMarkdown(d *models.Dashboard, title, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Listening report"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Time range**: %s\n", d.TimeRange.Label())
	fmt.Fprintf(&buf, "**Tracks analyzed**: %s\n", FormatCount(d.Analysis.TotalTracks))
	fmt.Fprintf(&buf, "**Genres**: %d\n", d.Analysis.GenreCount())
	if top, ok := d.Analysis.TopGenre(); ok {
		fmt.Fprintf(&buf, "**Top genre**: %s\n", top.Genre)
	}
	fmt.Fprintf(&buf, "**Loaded**: %s\n\n", d.LoadedAt.Format(time.RFC1123))

	buf.WriteString("## Genres\n\n")
	buf.WriteString("| # | Genre | Count | Share |\n|---|---|---|---|\n")
	for i, g := range d.Analysis.Ranked() {
		fmt.Fprintf(&buf, "| %d | %s | %d | %s |\n", i+1, escapeCell(g.Genre), g.Count, FormatPercent(d.Analysis.Percentage(g.Count)))
	}

	buf.WriteString("\n## Top tracks\n\n")
	for i, t := range d.TopTracks {
		album := ""
		if t.Album.Name != "" {
			album = fmt.Sprintf(" (%s)", t.Album.Name)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, t.ArtistNames(), t.Name, album, FormatDuration(t.DurationMS))
	}

	buf.WriteString("\n## Top artists\n\n")
	for i, a := range d.TopArtists {
		genres := ""
		if len(a.Genres) > 0 {
			genres = " - " + strings.Join(a.Genres, ", ")
		}
		fmt.Fprintf(&buf, "%d. %s (%s followers)%s\n", i+1, a.Name, FormatCount(a.Followers.Total), genres)
	}

	return buf.Bytes(), nil
}

// ExportToText renders a compact plain text summary.
func ExportToText(d *models.Dashboard) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Time range: %s\n", d.TimeRange.Label())
	fmt.Fprintf(&buf, "Tracks analyzed: %d\n\n", d.Analysis.TotalTracks)

	buf.WriteString("Genres:\n")
	for i, g := range d.Analysis.Ranked() {
		fmt.Fprintf(&buf, "%d. %s %d (%s)\n", i+1, g.Genre, g.Count, FormatPercent(d.Analysis.Percentage(g.Count)))
	}

	buf.WriteString("\nTop tracks:\n")
	for i, t := range d.TopTracks {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, t.ArtistNames(), t.Name)
	}

	buf.WriteString("\nTop artists:\n")
	for i, a := range d.TopArtists {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, a.Name)
	}

	return buf.Bytes(), nil
}

// Summary is the metadata written next to CSV exports.
type Summary struct {
	TimeRange   models.TimeRange `json:"time_range"`
	LoadedAt    time.Time        `json:"loaded_at"`
	TotalTracks int              `json:"total_tracks"`
	GenreCount  int              `json:"genre_count"`
	TopGenre    string           `json:"top_genre,omitempty"`
	TrackCount  int              `json:"track_count"`
	ArtistCount int              `json:"artist_count"`
}

func NewSummary(d *models.Dashboard) Summary {
	s := Summary{
		TimeRange:   d.TimeRange,
		LoadedAt:    d.LoadedAt,
		TotalTracks: d.Analysis.TotalTracks,
		GenreCount:  d.Analysis.GenreCount(),
		TrackCount:  len(d.TopTracks),
		ArtistCount: len(d.TopArtists),
	}
	if top, ok := d.Analysis.TopGenre(); ok {
		s.TopGenre = top.Genre
	}
	return s
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	GenresFile   string
	TracksFile   string
	ArtistsFile  string
	MetadataFile string
}

func (r *CSVExportResult) Files() []string {
	return []string{r.GenresFile, r.TracksFile, r.ArtistsFile, r.MetadataFile}
}

// WriteCSVExport creates {base}_genres.csv, {base}_tracks.csv, {base}_artists.csv and {base}_metadata.json.
func WriteCSVExport(d *models.Dashboard, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = DefaultBaseName(d)
	}

	res := &CSVExportResult{
		GenresFile:   baseFilepath + "_genres.csv",
		TracksFile:   baseFilepath + "_tracks.csv",
		ArtistsFile:  baseFilepath + "_artists.csv",
		MetadataFile: baseFilepath + "_metadata.json",
	}

	parts := []struct {
		path   string
		render func(*models.Dashboard) ([]byte, error)
	}{
		{res.GenresFile, ExportGenresCSV},
		{res.TracksFile, ExportTracksCSV},
		{res.ArtistsFile, ExportArtistsCSV},
		{res.MetadataFile, func(d *models.Dashboard) ([]byte, error) { return shared.MarshalJSON(NewSummary(d), true) }},
	}
	for _, p := range parts {
		data, err := p.render(d)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(p.path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", p.path, err)
		}
	}
	return res, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when imageURL downloads, {dir}/cover.jpg.
//
// A failed image download is logged to stderr and the report is written without it.
func WriteMarkdownExport(d *models.Dashboard, outputDir, title, imageURL string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = DefaultBaseName(d)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir}

	var cover string
	if imageURL != "" {
		if data, err := DownloadImage(imageURL); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			path := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(path, data, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
			} else {
				cover = "cover.jpg"
				result.CoverImage = path
				result.Files = append(result.Files, path)
			}
		}
	}

	md, err := ExportToMarkdown(d, title, cover)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, md, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteTextExport writes the plain text summary to path, defaulting to {base}.txt.
func WriteTextExport(d *models.Dashboard, path string) (string, error) {
	if path == "" {
		path = DefaultBaseName(d) + ".txt"
	}

	data, err := ExportToText(d)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}
	return path, nil
}

// WriteJSONExport writes the whole dashboard, bucket order included.
func WriteJSONExport(d *models.Dashboard, path string) (string, error) {
	if path == "" {
		path = DefaultBaseName(d) + ".json"
	}

	data, err := shared.MarshalJSON(d, true)
	if err != nil {
		return "", fmt.Errorf("failed to encode dashboard: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}
	return path, nil
}

// ExportOptions controls [Write].
type ExportOptions struct {
	Format   Format
	Dir      string
	BaseName string // defaults to DefaultBaseName
	Title    string // Markdown heading
	ImageURL string // Markdown cover
}

// Write exports d in opts.Format under opts.Dir and returns the files created.
func Write(d *models.Dashboard, opts ExportOptions) ([]string, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	if opts.Dir == "" {
		opts.Dir = "."
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	base := opts.BaseName
	if base == "" {
		base = DefaultBaseName(d)
	}
	target := filepath.Join(opts.Dir, base)

	switch opts.Format {
	case FormatCSV:
		res, err := WriteCSVExport(d, target)
		if err != nil {
			return nil, err
		}
		return res.Files(), nil
	case FormatMarkdown:
		res, err := WriteMarkdownExport(d, target, opts.Title, opts.ImageURL)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case FormatText:
		path, err := WriteTextExport(d, target+".txt")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	case FormatJSON, "":
		path, err := WriteJSONExport(d, target+".json")
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, opts.Format)
	}
}

// DefaultBaseName is tunedash_{time_range}_{yyyymmdd-hhmmss}.
func DefaultBaseName(d *models.Dashboard) string {
	ts := d.LoadedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return fmt.Sprintf("tunedash_%s_%s", d.TimeRange, ts.Format("20060102-150405"))
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
