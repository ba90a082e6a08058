package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunedash/internal/dashboard"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
	"github.com/desertthunder/tunedash/internal/tasks"
)

const (
	defaultWidth  = 100
	defaultHeight = 30
	tableHeight   = 10
)

// Options configures a [Model].
type Options struct {
	TimeRange models.TimeRange // initial range
	LoginURL  string           // shown while the browser login is pending
	Open      shared.Opener    // opens tracks and artists; defaults to shared.OpenBrowser
	Logger    *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	ctrl         *dashboard.Controller
	state        dashboard.State
	opts         Options
	logger       *log.Logger
	width        int
	height       int
	spinner      spinner.Model
	tracks       table.Model
	artists      table.Model
	panel        Panel
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	notice       string
	loginPending bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model. Load progress from ctrl is routed to the model.
func NewModel(ctx context.Context, ctrl *dashboard.Controller, opts Options) *Model {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	progress := make(chan tasks.ProgressUpdate, 16)
	ctrl.Progress = progress

	m := &Model{
		ctx:          ctx,
		ctrl:         ctrl,
		state:        dashboard.New(opts.TimeRange),
		opts:         opts,
		logger:       logger,
		width:        defaultWidth,
		height:       defaultHeight,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.ok)),
		tracks:       newTable(tableHeight),
		artists:      newTable(tableHeight),
		progressChan: progress,
		help:         help.New(),
		keys:         newKeyMap(),
	}
	m.resizeTables()
	m.tracks.Focus()
	return m
}

// State is the current application state.
func (m *Model) State() dashboard.State {
	return m.state
}

// Init starts the spinner, the session check and the progress listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(dashboard.Restore()), m.waitForProgress())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeTables()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case outcomeMsg:
		if r, ok := msg.outcome.(dashboard.SessionResolved); ok {
			m.loginPending = false
			if r.Err != nil {
				m.notice = fmt.Sprintf("Login failed: %v", r.Err)
			}
		}
		return m, m.apply(msg.outcome.Apply)

	case progressMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case openedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("Could not open %s: %v", msg.target, msg.err)
		} else {
			m.notice = "Opened " + msg.target
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply runs a state operation and schedules its effect.
func (m *Model) apply(op func(dashboard.State) (dashboard.State, dashboard.Effect)) tea.Cmd {
	prev := m.state
	next, effect := op(m.state)
	m.state = next

	if prev.Status() != next.Status() {
		m.logger.Debug("state change", "from", prev.Status(), "to", next.Status(), "range", next.TimeRange())
	}
	if next.Dashboard() != prev.Dashboard() {
		m.syncTables()
	}
	if effect == nil {
		return nil
	}
	return m.run(effect)
}

func (m *Model) run(effect dashboard.Effect) tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return outcomeMsg{outcome: ctrl.Execute(ctx, effect)}
	}
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		return progressMsg(<-ch)
	}
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}

	switch st := m.state.Status(); {
	case st == dashboard.LoggedOut:
		if key.Matches(msg, m.keys.connect) {
			m.notice = ""
			m.loginPending = true
			return m, m.apply(dashboard.State.BeginLogin)
		}
		return m, nil
	case !st.LoggedIn():
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.analyze):
		return m, m.apply(dashboard.State.Analyze)
	case key.Matches(msg, m.keys.short):
		return m, m.setRange(models.ShortTerm)
	case key.Matches(msg, m.keys.medium):
		return m, m.setRange(models.MediumTerm)
	case key.Matches(msg, m.keys.long):
		return m, m.setRange(models.LongTerm)
	case key.Matches(msg, m.keys.dismiss):
		return m, m.apply(dashboard.State.DismissError)
	case key.Matches(msg, m.keys.logout):
		m.notice = ""
		return m, m.apply(dashboard.State.Logout)
	case key.Matches(msg, m.keys.tab):
		m.switchPanel()
		return m, nil
	case key.Matches(msg, m.keys.open):
		return m, m.openSelected()
	}

	var cmd tea.Cmd
	if m.panel == ArtistsPanel {
		m.artists, cmd = m.artists.Update(msg)
	} else {
		m.tracks, cmd = m.tracks.Update(msg)
	}
	return m, cmd
}

func (m *Model) setRange(r models.TimeRange) tea.Cmd {
	return m.apply(func(s dashboard.State) (dashboard.State, dashboard.Effect) {
		return s.SetTimeRange(r)
	})
}

func (m *Model) switchPanel() {
	if m.panel == TracksPanel {
		m.panel = ArtistsPanel
		m.tracks.Blur()
		m.artists.Focus()
		return
	}
	m.panel = TracksPanel
	m.artists.Blur()
	m.tracks.Focus()
}

// selectedURL is the external URL of the highlighted row.
func (m *Model) selectedURL() (name, target string) {
	d := m.state.Dashboard()
	if d == nil {
		return "", ""
	}
	if m.panel == ArtistsPanel {
		if i := m.artists.Cursor(); i >= 0 && i < len(d.TopArtists) {
			return d.TopArtists[i].Name, d.TopArtists[i].URL()
		}
		return "", ""
	}
	if i := m.tracks.Cursor(); i >= 0 && i < len(d.TopTracks) {
		return d.TopTracks[i].Name, d.TopTracks[i].URL()
	}
	return "", ""
}

func (m *Model) openSelected() tea.Cmd {
	name, target := m.selectedURL()
	if name == "" {
		return nil
	}
	if target == "" {
		m.notice = fmt.Sprintf("%s has no link", name)
		return nil
	}
	open := m.opts.Open
	return func() tea.Msg {
		return openedMsg{target: name, err: open(target)}
	}
}

func (m *Model) resizeTables() {
	w := max(m.width-4, 40)
	m.tracks.SetColumns(trackColumns(w))
	m.artists.SetColumns(artistColumns(w))
	m.tracks.SetWidth(w)
	m.artists.SetWidth(w)
	m.syncTables()
}

func (m *Model) syncTables() {
	d := m.state.Dashboard()
	if d == nil {
		m.tracks.SetRows(nil)
		m.artists.SetRows(nil)
		return
	}
	m.tracks.SetRows(trackRows(d.TopTracks, m.tracks.Columns()))
	m.artists.SetRows(artistRows(d.TopArtists, m.artists.Columns()))
	if len(d.TopTracks) > 0 {
		m.tracks.SetCursor(0)
	}
	if len(d.TopArtists) > 0 {
		m.artists.SetCursor(0)
	}
}

// View renders the UI based on the current state.
func (m *Model) View() string {
	var body string
	switch m.state.Status() {
	case dashboard.Initializing:
		body = m.renderInitializing()
	case dashboard.LoggedOut:
		body = m.renderLoggedOut()
	default:
		body = m.renderDashboard()
	}

	if m.notice != "" {
		body += "\n\n" + styles.warn.Render(m.notice)
	}
	return body + "\n\n" + m.renderHelp()
}

func (m *Model) renderInitializing() string {
	msg := "Checking session..."
	if m.loginPending {
		msg = "Waiting for login in your browser..."
		if m.opts.LoginURL != "" {
			msg += "\n\n" + styles.help.Render(m.opts.LoginURL)
		}
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), msg)
}

func (m *Model) renderLoggedOut() string {
	title := styles.title.Render("tunedash")
	return fmt.Sprintf("%s\nConnect your music account to see your top genres, tracks and artists.\n\n%s",
		title, styles.help.Render("Press c to connect."))
}

func (m *Model) renderDashboard() string {
	var sections []string
	sections = append(sections, m.renderHeader())

	if err := m.state.Err(); err != nil {
		sections = append(sections, renderErrorCard(err))
	}

	d := m.state.Dashboard()
	switch {
	case m.state.Status() == dashboard.Loading && d == nil:
		msg := m.progress.Message
		if msg == "" {
			msg = "Loading listening stats..."
		}
		sections = append(sections, fmt.Sprintf("%s %s", m.spinner.View(), msg))
	case d == nil && m.state.Status() == dashboard.Idle:
		sections = append(sections, styles.help.Render("Press a to analyze your listening."))
	case d != nil:
		sections = append(sections,
			renderSummary(d),
			renderChart(d, m.width),
			renderLegend(d),
			m.renderTables(),
		)
	}
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderHeader() string {
	name := m.state.User().Name()
	if name == "" {
		name = "Logged in"
	}

	var ranges []string
	for i, r := range models.TimeRanges() {
		label := fmt.Sprintf("[%d] %s", i+1, r.Label())
		if r == m.state.TimeRange() {
			label = styles.active.Render(label)
		}
		ranges = append(ranges, label)
	}

	line := fmt.Sprintf("%s · %s   %s", styles.ok.Render("tunedash"), name, strings.Join(ranges, "  "))
	if badge := m.renderBadge(); badge != "" {
		line += "   " + badge
	}
	return line
}

func (m *Model) renderBadge() string {
	switch {
	case m.state.Updating():
		return styles.On("Updating...", lipgloss.Color("#FFA500"))
	case m.state.Status() == dashboard.Loaded:
		return styles.On("Loaded", lipgloss.Color("#1DB954"))
	default:
		return ""
	}
}

func renderErrorCard(err error) string {
	msg := err.Error()
	var lerr *tasks.LoadError
	if errors.As(err, &lerr) {
		msg = lerr.Message()
	}
	return styles.card.Render(styles.err.Render("⚠ "+msg) + "\n" + styles.help.Render("press x to dismiss, a to retry"))
}

func (m *Model) renderTables() string {
	tracksTitle, artistsTitle := TracksPanel.String(), ArtistsPanel.String()
	if m.panel == TracksPanel {
		tracksTitle = styles.active.Render(tracksTitle)
		return tracksTitle + "  " + artistsTitle + "\n" + m.tracks.View()
	}
	artistsTitle = styles.active.Render(artistsTitle)
	return tracksTitle + "  " + artistsTitle + "\n" + m.artists.View()
}

func (m *Model) renderHelp() string {
	var keys []key.Binding
	switch st := m.state.Status(); {
	case st == dashboard.LoggedOut:
		keys = []key.Binding{m.keys.connect, m.keys.quit}
	case st.LoggedIn():
		keys = []key.Binding{m.keys.analyze, m.keys.short, m.keys.medium, m.keys.long, m.keys.tab, m.keys.open}
		if st == dashboard.Failed {
			keys = append(keys, m.keys.dismiss)
		}
		keys = append(keys, m.keys.logout, m.keys.quit)
	default:
		keys = []key.Binding{m.keys.quit}
	}
	return m.help.ShortHelpView(keys)
}
