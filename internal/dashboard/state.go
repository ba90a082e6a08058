// Package dashboard is the application state machine shared by the CLI and the TUI.
//
// A [State] is a value. It changes only through the named operations below, each of which
// returns the next state and the [Effect] (if any) the caller must run. Effects are run by a
// [Controller], whose [Outcome] is applied back to the state.
package dashboard

import (
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// Status is the state tag. Idle, Loading, Loaded and Failed are the logged-in sub-states.
type Status int

const (
	Initializing Status = iota
	LoggedOut
	Idle
	Loading
	Loaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case LoggedOut:
		return "logged_out"
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoggedIn reports whether s is one of the logged-in sub-states.
func (s Status) LoggedIn() bool {
	return s >= Idle && s <= Failed
}

// Effect is work requested by a transition.
type Effect interface {
	effect()
}

// LoadEffect asks for a full load of TimeRange.
type LoadEffect struct {
	TimeRange models.TimeRange
}

// LogoutEffect asks for the best-effort backend logout and token removal.
type LogoutEffect struct{}

// LoginEffect asks for the browser login flow.
type LoginEffect struct{}

func (LoadEffect) effect()   {}
func (LogoutEffect) effect() {}
func (LoginEffect) effect()  {}

// State is the whole application state.
type State struct {
	status    Status
	timeRange models.TimeRange
	user      *models.UserProfile
	dashboard *models.Dashboard
	err       error
}

// New returns the Initializing state with time range r (the default when r is invalid).
func New(r models.TimeRange) State {
	if !r.Valid() {
		r = models.DefaultTimeRange
	}
	return State{status: Initializing, timeRange: r}
}

func (s State) Status() Status              { return s.status }
func (s State) TimeRange() models.TimeRange { return s.timeRange }
func (s State) User() *models.UserProfile   { return s.user }
func (s State) Err() error                  { return s.err }
func (s State) LoggedIn() bool              { return s.status.LoggedIn() }

// Dashboard is the loaded data. It is set in Loaded, and kept while a reload started from
// Loaded is in flight so the previous data stays on screen.
func (s State) Dashboard() *models.Dashboard { return s.dashboard }

// Updating reports a reload over data that is still displayed.
func (s State) Updating() bool {
	return s.status == Loading && s.dashboard != nil
}

// Resolve leaves Initializing once the session check has finished.
func (s State) Resolve(res session.Result) (State, Effect) {
	if s.status != Initializing {
		return s, nil
	}
	if !res.LoggedIn {
		return State{status: LoggedOut, timeRange: s.timeRange}, nil
	}
	return State{status: Idle, timeRange: s.timeRange, user: res.User}, nil
}

// BeginLogin starts the browser login flow from LoggedOut.
func (s State) BeginLogin() (State, Effect) {
	if s.status != LoggedOut {
		return s, nil
	}
	return State{status: Initializing, timeRange: s.timeRange}, LoginEffect{}
}

// Analyze starts a load of the current range. It does nothing while a load is in flight.
func (s State) Analyze() (State, Effect) {
	switch s.status {
	case Idle, Loaded, Failed:
	default:
		return s, nil
	}
	next := s.loading()
	return next, LoadEffect{TimeRange: next.timeRange}
}

// SetTimeRange changes the range. When data is loaded it reloads for the new range;
// before any data exists it only records the choice. It is rejected while Loading.
func (s State) SetTimeRange(r models.TimeRange) (State, Effect) {
	if !s.status.LoggedIn() || s.status == Loading || !r.Valid() {
		return s, nil
	}

	reload := tasks.ShouldReload(s.timeRange, r, s.status == Loaded, s.status == Loading)
	s.timeRange = r
	if !reload {
		return s, nil
	}
	next := s.loading()
	return next, LoadEffect{TimeRange: r}
}

// LoadSucceeded stores d. Results that no longer match an in-flight load are dropped.
func (s State) LoadSucceeded(d *models.Dashboard) (State, Effect) {
	if s.status != Loading || d == nil || d.TimeRange != s.timeRange {
		return s, nil
	}
	s.status = Loaded
	s.dashboard = d
	s.err = nil
	return s, nil
}

// LoadFailed clears all data and records err.
func (s State) LoadFailed(err error) (State, Effect) {
	if s.status != Loading {
		return s, nil
	}
	s.status = Failed
	s.dashboard = nil
	s.err = err
	return s, nil
}

// DismissError returns from Failed to Idle.
func (s State) DismissError() (State, Effect) {
	if s.status != Failed {
		return s, nil
	}
	s.status = Idle
	s.err = nil
	return s, nil
}

// Logout clears everything but the selected range, from any state.
func (s State) Logout() (State, Effect) {
	return State{status: LoggedOut, timeRange: s.timeRange}, LogoutEffect{}
}

func (s State) loading() State {
	s.status = Loading
	s.err = nil
	return s
}
