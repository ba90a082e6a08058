package dashboard

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// Sessions is the part of [session.Manager] the controller drives.
type Sessions interface {
	Restore(ctx context.Context) session.Result
	Logout(ctx context.Context) error
}

var _ Sessions = (*session.Manager)(nil)

// Loader runs a full dashboard load.
type Loader interface {
	LoadAll(ctx context.Context, r models.TimeRange, progress chan<- tasks.ProgressUpdate) (*models.Dashboard, error)
}

var _ Loader = (*tasks.Pipeline)(nil)

type ownerSetter interface {
	SetOwner(owner string)
}

// LoginFunc runs the interactive login and reports the resulting session.
type LoginFunc func(ctx context.Context) (session.Result, error)

// Outcome is the result of running an [Effect]. Apply feeds it back into a state.
type Outcome interface {
	Apply(s State) (State, Effect)
}

// SessionResolved carries the outcome of a session check or a login.
type SessionResolved struct {
	Result session.Result
	Err    error
}

func (o SessionResolved) Apply(s State) (State, Effect) { return s.Resolve(o.Result) }

// LoadFinished carries the outcome of a load.
type LoadFinished struct {
	TimeRange models.TimeRange
	Dashboard *models.Dashboard
	Err       error
}

func (o LoadFinished) Apply(s State) (State, Effect) {
	if o.Err != nil {
		if s.Status() != Loading || s.TimeRange() != o.TimeRange {
			return s, nil
		}
		return s.LoadFailed(o.Err)
	}
	return s.LoadSucceeded(o.Dashboard)
}

// LogoutFinished reports that the token is gone. The state already moved to LoggedOut.
type LogoutFinished struct {
	Err error
}

func (o LogoutFinished) Apply(s State) (State, Effect) { return s, nil }

type noop struct{}

func (noop) Apply(s State) (State, Effect) { return s, nil }

// Controller executes effects against the session manager and the load pipeline.
type Controller struct {
	sessions Sessions
	loader   Loader
	login    LoginFunc
	logger   *log.Logger

	// Progress receives load progress when set.
	Progress chan<- tasks.ProgressUpdate
}

func NewController(sessions Sessions, loader Loader, login LoginFunc, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{sessions: sessions, loader: loader, login: login, logger: logger}
}

// Start restores the session and returns the resolved state.
func (c *Controller) Start(ctx context.Context, r models.TimeRange) State {
	s, _ := c.Execute(ctx, restoreEffect{}).Apply(New(r))
	return s
}

type restoreEffect struct{}

func (restoreEffect) effect() {}

// Restore is the effect that re-checks the session. It is used by [Controller.Start] and by
// the TUI's initial command.
func Restore() Effect { return restoreEffect{} }

// Execute runs e and returns its outcome. It never fails; errors travel inside the outcome.
func (c *Controller) Execute(ctx context.Context, e Effect) Outcome {
	switch e := e.(type) {
	case restoreEffect:
		res := c.sessions.Restore(ctx)
		c.noteUser(res)
		return SessionResolved{Result: res}
	case LoginEffect:
		if c.login == nil {
			return SessionResolved{Err: fmt.Errorf("login is not available")}
		}
		res, err := c.login(ctx)
		if err != nil {
			c.logger.Warn("login failed", "error", err)
			return SessionResolved{Err: err}
		}
		c.noteUser(res)
		return SessionResolved{Result: res}
	case LoadEffect:
		d, err := c.loader.LoadAll(ctx, e.TimeRange, c.Progress)
		return LoadFinished{TimeRange: e.TimeRange, Dashboard: d, Err: err}
	case LogoutEffect:
		return LogoutFinished{Err: c.sessions.Logout(ctx)}
	default:
		c.logger.Error("unknown effect", "effect", fmt.Sprintf("%T", e))
		return noop{}
	}
}

// Dispatch applies op to s and runs effects until none is left. The CLI uses it to drive
// the machine synchronously.
func (c *Controller) Dispatch(ctx context.Context, s State, op func(State) (State, Effect)) State {
	s, e := op(s)
	for e != nil {
		s, e = c.Execute(ctx, e).Apply(s)
	}
	return s
}

func (c *Controller) noteUser(res session.Result) {
	if !res.LoggedIn {
		return
	}
	if o, ok := c.loader.(ownerSetter); ok {
		o.SetOwner(res.User.Name())
	}
}
