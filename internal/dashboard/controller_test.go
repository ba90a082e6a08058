package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/tasks"
	tu "github.com/desertthunder/tunedash/internal/testing"
)

func newBackend(loggedIn bool) *tu.MockService {
	return &tu.MockService{
		StatusFunc: func(context.Context) (*models.Status, error) {
			if !loggedIn {
				return &models.Status{}, nil
			}
			return &models.Status{LoggedIn: true, User: user}, nil
		},
		AnalysisFunc: func(context.Context) (*models.AnalysisResult, error) {
			return &models.AnalysisResult{TotalTracks: 2, Buckets: models.Buckets{{Genre: "pop", Count: 2}}}, nil
		},
	}
}

func newTestController(backend *tu.MockService, store *tu.MemoryStore, login LoginFunc) (*Controller, *tasks.Pipeline) {
	pipeline := tasks.NewPipeline(backend, tasks.PipelineOpts{})
	return NewController(session.NewManager(store, backend, nil), pipeline, login, nil), pipeline
}

func TestControllerStart(t *testing.T) {
	t.Run("valid stored session", func(t *testing.T) {
		c, p := newTestController(newBackend(true), tu.NewMemoryStore(session.TokenKey, "abc"), nil)

		s := c.Start(context.Background(), models.ShortTerm)
		if s.Status() != Idle || s.User().Name() != "Listener" {
			t.Errorf("got %s user=%v", s.Status(), s.User())
		}
		if s.TimeRange() != models.ShortTerm {
			t.Errorf("TimeRange = %s", s.TimeRange())
		}
		if p.Owner() != "Listener" {
			t.Errorf("pipeline owner = %q, want Listener", p.Owner())
		}
	})

	t.Run("rejected session", func(t *testing.T) {
		backend := newBackend(true)
		backend.StatusFunc = func(context.Context) (*models.Status, error) {
			return nil, errors.New("status 401")
		}
		store := tu.NewMemoryStore(session.TokenKey, "stale")
		c, _ := newTestController(backend, store, nil)

		if s := c.Start(context.Background(), models.MediumTerm); s.Status() != LoggedOut {
			t.Errorf("got %s, want logged_out", s.Status())
		}
		if _, ok, _ := store.Get(session.TokenKey); ok {
			t.Error("stale token should be cleared")
		}
	})
}

func TestControllerDispatch(t *testing.T) {
	t.Run("analyze loads the dashboard", func(t *testing.T) {
		backend := newBackend(true)
		c, _ := newTestController(backend, tu.NewMemoryStore(session.TokenKey, "abc"), nil)
		s := c.Start(context.Background(), models.MediumTerm)

		s = c.Dispatch(context.Background(), s, State.Analyze)
		if s.Status() != Loaded {
			t.Fatalf("got %s, want loaded (err=%v)", s.Status(), s.Err())
		}
		if s.Dashboard().Chart.Labels[0] != "pop" {
			t.Errorf("chart labels = %v", s.Dashboard().Chart.Labels)
		}
	})

	t.Run("time range change reloads once", func(t *testing.T) {
		backend := newBackend(true)
		c, _ := newTestController(backend, tu.NewMemoryStore(session.TokenKey, "abc"), nil)
		s := c.Start(context.Background(), models.MediumTerm)
		s = c.Dispatch(context.Background(), s, State.Analyze)

		s = c.Dispatch(context.Background(), s, func(s State) (State, Effect) {
			return s.SetTimeRange(models.LongTerm)
		})
		if s.Status() != Loaded || s.Dashboard().TimeRange != models.LongTerm {
			t.Errorf("got %s", s.Status())
		}
		if got := backend.Ranges; len(got) != 2 || got[1] != models.LongTerm {
			t.Errorf("tracks loaded for %v, want [medium_term long_term]", got)
		}
	})

	t.Run("failed load", func(t *testing.T) {
		backend := newBackend(true)
		backend.TopTracksFunc = func(context.Context, models.TimeRange) ([]models.Track, error) {
			return nil, errors.New("status 500")
		}
		c, _ := newTestController(backend, tu.NewMemoryStore(session.TokenKey, "abc"), nil)
		s := c.Start(context.Background(), models.MediumTerm)

		s = c.Dispatch(context.Background(), s, State.Analyze)
		if s.Status() != Failed || s.Dashboard() != nil {
			t.Fatalf("got %s", s.Status())
		}
		var lerr *tasks.LoadError
		if !errors.As(s.Err(), &lerr) || lerr.Message() != "Failed to fetch top tracks" {
			t.Errorf("Err() = %v", s.Err())
		}
	})

	t.Run("logout clears the token even when the backend fails", func(t *testing.T) {
		backend := newBackend(true)
		backend.LogoutFunc = func(context.Context) error { return errors.New("connection refused") }
		store := tu.NewMemoryStore(session.TokenKey, "abc")
		c, _ := newTestController(backend, store, nil)
		s := c.Start(context.Background(), models.MediumTerm)

		s = c.Dispatch(context.Background(), s, State.Logout)
		if s.Status() != LoggedOut {
			t.Errorf("got %s", s.Status())
		}
		if _, ok, _ := store.Get(session.TokenKey); ok {
			t.Error("token should be removed")
		}
		if backend.Calls("Logout") != 1 {
			t.Errorf("backend logout called %d times", backend.Calls("Logout"))
		}
	})

	t.Run("login", func(t *testing.T) {
		tests := []struct {
			name  string
			login LoginFunc
			want  Status
		}{
			{"success", func(context.Context) (session.Result, error) {
				return session.Result{LoggedIn: true}, nil
			}, Idle},
			{"failure", func(context.Context) (session.Result, error) {
				return session.Result{}, errors.New("timed out")
			}, LoggedOut},
			{"unavailable", nil, LoggedOut},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c, _ := newTestController(newBackend(false), tu.NewMemoryStore(), tt.login)
				s := c.Start(context.Background(), models.MediumTerm)
				if s.Status() != LoggedOut {
					t.Fatalf("start: got %s", s.Status())
				}

				s = c.Dispatch(context.Background(), s, State.BeginLogin)
				if s.Status() != tt.want {
					t.Errorf("got %s, want %s", s.Status(), tt.want)
				}
			})
		}
	})
}

func TestLoadFinishedApply(t *testing.T) {
	s, _ := idle().Analyze()

	stale := LoadFinished{TimeRange: models.LongTerm, Err: errors.New("boom")}
	if got, _ := stale.Apply(s); got.Status() != Loading {
		t.Errorf("failure for another range applied: %s", got.Status())
	}

	current := LoadFinished{TimeRange: models.MediumTerm, Err: errors.New("boom")}
	if got, _ := current.Apply(s); got.Status() != Failed {
		t.Errorf("got %s, want failed", got.Status())
	}
}
