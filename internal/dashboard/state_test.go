package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/session"
)

var user = &models.UserProfile{ID: "u1", DisplayName: "Listener"}

func dashboardFor(r models.TimeRange) *models.Dashboard {
	a := models.AnalysisResult{TotalTracks: 1, Buckets: models.Buckets{{Genre: "pop", Count: 1}}}
	return models.NewDashboard(r, a, nil, nil, models.DefaultPalette, time.Now())
}

func idle() State {
	s, _ := New(models.MediumTerm).Resolve(session.Result{LoggedIn: true, User: user})
	return s
}

func loaded(r models.TimeRange) State {
	s := idle()
	s, _ = s.SetTimeRange(r)
	s, _ = s.Analyze()
	s, _ = s.LoadSucceeded(dashboardFor(r))
	return s
}

func TestStatus(t *testing.T) {
	for _, st := range []Status{Idle, Loading, Loaded, Failed} {
		if !st.LoggedIn() {
			t.Errorf("%s should be logged in", st)
		}
	}
	for _, st := range []Status{Initializing, LoggedOut} {
		if st.LoggedIn() {
			t.Errorf("%s should not be logged in", st)
		}
	}
	if Status(42).String() != "unknown" {
		t.Error("unexpected string for unknown status")
	}
}

func TestNew(t *testing.T) {
	if s := New(models.ShortTerm); s.Status() != Initializing || s.TimeRange() != models.ShortTerm {
		t.Errorf("New() = %s/%s", s.Status(), s.TimeRange())
	}
	if s := New("bogus"); s.TimeRange() != models.DefaultTimeRange {
		t.Errorf("invalid range should fall back to default, got %s", s.TimeRange())
	}
}

func TestResolve(t *testing.T) {
	t.Run("logged in", func(t *testing.T) {
		s, e := New(models.MediumTerm).Resolve(session.Result{LoggedIn: true, User: user})
		if s.Status() != Idle || s.User() != user || e != nil {
			t.Errorf("got %s user=%v effect=%v", s.Status(), s.User(), e)
		}
	})

	t.Run("logged out", func(t *testing.T) {
		s, _ := New(models.MediumTerm).Resolve(session.Result{})
		if s.Status() != LoggedOut || s.User() != nil {
			t.Errorf("got %s", s.Status())
		}
	})

	t.Run("ignored outside initializing", func(t *testing.T) {
		s, _ := idle().Resolve(session.Result{})
		if s.Status() != Idle {
			t.Errorf("got %s, want idle", s.Status())
		}
	})
}

func TestBeginLogin(t *testing.T) {
	out, _ := New(models.MediumTerm).Resolve(session.Result{})

	s, e := out.BeginLogin()
	if s.Status() != Initializing {
		t.Errorf("got %s, want initializing", s.Status())
	}
	if _, ok := e.(LoginEffect); !ok {
		t.Errorf("effect = %T, want LoginEffect", e)
	}

	if _, e := idle().BeginLogin(); e != nil {
		t.Error("login from a logged-in state should be ignored")
	}
}

func TestAnalyze(t *testing.T) {
	t.Run("from idle", func(t *testing.T) {
		s, e := idle().Analyze()
		if s.Status() != Loading {
			t.Errorf("got %s, want loading", s.Status())
		}
		if le, ok := e.(LoadEffect); !ok || le.TimeRange != models.MediumTerm {
			t.Errorf("effect = %#v", e)
		}
		if s.Updating() {
			t.Error("first load is not an update")
		}
	})

	t.Run("from loaded keeps data while updating", func(t *testing.T) {
		s, e := loaded(models.ShortTerm).Analyze()
		if s.Status() != Loading || s.Dashboard() == nil || !s.Updating() {
			t.Errorf("got %s updating=%v", s.Status(), s.Updating())
		}
		if e == nil {
			t.Error("expected a load effect")
		}
	})

	t.Run("from failed clears the error", func(t *testing.T) {
		s, _ := idle().Analyze()
		s, _ = s.LoadFailed(errors.New("boom"))
		s, _ = s.Analyze()
		if s.Status() != Loading || s.Err() != nil {
			t.Errorf("got %s err=%v", s.Status(), s.Err())
		}
	})

	t.Run("ignored while loading or logged out", func(t *testing.T) {
		s, _ := idle().Analyze()
		if _, e := s.Analyze(); e != nil {
			t.Error("overlapping load must not start")
		}
		out, _ := New(models.MediumTerm).Resolve(session.Result{})
		if _, e := out.Analyze(); e != nil {
			t.Error("analyze while logged out must not start a load")
		}
	})
}

func TestSetTimeRange(t *testing.T) {
	t.Run("before any data only records the range", func(t *testing.T) {
		s, e := idle().SetTimeRange(models.LongTerm)
		if e != nil {
			t.Errorf("unexpected effect %#v", e)
		}
		if s.TimeRange() != models.LongTerm || s.Status() != Idle {
			t.Errorf("got %s/%s", s.Status(), s.TimeRange())
		}
	})

	t.Run("when loaded reloads exactly once", func(t *testing.T) {
		s, e := loaded(models.MediumTerm).SetTimeRange(models.ShortTerm)
		le, ok := e.(LoadEffect)
		if !ok || le.TimeRange != models.ShortTerm {
			t.Fatalf("effect = %#v, want LoadEffect(short_term)", e)
		}
		if s.Status() != Loading {
			t.Errorf("got %s, want loading", s.Status())
		}

		if _, e := s.SetTimeRange(models.LongTerm); e != nil {
			t.Error("range change while loading must be rejected")
		}
		if s2, _ := s.SetTimeRange(models.LongTerm); s2.TimeRange() != models.ShortTerm {
			t.Error("range must not change while loading")
		}
	})

	t.Run("same range does nothing", func(t *testing.T) {
		if _, e := loaded(models.MediumTerm).SetTimeRange(models.MediumTerm); e != nil {
			t.Error("unchanged range must not reload")
		}
	})

	t.Run("after failure does not reload", func(t *testing.T) {
		s, _ := idle().Analyze()
		s, _ = s.LoadFailed(errors.New("boom"))
		s, e := s.SetTimeRange(models.LongTerm)
		if e != nil || s.Status() != Failed {
			t.Errorf("got %s effect=%v", s.Status(), e)
		}
	})

	t.Run("invalid range and logged out are ignored", func(t *testing.T) {
		if s, _ := idle().SetTimeRange("weekly"); s.TimeRange() != models.MediumTerm {
			t.Error("invalid range must be ignored")
		}
		out, _ := New(models.MediumTerm).Resolve(session.Result{})
		if s, _ := out.SetTimeRange(models.LongTerm); s.TimeRange() != models.MediumTerm {
			t.Error("range change while logged out must be ignored")
		}
	})
}

func TestLoadResults(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, _ := idle().Analyze()
		d := dashboardFor(models.MediumTerm)
		s, _ = s.LoadSucceeded(d)
		if s.Status() != Loaded || s.Dashboard() != d {
			t.Errorf("got %s", s.Status())
		}
	})

	t.Run("failure clears previous data", func(t *testing.T) {
		s, _ := loaded(models.MediumTerm).Analyze()
		boom := errors.New("Failed to fetch top tracks")
		s, _ = s.LoadFailed(boom)
		if s.Status() != Failed || s.Dashboard() != nil || s.Err() != boom {
			t.Errorf("got %s dashboard=%v err=%v", s.Status(), s.Dashboard(), s.Err())
		}
	})

	t.Run("results outside loading are dropped", func(t *testing.T) {
		s, _ := idle().Analyze()
		s, _ = s.Logout()

		s, _ = s.LoadSucceeded(dashboardFor(models.MediumTerm))
		if s.Status() != LoggedOut || s.Dashboard() != nil {
			t.Errorf("stale success applied: %s", s.Status())
		}
		s, _ = s.LoadFailed(errors.New("late"))
		if s.Status() != LoggedOut || s.Err() != nil {
			t.Errorf("stale failure applied: %s", s.Status())
		}
	})

	t.Run("result for another range is dropped", func(t *testing.T) {
		s, _ := idle().Analyze()
		s, _ = s.LoadSucceeded(dashboardFor(models.LongTerm))
		if s.Status() != Loading {
			t.Errorf("got %s, want loading", s.Status())
		}
	})
}

func TestDismissError(t *testing.T) {
	s, _ := idle().Analyze()
	s, _ = s.LoadFailed(errors.New("boom"))
	s, _ = s.DismissError()
	if s.Status() != Idle || s.Err() != nil {
		t.Errorf("got %s err=%v", s.Status(), s.Err())
	}

	if s2, _ := loaded(models.MediumTerm).DismissError(); s2.Status() != Loaded {
		t.Error("dismiss outside failed must be ignored")
	}
}

func TestLogout(t *testing.T) {
	for name, start := range map[string]State{
		"initializing": New(models.ShortTerm),
		"idle":         idle(),
		"loaded":       loaded(models.ShortTerm),
	} {
		t.Run(name, func(t *testing.T) {
			s, e := start.Logout()
			if s.Status() != LoggedOut || s.User() != nil || s.Dashboard() != nil || s.Err() != nil {
				t.Errorf("state not cleared: %s", s.Status())
			}
			if _, ok := e.(LogoutEffect); !ok {
				t.Errorf("effect = %T, want LogoutEffect", e)
			}
			if s.TimeRange() != start.TimeRange() {
				t.Error("time range selection should survive logout")
			}
		})
	}
}
