package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

func newTestBackend(t *testing.T, h http.HandlerFunc) *Backend {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewBackend(NewAPIService(server.URL, nil))
}

func TestBackend(t *testing.T) {
	t.Run("Status", func(t *testing.T) {
		t.Run("logged in with profile", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != StatusPath {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(`{"logged_in":true,"user":{"id":"u1","display_name":"Ana"}}`))
			})

			status, err := b.Status(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !status.LoggedIn || status.User.Name() != "Ana" {
				t.Errorf("unexpected status %+v", status)
			}
		})

		t.Run("logged out without profile", func(t *testing.T) {
			b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"logged_in":false}`))
			})

			status, err := b.Status(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if status.LoggedIn || status.User != nil {
				t.Errorf("unexpected status %+v", status)
			}
		})
	})

	t.Run("Analysis keeps bucket order", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"total_tracks":9,"buckets":{"rock":3,"pop":5,"jazz":1},"top_genres":[["pop",5]]}`))
		})

		a, err := b.Analysis(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Buckets[0].Genre != "rock" || a.Buckets[2].Genre != "jazz" {
			t.Errorf("bucket order lost: %+v", a.Buckets)
		}
	})

	t.Run("TopTracks sends time range", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != TopTracksPath {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("time_range"); got != "short_term" {
				t.Errorf("expected short_term, got %q", got)
			}
			w.Write([]byte(`{"top_tracks":[{"id":"t1","name":"One","duration_ms":185000,"artists":[{"name":"A"}]},{"id":"t2","name":"Two"}]}`))
		})

		tracks, err := b.TopTracks(context.Background(), models.ShortTerm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracks) != 2 || tracks[0].Name != "One" || tracks[1].Name != "Two" {
			t.Errorf("unexpected tracks %+v", tracks)
		}
	})

	t.Run("TopArtists empty list is not nil", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("time_range"); got != "long_term" {
				t.Errorf("expected long_term, got %q", got)
			}
			w.Write([]byte(`{}`))
		})

		artists, err := b.TopArtists(context.Background(), models.LongTerm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if artists == nil || len(artists) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", artists)
		}
	})

	t.Run("invalid time range is refused before any request", func(t *testing.T) {
		var hits atomic.Int32
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) { hits.Add(1) })

		_, err := b.TopTracks(context.Background(), models.TimeRange("decade"))
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if hits.Load() != 0 {
			t.Error("expected no request")
		}
	})

	t.Run("non-2xx is an HTTPError", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"not_logged_in"}`))
		})

		_, err := b.Analysis(context.Background())
		var herr *HTTPError
		if !errors.As(err, &herr) {
			t.Fatalf("expected *HTTPError, got %T %v", err, err)
		}
		if !herr.Unauthorized() || herr.Detail() != "not_logged_in" {
			t.Errorf("unexpected error %+v", herr)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected HTTPError to unwrap to ErrAPIRequest")
		}
		if !strings.Contains(err.Error(), "not_logged_in") {
			t.Errorf("expected detail in message, got %q", err.Error())
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"buckets":[1,2]}`))
		})

		if _, err := b.Analysis(context.Background()); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("Logout", func(t *testing.T) {
		b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != LogoutPath {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusInternalServerError)
		})

		if err := b.Logout(context.Background()); err == nil {
			t.Error("expected error for 500")
		}
	})

	t.Run("LoginURL", func(t *testing.T) {
		b := NewBackend(NewAPIService("https://stats.example.com/", nil))
		if got := b.LoginURL(); got != "https://stats.example.com/login" {
			t.Errorf("unexpected login URL %s", got)
		}
	})
}
