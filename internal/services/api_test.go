package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
	tu "github.com/desertthunder/tunedash/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("NewAPIService", func(t *testing.T) {
		t.Run("trims the trailing slash", func(t *testing.T) {
			srv := NewAPIService("https://stats.example.com/", nil)
			if srv.BaseURL() != "https://stats.example.com" {
				t.Errorf("unexpected base URL %s", srv.BaseURL())
			}
		})

		t.Run("defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)
			if srv.BaseURL() != DefaultBaseURL {
				t.Errorf("expected default base URL %s, got %s", DefaultBaseURL, srv.BaseURL())
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient")
			}
			if srv.limiter != nil || srv.breaker != nil {
				t.Error("expected no limiter and no breaker without options")
			}
		})
	})

	t.Run("URL", func(t *testing.T) {
		srv := NewAPIService("http://localhost:8000", nil)
		tests := []struct{ path, want string }{
			{"/api/status", "http://localhost:8000/api/status"},
			{"api/status", "http://localhost:8000/api/status"},
			{"/api/top-tracks?time_range=long_term", "http://localhost:8000/api/top-tracks?time_range=long_term"},
		}
		for _, tt := range tests {
			if got := srv.URL(tt.path); got != tt.want {
				t.Errorf("URL(%q) = %s, want %s", tt.path, got, tt.want)
			}
		}
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("asks for JSON and keeps the raw response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", r.Method)
				}
				if got := r.Header.Get("Accept"); got != "application/json" {
					t.Errorf("expected Accept application/json, got %q", got)
				}
				w.Header().Set("X-Request-ID", "r-1")
				w.Write([]byte(`{"logged_in":true}`))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), StatusPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Errorf("expected OK JSON response, got %+v", resp)
			}
			if data, ok := resp.JSONData.(map[string]any); !ok || data["logged_in"] != true {
				t.Errorf("unexpected JSONData %v", resp.JSONData)
			}
			if resp.Headers.Get("X-Request-ID") != "r-1" {
				t.Error("expected response headers to be kept")
			}
		})

		t.Run("non-JSON body", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("Internal Server Error"))
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.IsJSON || resp.JSONData != nil {
				t.Error("expected plain text to stay undecoded")
			}
			if string(resp.Body) != "Internal Server Error" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("non-2xx is a response, not an error", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			resp, err := NewAPIService(server.URL, nil).Get(context.Background(), StatusPath)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.OK() || resp.StatusCode != http.StatusUnauthorized {
				t.Errorf("expected 401 response, got %d", resp.StatusCode)
			}
		})

		t.Run("invalid path", func(t *testing.T) {
			_, err := NewAPIService("http://example.com", nil).Get(context.Background(), "/api\x00status")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected request creation error, got %v", err)
			}
		})

		t.Run("transport failure", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			srv := NewAPIService("http://example.com", &http.Client{Transport: rt})

			_, err := srv.Get(context.Background(), StatusPath)
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected request failure, got %v", err)
			}
			if len(rt.Requests) != 1 || rt.Requests[0].URL.Path != StatusPath {
				t.Errorf("unexpected requests %v", rt.Requests)
			}
		})

		t.Run("body read failure", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FCloser{},
				Header:     http.Header{},
			}, nil)
			srv := NewAPIService("http://example.com", &http.Client{Transport: rt})

			_, err := srv.Get(context.Background(), AnalysisPath)
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})

		t.Run("cancelled context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			if _, err := NewAPIService(server.URL, nil).Get(ctx, StatusPath); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		})
	})
}

func TestGetJSON(t *testing.T) {
	serve := func(t *testing.T, status int, body string) *APIService {
		t.Helper()
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(server.Close)
		return NewAPIService(server.URL, nil)
	}

	t.Run("decodes a 2xx body", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"logged_in":true,"user":{"id":"u1","display_name":"Ana","country":"SE"}}`)

		var status models.Status
		if err := srv.GetJSON(context.Background(), StatusPath, &status); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !status.LoggedIn || status.User == nil || status.User.Country != "SE" {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("non-2xx becomes an HTTPError", func(t *testing.T) {
		srv := serve(t, http.StatusForbidden, `{"detail":"session expired"}`)

		var status models.Status
		err := srv.GetJSON(context.Background(), StatusPath, &status)

		var herr *HTTPError
		if !errors.As(err, &herr) {
			t.Fatalf("expected *HTTPError, got %T %v", err, err)
		}
		if herr.Method != http.MethodGet || herr.Path != StatusPath || herr.StatusCode != http.StatusForbidden {
			t.Errorf("unexpected error fields %+v", herr)
		}
		if !herr.Unauthorized() {
			t.Error("expected 403 to count as unauthorized")
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Error("expected HTTPError to unwrap to ErrAPIRequest")
		}
		if status.LoggedIn {
			t.Error("out must not be decoded from an error body")
		}
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := serve(t, http.StatusOK, `{"logged_in":"yes"`)

		var status models.Status
		err := srv.GetJSON(context.Background(), StatusPath, &status)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if err != nil && !strings.Contains(err.Error(), "failed to decode "+StatusPath) {
			t.Errorf("expected the path in the message, got %q", err.Error())
		}
	})
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		detail       string
		unauthorized bool
		message      string
	}{
		{"error field", http.StatusUnauthorized, `{"error":"not_logged_in"}`, "not_logged_in", true, "GET /api/analysis: status 401: not_logged_in"},
		{"detail field", http.StatusBadRequest, `{"detail":"bad time_range"}`, "bad time_range", false, "GET /api/analysis: status 400: bad time_range"},
		{"error wins over detail", http.StatusForbidden, `{"error":"a","detail":"b"}`, "a", true, "GET /api/analysis: status 403: a"},
		{"plain text body", http.StatusBadGateway, "Bad Gateway", "", false, "GET /api/analysis: status 502"},
		{"empty body", http.StatusInternalServerError, "", "", false, "GET /api/analysis: status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &HTTPError{Method: http.MethodGet, Path: AnalysisPath, StatusCode: tt.status, Body: []byte(tt.body)}

			if got := err.Detail(); got != tt.detail {
				t.Errorf("Detail() = %q, want %q", got, tt.detail)
			}
			if got := err.Unauthorized(); got != tt.unauthorized {
				t.Errorf("Unauthorized() = %v, want %v", got, tt.unauthorized)
			}
			if got := err.Error(); got != tt.message {
				t.Errorf("Error() = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestAPIServiceResilience(t *testing.T) {
	breaker := func(threshold uint32) APIOption {
		return WithBreaker(shared.BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			TimeoutSeconds:   60,
			FailureThreshold: threshold,
		})
	}

	t.Run("breaker opens after consecutive server errors", func(t *testing.T) {
		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, breaker(2))

		for i := range 2 {
			resp, err := srv.Get(context.Background(), AnalysisPath)
			if err != nil {
				t.Fatalf("call %d: expected raw 502 response, got error %v", i, err)
			}
			if resp.StatusCode != http.StatusBadGateway {
				t.Errorf("call %d: expected 502, got %d", i, resp.StatusCode)
			}
		}

		_, err := srv.Get(context.Background(), AnalysisPath)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if hits.Load() != 2 {
			t.Errorf("expected 2 requests to reach the server, got %d", hits.Load())
		}
	})

	t.Run("GetJSON reports a 5xx under the breaker as an HTTPError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"spotify unavailable"}`))
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, breaker(5))

		var out models.AnalysisResult
		err := srv.GetJSON(context.Background(), AnalysisPath, &out)
		var herr *HTTPError
		if !errors.As(err, &herr) || herr.StatusCode != http.StatusInternalServerError {
			t.Fatalf("expected a 500 HTTPError, got %v", err)
		}
		if herr.Detail() != "spotify unavailable" {
			t.Errorf("unexpected detail %q", herr.Detail())
		}
		if errors.Is(err, shared.ErrServiceUnavailable) {
			t.Error("a closed breaker must not report the service as unavailable")
		}
	})

	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, breaker(1))
		for range 3 {
			if _, err := srv.Get(context.Background(), "/missing"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
	})

	t.Run("cancelled requests do not trip the breaker", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, breaker(1))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		srv.Get(ctx, StatusPath)

		if _, err := srv.Get(context.Background(), StatusPath); err != nil {
			t.Errorf("expected the breaker to stay closed, got %v", err)
		}
	})

	t.Run("disabled breaker", func(t *testing.T) {
		srv := NewAPIService("http://example.com", nil, WithBreaker(shared.BreakerConfig{Enabled: false}))
		if srv.breaker != nil {
			t.Error("expected no breaker")
		}
	})

	t.Run("rate limiter honours context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil, WithRateLimit(0.001, 1))
		if _, err := srv.Get(context.Background(), "/"); err != nil {
			t.Fatalf("first call should use the burst: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := srv.Get(ctx, "/")
		if err == nil || !strings.Contains(err.Error(), "rate limiter") {
			t.Errorf("expected rate limiter error, got %v", err)
		}
	})

	t.Run("zero rate disables throttling", func(t *testing.T) {
		srv := NewAPIService("http://example.com", nil, WithRateLimit(0, 5))
		if srv.limiter != nil {
			t.Error("expected no limiter")
		}
	})
}
