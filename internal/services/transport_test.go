package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"

	tu "github.com/desertthunder/tunedash/internal/testing"
)

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errors.New("store unavailable") }

func TestSessionTransport(t *testing.T) {
	t.Run("attaches header and cookie", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("X-Session-ID"); got != "XYZ" {
				t.Errorf("expected header XYZ, got %q", got)
			}
			c, err := r.Cookie("session_id")
			if err != nil || c.Value != "XYZ" {
				t.Errorf("expected cookie XYZ, got %v (%v)", c, err)
			}
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		client := NewSessionClient(func() (string, bool) { return "XYZ", true }, "", "", nil)
		srv := NewAPIService(server.URL, client)
		if _, err := srv.Get(context.Background(), "/api/status"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("custom header name", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: http.Header{}}, nil)
		client := NewSessionClient(func() (string, bool) { return "abc", true }, "X-Custom", "sid", rt)

		req, _ := http.NewRequest(http.MethodGet, "http://backend.test/api/status", nil)
		if _, err := client.Do(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		sent := rt.Requests[0]
		if sent.Header.Get("X-Custom") != "abc" {
			t.Errorf("expected X-Custom header, got %v", sent.Header)
		}
		if c, err := sent.Cookie("sid"); err != nil || c.Value != "abc" {
			t.Errorf("expected sid cookie, got %v", c)
		}
		if req.Header.Get("X-Custom") != "" {
			t.Error("original request must not be modified")
		}
	})

	t.Run("no token sends request unauthenticated", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(&http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Header: http.Header{}}, nil)
		client := NewSessionClient(func() (string, bool) { return "", false }, "", "", rt)

		req, _ := http.NewRequest(http.MethodGet, "http://backend.test/api/status", nil)
		if _, err := client.Do(req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := rt.Requests[0].Header.Get(DefaultSessionHeader); got != "" {
			t.Errorf("expected no session header, got %q", got)
		}
	})

	t.Run("token source failure fails the request", func(t *testing.T) {
		rt := tu.NewMockRoundTripper(nil, nil)
		client := &http.Client{Transport: &SessionTransport{Source: failingSource{}, Base: rt}}

		req, _ := http.NewRequest(http.MethodGet, "http://backend.test/", nil)
		if _, err := client.Do(req); err == nil {
			t.Error("expected error")
		}
		if len(rt.Requests) != 0 {
			t.Error("request should not reach the base transport")
		}
	})

	t.Run("token source reads fresh values", func(t *testing.T) {
		token := "first"
		src := NewSessionTokenSource(func() (string, bool) { return token, true })

		tok, _ := src.Token()
		token = "second"
		tok2, _ := src.Token()
		if tok.AccessToken != "first" || tok2.AccessToken != "second" {
			t.Errorf("expected fresh reads, got %s then %s", tok.AccessToken, tok2.AccessToken)
		}

		if _, err := NewSessionTokenSource(nil).Token(); !errors.Is(err, ErrNoSession) {
			t.Errorf("expected ErrNoSession, got %v", err)
		}
	})
}
