package services

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// ErrNoSession is returned by a session [oauth2.TokenSource] when no token is stored.
var ErrNoSession = errors.New("no session token stored")

const (
	DefaultSessionHeader = "X-Session-ID"
	DefaultSessionCookie = "session_id"
	sessionTokenType     = "Session"
)

// TokenLookup reads the current session token. It must not block.
type TokenLookup func() (string, bool)

type sessionTokenSource struct {
	lookup TokenLookup
}

// NewSessionTokenSource adapts a [TokenLookup] to an [oauth2.TokenSource].
//
// The backend holds the real OAuth tokens; the client only ever sees an opaque session ID,
// which never expires on the client side. The source is read on every request, so it is
// not wrapped in [oauth2.ReuseTokenSource].
func NewSessionTokenSource(lookup TokenLookup) oauth2.TokenSource {
	return &sessionTokenSource{lookup: lookup}
}

func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	if s.lookup == nil {
		return nil, ErrNoSession
	}
	v, ok := s.lookup()
	if !ok || v == "" {
		return nil, ErrNoSession
	}
	return &oauth2.Token{AccessToken: v, TokenType: sessionTokenType}, nil
}

// SessionTransport attaches the session token to each request as a header and as a cookie,
// mirroring a same-origin browser fetch with credentials included.
//
// Requests go out unauthenticated when the source reports [ErrNoSession].
type SessionTransport struct {
	Source oauth2.TokenSource
	Header string
	Cookie string
	Base   http.RoundTripper
}

func (t *SessionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.Source.Token()
	switch {
	case errors.Is(err, ErrNoSession):
		return t.base().RoundTrip(req)
	case err != nil:
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, fmt.Errorf("session token: %w", err)
	case !tok.Valid():
		return t.base().RoundTrip(req)
	}

	r := req.Clone(req.Context())
	header := t.Header
	if header == "" {
		header = DefaultSessionHeader
	}
	r.Header.Set(header, tok.AccessToken)

	cookie := t.Cookie
	if cookie == "" {
		cookie = DefaultSessionCookie
	}
	r.AddCookie(&http.Cookie{Name: cookie, Value: tok.AccessToken})

	return t.base().RoundTrip(r)
}

func (t *SessionTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// NewSessionClient builds an [http.Client] whose requests carry the session token from lookup.
func NewSessionClient(lookup TokenLookup, header, cookie string, base http.RoundTripper) *http.Client {
	return &http.Client{
		Transport: &SessionTransport{
			Source: NewSessionTokenSource(lookup),
			Header: header,
			Cookie: cookie,
			Base:   base,
		},
	}
}
