// Package session owns the client's belief about authentication.
//
// A session is an opaque token kept under a single key in a [Store]. It is created by a
// successful login callback, confirmed on startup against GET /api/status, and destroyed
// on logout or when the status check fails. The [Manager] is the only writer of that key.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/services"
	"github.com/desertthunder/tunedash/internal/shared"
)

const (
	// TokenKey is the storage key of the session token.
	TokenKey = "session_id"

	LoginParam   = "login"
	SessionParam = "session"
	LoginSuccess = "success"
)

// Store is a synchronous key/value slot for client state.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// Backend is the part of [services.Service] the manager needs.
type Backend interface {
	Status(ctx context.Context) (*models.Status, error)
	Logout(ctx context.Context) error
}

var _ Backend = (services.Service)(nil)

// Result is the manager's conclusion about the session.
type Result struct {
	LoggedIn bool
	User     *models.UserProfile
}

// Manager reconciles the stored token with the backend.
type Manager struct {
	store   Store
	backend Backend
	logger  *log.Logger
}

func NewManager(store Store, backend Backend, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{store: store, backend: backend, logger: logger}
}

// Token returns the stored session token. A store failure reads as no token.
func (m *Manager) Token() (string, bool) {
	v, ok, err := m.store.Get(TokenKey)
	if err != nil {
		m.logger.Warn("failed to read session token", "error", err)
		return "", false
	}
	return v, ok && v != ""
}

// Restore asks the backend whether the stored token (if any) is still good.
//
// It never fails: a network error or non-2xx status demotes the session to logged out
// and clears the stored token.
func (m *Manager) Restore(ctx context.Context) Result {
	_, hadToken := m.Token()

	status, err := m.backend.Status(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			m.logger.Debug("session check cancelled")
		} else {
			m.logger.Warn("session check failed, treating as logged out", "error", err, "had_token", hadToken)
		}
		m.clear()
		return Result{}
	}

	if !status.LoggedIn {
		if hadToken {
			m.logger.Info("stored session is no longer valid")
			m.clear()
		}
		return Result{}
	}

	m.logger.Debug("session confirmed", "user", status.User.Name())
	return Result{LoggedIn: true, User: status.User}
}

// CompleteCallback consumes ?login=success&session=XYZ from u.
//
// On success the token is stored and the returned URL is u without its query or fragment.
// ok is false when u does not carry a successful login, in which case nothing is stored
// and u is returned unchanged. No request is made to the backend.
func (m *Manager) CompleteCallback(u *url.URL) (res Result, stripped *url.URL, ok bool, err error) {
	if u == nil {
		return Result{}, nil, false, nil
	}

	q := u.Query()
	token := q.Get(SessionParam)
	if q.Get(LoginParam) != LoginSuccess || token == "" {
		return Result{}, u, false, nil
	}

	if err := m.store.Set(TokenKey, token); err != nil {
		return Result{}, u, true, fmt.Errorf("failed to store session token: %w", err)
	}

	clean := *u
	clean.RawQuery = ""
	clean.ForceQuery = false
	clean.Fragment = ""
	clean.RawFragment = ""

	m.logger.Info("login callback accepted")
	return Result{LoggedIn: true}, &clean, true, nil
}

// Logout makes a best-effort call to the backend's logout endpoint, whose outcome is
// ignored, then deletes the stored token. Only a local store failure is returned.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.backend.Logout(ctx); err != nil {
		m.logger.Debug("logout request failed, clearing local session anyway", "error", err)
	}

	if err := m.store.Delete(TokenKey); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}

// RequireToken returns [shared.ErrNotLoggedIn] when no token is stored.
func (m *Manager) RequireToken() error {
	if _, ok := m.Token(); !ok {
		return shared.ErrNotLoggedIn
	}
	return nil
}

func (m *Manager) clear() {
	if err := m.store.Delete(TokenKey); err != nil {
		m.logger.Warn("failed to clear session token", "error", err)
	}
}
