package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/dashboard"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/shared"
)

// AuthLogin runs the browser login unless the stored session is still valid.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.controller(true)
	if err != nil {
		return err
	}

	state := ctrl.Start(ctx, models.DefaultTimeRange)
	if state.LoggedIn() {
		return r.writePlain("✓ Already logged in as %s\n", displayName(state))
	}

	next, effect := state.BeginLogin()
	outcome := ctrl.Execute(ctx, effect)
	if res, ok := outcome.(dashboard.SessionResolved); ok && res.Err != nil {
		return fmt.Errorf("login failed: %w", res.Err)
	}
	if state, _ = outcome.Apply(next); !state.LoggedIn() {
		return fmt.Errorf("%w: login did not complete", shared.ErrNotLoggedIn)
	}

	r.logger.Info("login complete")

	// The callback carries no profile; confirm the new session to pick it up.
	if state = ctrl.Start(ctx, models.DefaultTimeRange); !state.LoggedIn() {
		return fmt.Errorf("%w: backend rejected the new session", shared.ErrNotLoggedIn)
	}
	return r.writePlain("✓ Logged in as %s\n", displayName(state))
}

type statusOutput struct {
	LoggedIn bool                `json:"logged_in"`
	User     *models.UserProfile `json:"user,omitempty"`
}

// AuthStatus checks the stored session against the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.controller(true)
	if err != nil {
		return err
	}

	state := ctrl.Start(ctx, models.DefaultTimeRange)
	if cmd.Bool("json") {
		return r.writeJSON(statusOutput{LoggedIn: state.LoggedIn(), User: state.User()}, cmd.Bool("pretty"))
	}

	if !state.LoggedIn() {
		return r.writePlain("✗ Not logged in\nRun 'tunedash auth login' to connect.\n")
	}
	r.writePlain("✓ Logged in as %s\n", displayName(state))
	if u := state.User(); u != nil {
		if u.Country != "" {
			r.writePlain("Country: %s\n", u.Country)
		}
		if u.Product != "" {
			r.writePlain("Plan: %s\n", u.Product)
		}
	}
	return nil
}

// AuthLogout ends the session on the backend and always forgets the stored token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	ctrl, err := r.controller(true)
	if err != nil {
		return err
	}

	_, effect := dashboard.New(models.DefaultTimeRange).Logout()
	if res, ok := ctrl.Execute(ctx, effect).(dashboard.LogoutFinished); ok && res.Err != nil {
		return fmt.Errorf("logout failed: %w", res.Err)
	}
	return r.writePlain("✓ Logged out\n")
}

func displayName(s dashboard.State) string {
	if name := s.User().Name(); name != "" {
		return name
	}
	return "unknown user"
}
