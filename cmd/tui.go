package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/shared"
	"github.com/desertthunder/tunedash/internal/ui"
)

const defaultTUILog = "./tmp/tunedash-tui.log"

// Dashboard launches the interactive terminal dashboard.
func (r *Runner) Dashboard(ctx context.Context, cmd *cli.Command) error {
	tr, err := r.timeRange(cmd)
	if err != nil {
		return err
	}

	path := cmd.String("log-file")
	if path == "" {
		path = r.cfg().Log.File
	}
	if path == "" {
		path = defaultTUILog
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, closer, err := shared.NewFileLogger(path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer closer.Close()
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)

	ctrl, err := r.controller(false)
	if err != nil {
		return err
	}

	model := ui.NewModel(ctx, ctrl, ui.Options{
		TimeRange: tr,
		LoginURL:  r.backend.LoginURL(),
		Open:      r.opener,
		Logger:    fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
