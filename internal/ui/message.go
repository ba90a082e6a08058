package ui

import (
	"github.com/desertthunder/tunedash/internal/dashboard"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// outcomeMsg carries the result of an effect back to Update.
type outcomeMsg struct {
	outcome dashboard.Outcome
}

type progressMsg tasks.ProgressUpdate

// openedMsg reports the result of opening a track or artist in the browser.
type openedMsg struct {
	target string
	err    error
}
