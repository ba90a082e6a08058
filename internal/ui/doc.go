// Package ui implements the interactive dashboard using bubbletea's Elm architecture.
//
// The (view) [Model] renders a [dashboard.State]:
//  1. Initializing : spinner while the session is checked or a browser login is pending
//  2. Logged out : connect prompt
//  3. Dashboard : header with the time range and a Loaded/Updating badge, a dismissible
//     error card, the genre chart and legend, and the top tracks and top artists tables
//
// Every key press becomes a named state operation. Effects returned by an operation run in a
// tea.Cmd through the [dashboard.Controller], and their outcome comes back as a message that is
// applied to the state on the update goroutine. Load progress flows through a channel and is
// shown under the spinner.
//
// Keys: a analyze, 1/2/3 time range, tab switch table, ↑/↓ move, o open in browser,
// x dismiss error, L logout, c connect, q quit. Help is displayed via charmbracelet/bubbles/help.
package ui
