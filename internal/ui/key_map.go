package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	analyze key.Binding
	short   key.Binding
	medium  key.Binding
	long    key.Binding
	tab     key.Binding
	open    key.Binding
	dismiss key.Binding
	connect key.Binding
	logout  key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		analyze: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "analyze")),
		short:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "4 weeks")),
		medium:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "6 months")),
		long:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "all time")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "tracks/artists")),
		open:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		dismiss: key.NewBinding(key.WithKeys("x", "esc"), key.WithHelp("x", "dismiss")),
		connect: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "connect")),
		logout:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.analyze, k.short, k.medium, k.long, k.logout, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.analyze, k.short, k.medium, k.long},
		{k.up, k.down, k.tab, k.open},
		{k.dismiss, k.connect, k.logout, k.quit},
	}
}
