package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	voteUp    key.Binding
	voteDown  key.Binding
	remove    key.Binding
	reconnect key.Binding
	help      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		voteUp:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "upvote")),
		voteDown:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "downvote")),
		remove:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "remove")),
		reconnect: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reconnect")),
		help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.voteUp, k.voteDown, k.remove, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.voteUp, k.voteDown, k.remove},
		{k.reconnect, k.help, k.quit},
	}
}
