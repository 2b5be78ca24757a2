// Package ui implements the live room view using bubbletea's Elm architecture.
//
// The (view) [Model] renders a room session: connection status, the playing track, participants and the queue.
// It never mutates the queue itself. Vote and remove keys issue commands through the session, and the
// queue redraws when the resulting push events reach the session and it signals its subscribers.
//
// Keyboard navigation uses vim-style bindings (j/k, +/-, d, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
