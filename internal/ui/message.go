package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/roomsync/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStateChanged MsgKind = iota
	MsgSubscriptionClosed
	MsgCommandDone
	MsgReconnected
	MsgTick
)

type commandDone struct {
	action string
	result models.Result
}

// stateChangedMsg is the constructor for [MsgStateChanged]
func stateChangedMsg() Msg {
	return Msg{kind: MsgStateChanged}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(action string, result models.Result) Msg {
	return Msg{kind: MsgCommandDone, data: commandDone{action: action, result: result}}
}

// reconnectedMsg is the constructor for [MsgReconnected]
func reconnectedMsg(err error) Msg {
	return Msg{kind: MsgReconnected, data: err}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg() Msg {
	return Msg{kind: MsgTick}
}
