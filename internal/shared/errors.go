package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and transport errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrNetwork            = fmt.Errorf("network error")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrRoomNotFound       = fmt.Errorf("room not found")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Session errors
	ErrNoActiveRoom  = fmt.Errorf("no active room")
	ErrSessionLocked = fmt.Errorf("another live session is running")

	// Push channel errors
	ErrNotConnected   = fmt.Errorf("push channel not connected")
	ErrChannelClosed  = fmt.Errorf("push channel closed")
	ErrUnknownEvent   = fmt.Errorf("unknown event type")
	ErrMalformedEvent = fmt.Errorf("malformed event payload")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
