package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/roomsync/internal/shared"
)

// TokenProvider supplies the bearer token for outgoing requests. An empty token sends no auth header.
type TokenProvider interface {
	AccessToken() string
}

// TokenFunc adapts a function to [TokenProvider].
type TokenFunc func() string

func (f TokenFunc) AccessToken() string { return f() }

// APIError is returned for HTTP error statuses.
type APIError struct {
	StatusCode int
	Message    string
	Path       string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return shared.ErrNotAuthenticated
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return shared.ErrServiceUnavailable
	case http.StatusNotFound:
		switch {
		case strings.HasPrefix(e.Path, "/rooms/"):
			return shared.ErrRoomNotFound
		case strings.HasPrefix(e.Path, "/tracks/"):
			return shared.ErrTrackNotFound
		}
		return shared.ErrAPIRequest
	default:
		return shared.ErrAPIRequest
	}
}

// IsStatus reports whether err is an [*APIError] with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ParseErrorMessage extracts a readable message from an error response body.
//
// Fields are tried in order: message, hydra:description, hydra:title, then a bare JSON string body.
func ParseErrorMessage(status int, body []byte) string {
	fallback := fmt.Sprintf("HTTP error, status %d", status)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		for _, key := range []string{"message", "hydra:description", "hydra:title"} {
			raw, ok := fields[key]
			if !ok {
				continue
			}
			var msg string
			if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
				return msg
			}
		}
		return fallback
	}

	var msg string
	if err := json.Unmarshal(body, &msg); err == nil && msg != "" {
		return msg
	}
	return fallback
}
