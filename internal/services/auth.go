package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &raw); err != nil {
		return "", err
	}
	return decodeToken(raw)
}

// Register creates an account. The returned token is not meant to be stored; callers log in explicitly.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var raw json.RawMessage
	if err := c.doRequest(ctx, http.MethodPost, "/auth/register", registerRequest{Name: name, Email: email, Password: password}, &raw); err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}
	return decodeToken(raw)
}

// CurrentUser fetches the profile for the current token.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doRequest(ctx, http.MethodGet, "/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// decodeToken accepts a bare JSON string or an object with a token field.
func decodeToken(raw json.RawMessage) (string, error) {
	var token string
	if err := json.Unmarshal(raw, &token); err == nil && strings.TrimSpace(token) != "" {
		return token, nil
	}

	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Token != "" {
		return obj.Token, nil
	}
	return "", fmt.Errorf("%w: response did not contain a token", shared.ErrAuthFailed)
}
