package session

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/shared"
)

// AuthAPI is the part of the command client used for authentication.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	CurrentUser(ctx context.Context) (*models.User, error)
}

// CredentialStore persists the token between runs.
type CredentialStore interface {
	Load() (*models.Credential, error)
	Save(token string, user *models.User) error
	Clear() error
}

// Credentials is the in-memory token and profile. It implements services.TokenProvider.
type Credentials struct {
	store  CredentialStore
	logger *log.Logger

	mu    sync.RWMutex
	token string
	user  *models.User
}

// NewCredentials loads any persisted token from store. A nil store keeps credentials in memory only.
func NewCredentials(store CredentialStore, logger *log.Logger) *Credentials {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	c := &Credentials{store: store, logger: shared.WithLogger(logger, "component", "credentials")}
	if store == nil {
		return c
	}

	cred, err := store.Load()
	if err != nil {
		c.logger.Warn("failed to load stored credentials", "error", err)
		return c
	}
	if cred != nil {
		c.token, c.user = cred.Token, cloneUser(cred.User)
	}
	return c
}

func (c *Credentials) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// User returns a copy of the current profile, or nil.
func (c *Credentials) User() *models.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneUser(c.user)
}

func (c *Credentials) set(token string, user *models.User) {
	c.mu.Lock()
	c.token, c.user = token, cloneUser(user)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Save(token, user); err != nil {
			c.logger.Warn("failed to persist credentials", "error", err)
		}
	}
}

func (c *Credentials) setUser(user *models.User) {
	c.set(c.AccessToken(), user)
}

func (c *Credentials) clear() {
	c.mu.Lock()
	c.token, c.user = "", nil
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.logger.Warn("failed to clear stored credentials", "error", err)
		}
	}
}

func cloneUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// Auth is the authentication context: login, registration and the current profile.
type Auth struct {
	api    AuthAPI
	creds  *Credentials
	logger *log.Logger

	mu      sync.Mutex
	loading bool
	lastErr string
}

// NewAuth creates the auth context around creds.
func NewAuth(api AuthAPI, creds *Credentials, logger *log.Logger) *Auth {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Auth{api: api, creds: creds, logger: shared.WithLogger(logger, "component", "auth")}
}

func (a *Auth) begin() {
	a.mu.Lock()
	a.loading, a.lastErr = true, ""
	a.mu.Unlock()
}

func (a *Auth) finish(err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if err != nil {
		a.lastErr = err.Error()
	}
}

// Login exchanges credentials for a token, stores it, then fetches the profile.
// A failed login leaves the stored token as it was.
func (a *Auth) Login(ctx context.Context, email, password string) models.Result {
	a.begin()
	token, err := a.api.Login(ctx, email, password)
	if err != nil {
		a.finish(err)
		a.logger.Warn("login failed", "email", email, "error", err)
		return models.Fail(err)
	}

	a.creds.set(token, nil)
	a.FetchUser(ctx)
	a.finish(nil)
	a.logger.Info("logged in", "email", email)
	return models.OK()
}

// Register creates an account and clears any stored token; the user logs in explicitly afterwards.
func (a *Auth) Register(ctx context.Context, name, email, password string) models.Result {
	a.begin()
	if _, err := a.api.Register(ctx, name, email, password); err != nil {
		a.finish(err)
		return models.Fail(err)
	}
	a.creds.clear()
	a.finish(nil)
	return models.OK()
}

func (a *Auth) Logout() {
	a.creds.clear()
}

// FetchUser refreshes the profile. Failures are logged and never log the user out.
func (a *Auth) FetchUser(ctx context.Context) {
	if a.creds.AccessToken() == "" {
		return
	}
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		a.logger.Warn("failed to fetch current user", "error", err)
		return
	}
	a.creds.setUser(user)
}

// IsAuthenticated reports whether a token is present. The profile may still be nil.
func (a *Auth) IsAuthenticated() bool {
	return a.creds.AccessToken() != ""
}

func (a *Auth) Token() string      { return a.creds.AccessToken() }
func (a *Auth) User() *models.User { return a.creds.User() }

func (a *Auth) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

func (a *Auth) Error() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}
