// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/realtime"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// RecordingChannel is an in-memory [realtime.Channel] that records calls and lets tests push frames.
type RecordingChannel struct {
	mu       sync.Mutex
	Calls    []string // "open:<room>", "close"
	roomID   string
	handlers realtime.Handlers
	open     bool
	OpenErr  error
}

func (c *RecordingChannel) Open(roomID string, h realtime.Handlers) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OpenErr != nil {
		return c.OpenErr
	}
	if c.open {
		return nil
	}
	c.Calls = append(c.Calls, "open:"+roomID)
	c.roomID, c.handlers, c.open = roomID, h, true
	return nil
}

func (c *RecordingChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.open {
		return nil
	}
	c.Calls = append(c.Calls, "close")
	c.open = false
	return nil
}

func (c *RecordingChannel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *RecordingChannel) Reconnect() error { return nil }

// RoomID returns the room of the current or last binding.
func (c *RecordingChannel) RoomID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// Handlers returns the handlers of the current or last binding, even after Close,
// so tests can simulate late deliveries.
func (c *RecordingChannel) Handlers() realtime.Handlers {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handlers
}

// Push decodes a raw frame and dispatches it to the current handlers, as a transport would.
func (c *RecordingChannel) Push(t *testing.T, frame string) {
	t.Helper()
	ev, err := realtime.Decode([]byte(frame))
	if err != nil {
		t.Fatalf("invalid test frame %s: %v", frame, err)
	}
	c.Handlers().Dispatch(ev)
}

// MemoryCredentialStore keeps credentials in memory.
type MemoryCredentialStore struct {
	mu      sync.Mutex
	Cred    *models.Credential
	SaveErr error
}

func (m *MemoryCredentialStore) Load() (*models.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Cred == nil {
		return nil, nil
	}
	c := *m.Cred
	return &c, nil
}

func (m *MemoryCredentialStore) Save(token string, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Cred = &models.Credential{Profile: "default", Token: token, User: user}
	return nil
}

func (m *MemoryCredentialStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cred = nil
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
