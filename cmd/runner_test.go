package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/repositories"
	"github.com/desertthunder/roomsync/internal/shared"
	tu "github.com/desertthunder/roomsync/internal/testing"
)

const roomJSON = `{"id":"room1","name":"Friday Mix","isPublic":true,"owner":{"id":"u1","name":"Alice"},` +
	`"participants":[{"id":"u1","name":"Alice"}],` +
	`"queue":[{"id":"q1","track":{"id":"t1","name":"Song 1","artist":"Artist 1","duration":185},"votes":2,"addedAt":"2024-05-01T10:00:00Z"}]}`

// fakeBackend serves the command API for one room and records mutating calls.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, call)
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) has(call string) bool {
	for _, c := range b.Calls() {
		if c == call {
			return true
		}
	}
	return false
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := strings.TrimPrefix(req.URL.Path, "/api")
	w.Header().Set("Content-Type", "application/json")

	if path != "/auth/login" && path != "/auth/register" && req.Header.Get("Authorization") != "Bearer tok-1" {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"detail":"Not authenticated"}`)
		return
	}

	var body map[string]any
	if req.Body != nil {
		json.NewDecoder(req.Body).Decode(&body)
	}

	route := req.Method + " " + path
	switch {
	case route == "POST /auth/login":
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"detail":"Invalid credentials"}`)
			return
		}
		io.WriteString(w, `{"token":"tok-1"}`)
	case route == "POST /auth/register":
		b.record("register:" + body["email"].(string))
		io.WriteString(w, `{"token":"tok-unused"}`)
	case route == "GET /users/me":
		io.WriteString(w, `{"id":"u1","name":"Alice","email":"alice@example.com"}`)
	case route == "GET /rooms/rooms":
		io.WriteString(w, "["+roomJSON+`,{"id":"room2","name":"Chill","isPublic":false}]`)
	case route == "POST /rooms/rooms":
		public, _ := json.Marshal(body["isPublic"])
		b.record("create:" + body["name"].(string) + ":" + string(public))
		io.WriteString(w, `{"id":"room3","name":"`+body["name"].(string)+`"}`)
	case route == "GET /rooms/rooms/room1":
		io.WriteString(w, roomJSON)
	case route == "POST /rooms/rooms/room1/join":
		b.record("join:room1")
		io.WriteString(w, roomJSON)
	case route == "POST /rooms/rooms/room1/leave":
		b.record("leave:room1")
		w.WriteHeader(http.StatusNoContent)
	case route == "DELETE /rooms/rooms/room1":
		b.record("delete:room1")
		w.WriteHeader(http.StatusNoContent)
	case route == "GET /rooms/room1/queue":
		io.WriteString(w, `[{"id":"q1","track":{"id":"t1","name":"Song 1","artist":"Artist 1","duration":185},"votes":2,"addedAt":"2024-05-01T10:00:00Z"}]`)
	case route == "POST /rooms/room1/queue":
		trackID := body["trackId"].(string)
		b.record("add:" + trackID)
		io.WriteString(w, `{"id":"q-`+trackID+`","track":{"id":"`+trackID+`","name":"Added","artist":"Someone","duration":100},"votes":0,"addedAt":"2024-05-01T10:00:00Z"}`)
	case route == "DELETE /rooms/room1/queue/q1":
		b.record("remove:q1")
		w.WriteHeader(http.StatusNoContent)
	case route == "POST /rooms/room1/queue/q1/vote":
		b.record("vote:q1:" + body["vote"].(string))
		w.WriteHeader(http.StatusNoContent)
	case route == "GET /tracks/search":
		io.WriteString(w, `[{"id":"t2","name":"Song Two","artist":"Artist 2","duration":200},{"id":"t3","name":"Song Three","artist":"Artist 2","duration":90}]`)
	case route == "GET /tracks/t1":
		io.WriteString(w, `{"id":"t1","name":"Song 1","artist":"Artist 1","duration":185}`)
	case route == "POST /tracks/":
		b.record("track:" + body["name"].(string))
		io.WriteString(w, `{"id":"t9","name":"`+body["name"].(string)+`","artist":"Me","duration":60}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail":"Not found"}`)
	}
}

// syncBuffer is a [bytes.Buffer] safe for a command goroutine writing while the test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

type harness struct {
	runner  *Runner
	backend *fakeBackend
	channel *tu.RecordingChannel
	output  *syncBuffer
	db      *repositories.CredentialRepository
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()

	backend := &fakeBackend{}
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	config := shared.DefaultConfig()
	config.API.BaseURL = srv.URL + "/api"
	config.API.RateLimit = 0
	config.Session.LockPath = filepath.Join(t.TempDir(), "session.lock")

	h := &harness{
		backend: backend,
		channel: &tu.RecordingChannel{},
		output:  &syncBuffer{},
		db:      repositories.NewCredentialRepository(db, repositories.DefaultProfile),
	}
	h.runner = NewRunner(RunnerOpts{
		Config:     config,
		DB:         db,
		Channel:    h.channel,
		HTTPClient: srv.Client(),
		Logger:     shared.NewLogger(io.Discard),
		Output:     h.output,
		Input:      strings.NewReader(input),
		IsTerminal: func() bool { return false },
	})
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	if err := h.db.Save("tok-1", &models.User{ID: "u1", Name: "Alice"}); err != nil {
		t.Fatalf("failed to seed credential: %v", err)
	}
	h.runner.wire()
}

func (h *harness) run(ctx context.Context, args ...string) error {
	app := &cli.Command{
		Name:     "roomsync",
		Commands: h.runner.register(),
		Writer:   io.Discard,
	}
	return app.Run(ctx, append([]string{"roomsync"}, args...))
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("applies the configured api timeout", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(3 * time.Second):
				}
			}))
			t.Cleanup(server.Close)

			config := shared.DefaultConfig()
			config.API.BaseURL = server.URL
			config.API.TimeoutSeconds = 1
			runner := NewRunner(RunnerOpts{Config: config, Output: &bytes.Buffer{}, Channel: &tu.RecordingChannel{}})

			start := time.Now()
			_, err := runner.client.ListRooms(context.Background())
			if !errors.Is(err, shared.ErrNetwork) {
				t.Fatalf("expected ErrNetwork, got %v", err)
			}
			if elapsed := time.Since(start); elapsed > 2500*time.Millisecond {
				t.Errorf("expected timeout after about 1s, took %v", elapsed)
			}
			if http.DefaultClient.Timeout != 0 {
				t.Error("default client should not be modified")
			}
		})

		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			channel := &tu.RecordingChannel{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Channel:    channel,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.client == nil || runner.auth == nil || runner.session == nil || runner.engine == nil {
				t.Error("expected components to be wired")
			}
			if runner.tracks != nil || runner.cache != nil {
				t.Error("expected no track cache without a database")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with database wires cache and credential store", func(t *testing.T) {
			h := newHarness(t, "")
			if h.runner.tracks == nil || h.runner.cache == nil {
				t.Error("expected track cache to be wired")
			}
			if h.runner.store == nil {
				t.Error("expected database credential store")
			}
		})

		t.Run("loads stored credentials", func(t *testing.T) {
			h := newHarness(t, "")
			h.login(t)
			if !h.runner.auth.IsAuthenticated() {
				t.Error("expected stored token to authenticate the runner")
			}
		})
	})

	t.Run("SetLogger", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)
		previous := h.runner.session

		logger := shared.NewLogger(io.Discard)
		h.runner.SetLogger(logger)

		if h.runner.logger != logger {
			t.Error("expected logger to be replaced")
		}
		if h.runner.session == previous {
			t.Error("expected session to be rebuilt")
		}
		if !h.runner.auth.IsAuthenticated() {
			t.Error("expected credentials to survive rewiring")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "rooms", "room", "queue", "tracks", "cache"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})
}

func TestRenderTable(t *testing.T) {
	t.Run("pads short rows", func(t *testing.T) {
		out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
		if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
			t.Errorf("unexpected table: %s", out)
		}
	})

	t.Run("no headers", func(t *testing.T) {
		if out := renderTable(nil, [][]string{{"x"}}, nil); out != "" {
			t.Errorf("expected empty output, got %q", out)
		}
	})
}
