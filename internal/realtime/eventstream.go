package realtime

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/shared"
)

const (
	defaultRetry   = 3 * time.Second
	maxFrameLength = 1 << 20
)

// EventStreamOpts configures an [EventStream].
type EventStreamOpts struct {
	HubURL     string // e.g. http://localhost:3000/.well-known/mercure
	HTTPClient *http.Client
	Retry      time.Duration
	Header     http.Header
	// Sleep waits between reconnects; it returns early with ctx's error when the stream is closed.
	Sleep  func(ctx context.Context, d time.Duration) error
	Logger *log.Logger
}

// EventStream subscribes to the room topic on a hub and reconnects until closed.
type EventStream struct {
	hubURL string
	client *http.Client
	header http.Header
	sleep  func(ctx context.Context, d time.Duration) error
	logger *log.Logger

	mu          sync.Mutex
	active      bool
	connected   bool
	retry       time.Duration
	lastEventID string
	roomID      string
	handlers    Handlers
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewEventStream creates a closed event stream channel.
func NewEventStream(opts EventStreamOpts) *EventStream {
	client := opts.HTTPClient
	if client == nil {
		// no overall timeout: the response body stays open for the life of the subscription
		client = &http.Client{}
	}
	retry := opts.Retry
	if retry <= 0 {
		retry = defaultRetry
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &EventStream{
		hubURL: opts.HubURL,
		client: client,
		header: opts.Header,
		sleep:  sleep,
		retry:  retry,
		logger: shared.WithLogger(discardLogger(opts.Logger), "component", "eventstream"),
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// URL returns the subscription URL for roomID's topic.
func (e *EventStream) URL(roomID string) string {
	sep := "?"
	if strings.Contains(e.hubURL, "?") {
		sep = "&"
	}
	return e.hubURL + sep + "topic=" + url.QueryEscape("rooms/"+roomID)
}

// Open starts the subscription loop in the background.
func (e *EventStream) Open(roomID string, handlers Handlers) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active {
		e.logger.Debug("open ignored, already open", "room", e.roomID)
		return nil
	}
	e.active = true
	e.roomID = roomID
	e.handlers = handlers
	e.lastEventID = ""
	e.start()
	return nil
}

// start launches a run loop. Callers hold e.mu.
func (e *EventStream) start() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	e.cancel, e.done = cancel, done
	u, handlers := e.URL(e.roomID), e.handlers
	go func() {
		defer close(done)
		e.run(ctx, u, handlers)
	}()
}

// stop cancels the run loop and waits for it to exit.
func (e *EventStream) stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.cancel, e.done = nil, nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Close ends the subscription. No handler runs after Close returns.
func (e *EventStream) Close() error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return nil
	}
	e.active = false
	roomID := e.roomID
	e.mu.Unlock()

	e.stop()
	e.logger.Info("event stream closed", "room", roomID)
	return nil
}

func (e *EventStream) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// Reconnect drops any pending retry wait and subscribes again immediately.
func (e *EventStream) Reconnect() error {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return shared.ErrChannelClosed
	}
	if e.connected {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()

	e.stop()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active && e.cancel == nil {
		e.start()
	}
	return nil
}

func (e *EventStream) setConnected(v bool) {
	e.mu.Lock()
	e.connected = v
	e.mu.Unlock()
}

func (e *EventStream) retryDelay() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.retry
}

func (e *EventStream) run(ctx context.Context, u string, handlers Handlers) {
	for {
		err := e.subscribe(ctx, u, handlers)
		e.setConnected(false)
		if ctx.Err() != nil {
			return
		}

		delay := e.retryDelay()
		e.logger.Warn("event stream interrupted, reconnecting", "error", err, "delay", delay)
		if e.sleep(ctx, delay) != nil {
			return
		}
	}
}

// subscribe holds one connection open until it ends or ctx is cancelled.
func (e *EventStream) subscribe(ctx context.Context, u string, handlers Handlers) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	for k, vs := range e.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	e.mu.Lock()
	if e.lastEventID != "" {
		req.Header.Set("Last-Event-ID", e.lastEventID)
	}
	e.mu.Unlock()

	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hub returned status %d", resp.StatusCode)
	}

	e.setConnected(true)
	e.logger.Info("event stream connected", "url", u)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameLength)

	var (
		data      []string
		eventName string
	)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 && (eventName == "" || eventName == "message") && ctx.Err() == nil {
				handleFrame(e.logger, handlers, []byte(strings.Join(data, "\n")))
			}
			data, eventName = data[:0], ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "data":
			data = append(data, value)
		case "event":
			eventName = value
		case "id":
			e.mu.Lock()
			e.lastEventID = value
			e.mu.Unlock()
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
				e.mu.Lock()
				e.retry = time.Duration(ms) * time.Millisecond
				e.mu.Unlock()
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return fmt.Errorf("stream ended")
}
