package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/roomsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8000/api"

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client  // defaults to a client with Timeout
	Timeout    time.Duration // used when HTTPClient is nil
	Tokens     TokenProvider
	RateLimit  float64 // requests per second, 0 disables throttling
	Burst      int
	Logger     *log.Logger
}

// Client issues authenticated command calls against the backend of record.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a command client. The HTTP client's transport is wrapped so each request picks up
// the current token from opts.Tokens.
func NewClient(opts ClientOpts) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var httpClient http.Client
	if opts.HTTPClient != nil {
		httpClient = *opts.HTTPClient
	}
	if httpClient.Timeout == 0 && opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}

	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	httpClient.Transport = &bearerTransport{base: base, tokens: opts.Tokens}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &httpClient,
		limiter:    limiter,
		logger:     shared.WithLogger(logger, "component", "api"),
	}
}

// BaseURL returns the API root requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// bearerTransport adds the Authorization header through [oauth2.Transport] when a token is available.
type bearerTransport struct {
	base   http.RoundTripper
	tokens TokenProvider
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var token string
	if t.tokens != nil {
		token = t.tokens.AccessToken()
	}
	if token == "" {
		return t.base.RoundTrip(req)
	}

	rt := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   t.base,
	}
	return rt.RoundTrip(req)
}

// doRequest sends body as JSON to endpoint and decodes a 2xx response into result when both are non-empty.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", endpoint, "error", err)
		return c.networkError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", shared.ErrNetwork, err)
	}

	c.logger.Debug("request", "method", method, "path", endpoint, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: ParseErrorMessage(resp.StatusCode, data), Path: endpoint}
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// networkError turns a transport failure into a readable message.
func (c *Client) networkError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: request cancelled", shared.ErrNetwork)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: request timed out", shared.ErrNetwork)
	case errors.Is(err, syscall.ECONNREFUSED), strings.Contains(strings.ToLower(err.Error()), "connection refused"):
		return fmt.Errorf("%w: unable to connect to server at %s; make sure the backend is running", shared.ErrNetwork, c.baseURL)
	default:
		return fmt.Errorf("%w: check your internet connection (%v)", shared.ErrNetwork, err)
	}
}
