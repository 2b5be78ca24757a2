package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	TransportEventStream = "eventstream"
	TransportSocket      = "socket"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Realtime RealtimeConfig `toml:"realtime"`
	Database DatabaseConfig `toml:"database"`
	Session  SessionConfig  `toml:"session"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains command API settings.
type APIConfig struct {
	BaseURL        string  `toml:"base_url"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables throttling
	Burst          int     `toml:"burst"`
}

// RealtimeConfig selects and tunes the push channel transport.
type RealtimeConfig struct {
	Transport      string `toml:"transport"` // "eventstream" or "socket"
	EventStreamURL string `toml:"event_stream_url"`
	SocketURL      string `toml:"socket_url"`
	MaxAttempts    int    `toml:"max_attempts"`
	BaseDelayMS    int    `toml:"base_delay_ms"`
	MaxDelayMS     int    `toml:"max_delay_ms"`
	RetryMS        int    `toml:"retry_ms"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// SessionConfig contains live session settings.
type SessionConfig struct {
	LockPath string `toml:"lock_path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Timeout returns the per-request timeout for command calls.
func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BaseDelay returns the first reconnect delay.
func (c RealtimeConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMS) * time.Millisecond
}

// MaxDelay returns the reconnect delay ceiling.
func (c RealtimeConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelayMS) * time.Millisecond
}

// Retry returns the event stream's fixed reconnect delay.
func (c RealtimeConfig) Retry() time.Duration {
	return time.Duration(c.RetryMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides endpoint settings from ROOMSYNC_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("ROOMSYNC_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv("ROOMSYNC_EVENT_STREAM_URL"); v != "" {
		c.Realtime.EventStreamURL = v
	}
	if v := getenv("ROOMSYNC_SOCKET_URL"); v != "" {
		c.Realtime.SocketURL = v
	}
	if v := getenv("ROOMSYNC_TRANSPORT"); v != "" {
		c.Realtime.Transport = v
	}
}

// Validate checks settings that would otherwise fail late at connect time.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}

	switch c.Realtime.Transport {
	case TransportEventStream:
		if c.Realtime.EventStreamURL == "" {
			return fmt.Errorf("%w: realtime.event_stream_url is required", ErrInvalidConfig)
		}
	case TransportSocket:
		if c.Realtime.SocketURL == "" {
			return fmt.Errorf("%w: realtime.socket_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown realtime.transport %q", ErrInvalidConfig, c.Realtime.Transport)
	}

	if c.Realtime.MaxAttempts <= 0 || c.Realtime.BaseDelayMS <= 0 || c.Realtime.MaxDelayMS <= 0 {
		return fmt.Errorf("%w: realtime backoff settings must be positive", ErrInvalidConfig)
	}
	if c.Realtime.MaxDelayMS < c.Realtime.BaseDelayMS {
		return fmt.Errorf("%w: realtime.max_delay_ms is below base_delay_ms", ErrInvalidConfig)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit cannot be negative", ErrInvalidConfig)
	}
	return nil
}
