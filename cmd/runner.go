package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/roomsync/internal/models"
	"github.com/desertthunder/roomsync/internal/realtime"
	"github.com/desertthunder/roomsync/internal/repositories"
	"github.com/desertthunder/roomsync/internal/services"
	"github.com/desertthunder/roomsync/internal/session"
	"github.com/desertthunder/roomsync/internal/shared"
	"github.com/desertthunder/roomsync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      session.CredentialStore
	channel    realtime.Channel
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	isTerminal func() bool

	client    *services.Client
	creds     *session.Credentials
	auth      *session.Auth
	lifecycle *session.Lifecycle
	session   *session.Session
	tracks    *repositories.TrackRepository
	cache     *repositories.TrackCacheAdapter
	engine    *tasks.QueueEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB                 // credential store and track cache; nil keeps credentials in memory
	Store      session.CredentialStore // overrides the DB-backed credential store
	Channel    realtime.Channel        // overrides the configured push transport
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	IsTerminal func() bool
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = stdoutIsTerminal
	}
	if opts.Store == nil && opts.DB != nil {
		opts.Store = repositories.NewCredentialRepository(opts.DB, repositories.DefaultProfile)
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      opts.Store,
		channel:    opts.Channel,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		isTerminal: opts.IsTerminal,
	}
	r.wire()
	return r
}

// wire builds the client, auth context, room session and bulk engine around the current logger.
func (r *Runner) wire() {
	r.creds = session.NewCredentials(r.store, r.logger)
	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Timeout:    r.config.API.Timeout(),
		Tokens:     r.creds,
		RateLimit:  r.config.API.RateLimit,
		Burst:      r.config.API.Burst,
		Logger:     r.logger,
	})
	r.auth = session.NewAuth(r.client, r.creds, r.logger)

	channel := r.channel
	if channel == nil {
		ch, err := realtime.New(r.config.Realtime, r.httpClient, r.logger)
		if err != nil {
			r.logger.Warn("invalid realtime config, falling back to the event stream", "error", err)
			cfg := r.config.Realtime
			cfg.Transport = shared.TransportEventStream
			ch, _ = realtime.New(cfg, r.httpClient, r.logger)
		}
		channel = ch
	}
	r.lifecycle = session.NewLifecycle(channel, r.logger)
	r.session = session.New(r.client, r.lifecycle, r.creds, r.logger)

	var cacher tasks.TrackCacher
	if r.db != nil {
		r.tracks = repositories.NewTrackRepository(r.db)
		r.cache = repositories.NewTrackCacheAdapter(r.tracks)
		cacher = r.cache
	}
	r.engine = tasks.NewQueueEngine(r.client, cacher, tasks.EngineOpts{
		RateLimit: r.config.API.RateLimit,
		Burst:     r.config.API.Burst,
	}, r.logger)
}

// SetLogger replaces the logger and rebuilds every component so they log through it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, roomsCommand, roomCommand, queueCommand, tracksCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// requireAuth fails fast when no token is stored.
func (r *Runner) requireAuth() error {
	if !r.auth.IsAuthenticated() {
		return fmt.Errorf("%w: run 'roomsync auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// resultErr converts a failed [models.Result] into a command error.
func resultErr(action string, res models.Result) error {
	if res.Success {
		return nil
	}
	return fmt.Errorf("%s: %w", action, res.Err())
}

// cacheTracks stores tracks seen by a command. Failures are logged only.
func (r *Runner) cacheTracks(tracks ...models.Track) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheTracks(tracks); err != nil {
		r.logger.Warn("failed to cache tracks", "error", err)
	}
}

func (r *Runner) cacheQueue(items []models.QueueItem) {
	if r.cache == nil {
		return
	}
	if err := r.cache.CacheQueue(items); err != nil {
		r.logger.Warn("failed to cache queue tracks", "error", err)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
