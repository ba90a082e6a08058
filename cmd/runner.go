package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/tunedash/internal/dashboard"
	"github.com/desertthunder/tunedash/internal/models"
	"github.com/desertthunder/tunedash/internal/repositories"
	"github.com/desertthunder/tunedash/internal/server"
	"github.com/desertthunder/tunedash/internal/services"
	"github.com/desertthunder/tunedash/internal/session"
	"github.com/desertthunder/tunedash/internal/shared"
	"github.com/desertthunder/tunedash/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the configuration the first time a
// command needs them.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	ownDB      bool
	store      session.Store
	api        *services.APIService
	backend    services.Service
	sessions   *session.Manager
	snapshots  *repositories.SnapshotRepository
	pipeline   *tasks.Pipeline
	transport  http.RoundTripper
	opener     shared.Opener
	login      dashboard.LoginFunc
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	DB         *sql.DB
	Store      session.Store
	API        *services.APIService
	Backend    services.Service
	Transport  http.RoundTripper // base transport under the session transport
	Opener     shared.Opener
	Login      dashboard.LoginFunc // replaces the browser login
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		db:         opts.DB,
		store:      opts.Store,
		api:        opts.API,
		backend:    opts.Backend,
		transport:  opts.Transport,
		opener:     opts.Opener,
		login:      opts.Login,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the logger used by components built after the call.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, analyzeCommand, tracksCommand, artistsCommand,
		historyCommand, exportCommand, apiCommand, dashboardCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies the log level.
//
// A missing file means defaults; a file that fails to parse or validate is an error.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if r.config == nil {
		config, err := shared.LoadConfig(r.configPath)
		switch {
		case errors.Is(err, shared.ErrMissingConfig):
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
			config = shared.DefaultConfig()
		case err != nil:
			return ctx, err
		}
		r.config = config
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("debug") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// After closes the database if the runner opened one.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close releases the database the runner opened. An injected database stays open.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownDB = nil, false
	return err
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// database opens and migrates the configured SQLite file once.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.cfg().Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db, r.ownDB = db, true
	return db, nil
}

func (r *Runner) snapshotRepo() (*repositories.SnapshotRepository, error) {
	if r.snapshots != nil {
		return r.snapshots, nil
	}
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	r.snapshots = repositories.NewSnapshotRepository(db)
	return r.snapshots, nil
}

// wire builds whatever the command needs that was not injected: the key/value store, the
// backend client behind the session transport, the session manager and the load pipeline.
func (r *Runner) wire() error {
	if r.pipeline != nil {
		return nil
	}
	cfg := r.cfg()

	if r.store == nil {
		db, err := r.database()
		if err != nil {
			return err
		}
		r.store = repositories.NewStorageRepository(db)
	}

	if r.backend == nil {
		if r.api == nil {
			lookup := func() (string, bool) { return r.sessions.Token() }

			client := services.NewSessionClient(lookup, cfg.Backend.SessionHeader, cfg.Backend.SessionCookie, r.transport)
			client.Timeout = cfg.Backend.Timeout()
			r.api = services.NewAPIService(cfg.Backend.BaseURL, client,
				services.WithLogger(shared.WithLogger(r.logger, "component", "api")),
				services.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.Burst),
				services.WithBreaker(cfg.Breaker),
			)
		}
		r.backend = services.NewBackend(r.api)
	}

	r.sessions = session.NewManager(r.store, r.backend, shared.WithLogger(r.logger, "component", "session"))

	opts := tasks.PipelineOpts{Palette: models.Palette(cfg.Dashboard.Palette), Logger: r.logger}
	if cfg.Dashboard.SaveSnapshots {
		repo, err := r.snapshotRepo()
		if err != nil {
			return err
		}
		opts.Saver = repo
	}
	r.pipeline = tasks.NewPipeline(r.backend, opts)
	return nil
}

// controller wires a [dashboard.Controller]. announce prints the login URL to the output,
// which the TUI does not want.
func (r *Runner) controller(announce bool) (*dashboard.Controller, error) {
	if err := r.wire(); err != nil {
		return nil, err
	}
	login := r.login
	if login == nil {
		login = r.browserLogin(announce)
	}
	return dashboard.NewController(r.sessions, r.pipeline, login, r.logger), nil
}

// browserLogin opens {base_url}/login in the browser and waits on the local listener for
// the backend's redirect.
func (r *Runner) browserLogin(announce bool) dashboard.LoginFunc {
	return func(ctx context.Context) (session.Result, error) {
		srv := server.NewCallbackServer(r.cfg().Callback, r.sessions, r.logger)
		if err := srv.Bind(); err != nil {
			return session.Result{}, err
		}

		loginURL := r.backend.LoginURL()
		if announce {
			r.writePlain("Opening %s\n", loginURL)
			r.writePlain("Waiting for the login callback on %s ...\n", srv.URL())
		}
		if err := r.opener(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "error", err)
			if announce {
				r.writePlain("Could not open a browser, visit the URL above manually.\n")
			}
		}
		return srv.Listen(ctx)
	}
}

// loggedIn restores the session for r and fails with [shared.ErrNotLoggedIn] when there is none.
func (r *Runner) loggedIn(ctx context.Context, tr models.TimeRange) (*dashboard.Controller, dashboard.State, error) {
	ctrl, err := r.controller(true)
	if err != nil {
		return nil, dashboard.State{}, err
	}
	state := ctrl.Start(ctx, tr)
	if !state.LoggedIn() {
		return nil, state, fmt.Errorf("%w: run 'tunedash auth login' first", shared.ErrNotLoggedIn)
	}
	return ctrl, state, nil
}

// timeRange reads --range, falling back to the configured default.
func (r *Runner) timeRange(cmd *cli.Command) (models.TimeRange, error) {
	value := cmd.String("range")
	if value == "" {
		value = r.cfg().Dashboard.TimeRange
	}
	tr, err := models.ParseTimeRange(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return tr, nil
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
