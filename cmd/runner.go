package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/screener/internal/api"
	"github.com/desertthunder/screener/internal/services"
	"github.com/desertthunder/screener/internal/session"
	"github.com/desertthunder/screener/internal/shared"
	"github.com/desertthunder/screener/internal/workflow"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	svc        services.Review
	store      *session.Store
	db         *sql.DB
	httpClient *http.Client
	clock      shared.Clock
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.Review
	Store      *session.Store
	HTTPClient *http.Client
	Clock      shared.Clock
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.Timeout()}
	}
	if opts.Clock == nil {
		opts.Clock = shared.NewClock()
	}

	return &Runner{
		config:     opts.Config,
		svc:        opts.Service,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		clock:      opts.Clock,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// sessionStore lazily opens the session database.
func (r *Runner) sessionStore() (*session.Store, error) {
	if r.store != nil {
		return r.store, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	store, err := session.NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	r.db = db
	r.store = store
	return store, nil
}

// service lazily builds the review service over the request engine,
// wired to the session store's credential accessors.
func (r *Runner) service() (services.Review, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	store, err := r.sessionStore()
	if err != nil {
		return nil, err
	}

	engine := api.NewEngine(api.EngineOpts{
		BaseURL:    store.BaseURLFunc(r.config.API.BaseURL),
		Token:      store.TokenFunc(),
		HTTPClient: r.httpClient,
		Clock:      r.clock,
		Logger:     r.logger,
		MaxRetries: r.config.API.MaxRetries,
		BaseDelay:  r.config.API.BaseDelay(),
		Hooks: api.Hooks{
			OnRetry: func(path, method string, attempt, maxRetries int, err error) {
				r.logger.Warn("retrying request", "method", method, "path", path, "attempt", attempt+1, "max", maxRetries, "error", err)
			},
			OnAuthError: func(status int, body []byte) {
				r.logger.Warn("authentication failure, run 'screener session login'", "status", status)
			},
		},
	})

	r.svc = services.NewReviewService(engine)
	return r.svc, nil
}

// controller builds a workflow controller over the review service. Each
// invocation owns fresh decision state; CLI commands are single-shot.
func (r *Runner) controller(policy workflow.PolicyFunc) (*workflow.Controller, error) {
	svc, err := r.service()
	if err != nil {
		return nil, err
	}
	return workflow.NewController(workflow.Opts{
		Service:       svc,
		Logger:        r.logger,
		Policy:        policy,
		BulkRateLimit: r.config.API.BulkRateLimit,
	}), nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		assetsCommand, batchCommand, policyCommand, sessionCommand, mockCommand, tuiCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the session database if one was opened.
func (r *Runner) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
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
