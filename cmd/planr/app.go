package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/planr/internal/api"
	"github.com/ShayCichocki/planr/internal/clarify"
	"github.com/ShayCichocki/planr/internal/cleanup"
	"github.com/ShayCichocki/planr/internal/config"
	"github.com/ShayCichocki/planr/internal/deletion"
	"github.com/ShayCichocki/planr/internal/generation"
	"github.com/ShayCichocki/planr/internal/git"
	"github.com/ShayCichocki/planr/internal/logging"
	"github.com/ShayCichocki/planr/internal/mirror"
	"github.com/ShayCichocki/planr/internal/state"
	"github.com/ShayCichocki/planr/pkg/models"
)

// errNotInitialized is returned when the repository has no project yet.
var errNotInitialized = errors.New("no planr project here; run 'planr init' first")

// app holds the wired services for one command invocation.
type app struct {
	root    string
	cfg     *config.Config
	logger  *logging.Logger
	db      *state.DB
	gen     generation.Capability
	mirror  mirror.Publisher
	cleanup *cleanup.Runner
	tokens  *api.TokenTracker

	planning *clarify.Service
	deleter  *deletion.Coordinator
}

// loadConfig honours --config, --db and --log-level.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flagConfigPath != "" {
		cfg, err = config.LoadFromPath(flagConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if flagDBPath != "" {
		cfg.Database.Path = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// projectRoot returns the enclosing git repository, or the working directory
// outside of one.
func projectRoot(ctx context.Context) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	if top, err := git.NewRunner(cwd).Run(ctx, "rev-parse", "--show-toplevel"); err == nil && top != "" {
		return filepath.Clean(top), nil
	}
	return cwd, nil
}

// newApp opens the store and wires every service. Close must be called.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	root, err := projectRoot(ctx)
	if err != nil {
		return nil, err
	}

	logger, err := logging.Open(cfg.LogPath(root), cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	db, err := state.OpenWithDriver(cfg.Database.Driver, cfg.DatabasePath(root))
	if err != nil {
		logger.Close()
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		logger.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	gen := buildCapability(cfg)
	a := &app{
		root:   root,
		cfg:    cfg,
		logger: logger,
		db:     db,
		gen:    withTimeout(gen, cfg.Generation.Timeout),
	}
	if client, ok := gen.(*api.Client); ok {
		a.tokens = client.Tracker()
	}

	if cfg.Mirror.Endpoint != "" {
		a.mirror = mirror.NewHTTPPublisher(cfg.Mirror.Endpoint, cfg.Mirror.Token, nil)
	}

	a.cleanup = cleanup.NewRunner(cleanup.Config{
		Workers:   cfg.Cleanup.Workers,
		QueueSize: cfg.Cleanup.QueueSize,
		Logger:    logger.Logger,
	})

	// Deletion must see a missing publisher; planning just skips the update.
	var notifier clarify.Notifier = mirror.Nop{}
	deleteOpts := []deletion.Option{deletion.WithLogger(logger.With("component", "deletion"))}
	if a.mirror != nil {
		notifier = a.mirror
		deleteOpts = append(deleteOpts, deletion.WithMirror(a.mirror))
	}
	a.planning = clarify.New(db, a.gen,
		clarify.WithLogger(logger.With("component", "clarify")),
		clarify.WithNotifier(notifier))
	a.deleter = deletion.New(db, a.cleanup, deleteOpts...)

	logger.Debug("planr started", "root", root, "db", db.Path(), "driver", db.Driver(),
		"backend", cfg.Generation.Backend, "mirror", cfg.Mirror.Endpoint != "")
	return a, nil
}

// Close waits for queued cleanup jobs, then releases the store and log.
func (a *app) Close() error {
	var errs []error
	if a.cleanup != nil {
		errs = append(errs, a.cleanup.Close())
	}
	if a.tokens != nil && a.tokens.Calls() > 0 {
		in, out := a.tokens.Total()
		a.logger.Info("generation usage", "calls", a.tokens.Calls(),
			"input_tokens", in, "output_tokens", out, "cost_usd", a.tokens.Cost())
	}
	errs = append(errs, a.db.Close())
	errs = append(errs, a.logger.Close())
	return errors.Join(errs...)
}

// currentProject returns the project registered for the repository root.
func (a *app) currentProject(ctx context.Context) (*models.Project, error) {
	p, err := a.db.GetProjectByRepoPath(ctx, a.root)
	if err != nil {
		return nil, state.DBError("find project", err)
	}
	if p == nil {
		return nil, errNotInitialized
	}
	return p, nil
}

// task loads a task by id and fails if it does not exist.
func (a *app) task(ctx context.Context, id string) (*models.Task, error) {
	t, err := a.db.GetTask(ctx, id)
	if err != nil {
		return nil, state.DBError("get task", err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", clarify.ErrTaskNotFound, id)
	}
	return t, nil
}

// buildCapability selects the generation backend. A backend that cannot be
// constructed still yields a capability, one that reports why on every call.
func buildCapability(cfg *config.Config) generation.Capability {
	switch cfg.Generation.Backend {
	case config.BackendAnthropic, config.BackendBedrock:
		key, _, _ := config.ResolveAPIKey(cfg)
		client, err := api.NewClient(api.ClientConfig{
			Model:         anthropic.Model(cfg.Generation.Model),
			APIKey:        key,
			UseAWSBedrock: cfg.Generation.Backend == config.BackendBedrock,
			AWSRegion:     cfg.AWS.Region,
			AWSProfile:    cfg.AWS.Profile,
			BaseURL:       cfg.Anthropic.BaseURL,
			MaxRetries:    2,
		})
		if err != nil {
			return generation.Func(func(context.Context, generation.Request) (string, error) {
				return "", err
			})
		}
		return client
	default:
		return generation.NewStub()
	}
}

// withTimeout bounds every generation call.
func withTimeout(gen generation.Capability, timeout time.Duration) generation.Capability {
	if timeout <= 0 {
		return gen
	}
	return generation.Func(func(ctx context.Context, req generation.Request) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return gen.Invoke(ctx, req)
	})
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	runErr := fn(a)
	if err := a.Close(); err != nil && runErr == nil {
		return err
	}
	return runErr
}
