// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies domain systems require: logging, metrics,
// database, optional blob storage, the workspace, and the provisioning
// machinery that builds and runs model environments.
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	slogcontext "github.com/veqryn/slog-context"

	"github.com/JaimeStill/weles/internal/config"
	"github.com/JaimeStill/weles/internal/environments"
	"github.com/JaimeStill/weles/internal/runtimes"
	"github.com/JaimeStill/weles/internal/tasks"
	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/database"
	"github.com/JaimeStill/weles/pkg/lifecycle"
	"github.com/JaimeStill/weles/pkg/metrics"
	"github.com/JaimeStill/weles/pkg/process"
	"github.com/JaimeStill/weles/pkg/storage"
)

// Infrastructure holds the core systems required by all domain modules.
// Storage is nil when no connection string is configured.
type Infrastructure struct {
	Lifecycle    *lifecycle.Coordinator
	Logger       *slog.Logger
	Metrics      *prometheus.Registry
	Database     database.System
	Storage      storage.System
	Layout       workspace.Layout
	Archive      workspace.Archive
	Environments environments.System
	Runtimes     *runtimes.Dispatcher
	Tasks        *tasks.Tracker
}

// NewLogger returns the service logger. Attributes stored in a context with
// slog-context are added to every record logged with that context.
func NewLogger() *slog.Logger {
	return slog.New(slogcontext.NewHandler(slog.NewTextHandler(os.Stderr, nil), nil))
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := NewLogger()
	reg := metrics.NewRegistry()

	db, err := database.New(&cfg.Database, reg, logger)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Info("blob storage not configured, archive disabled")
		store = nil
	case err != nil:
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	layout, err := workspace.New(cfg.Workspace.Root)
	if err != nil {
		return nil, fmt.Errorf("workspace init failed: %w", err)
	}

	var archived storage.System
	if cfg.Workspace.ArchiveEnabled() {
		archived = store
	}

	return &Infrastructure{
		Lifecycle:    lc,
		Logger:       logger,
		Metrics:      reg,
		Database:     db,
		Storage:      store,
		Layout:       layout,
		Archive:      workspace.NewArchive(archived, logger),
		Environments: environments.New(layout.EnvsRoot(), &cfg.Environments, reg, logger),
		Runtimes:     runtimes.New(layout, &cfg.Runtimes, process.Exec{}, reg, logger),
		Tasks:        tasks.New(&cfg.Tasks, reg, logger),
	}, nil
}

// Start prepares the workspace and registers all infrastructure systems
// with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Layout.Init(); err != nil {
		return fmt.Errorf("workspace start failed: %w", err)
	}
	i.Logger.Info("workspace ready", "root", i.Layout.Root)
	i.Lifecycle.AddCheck("workspace", func(context.Context) error {
		return i.Layout.Writable()
	})

	if err := i.Database.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("database start failed: %w", err)
	}
	if i.Storage != nil {
		if err := i.Storage.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("storage start failed: %w", err)
		}
	}
	if err := i.Tasks.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("tasks start failed: %w", err)
	}
	return nil
}
