package cli

import (
	"context"
	"fmt"

	"github.com/lite-lake/dnssync/internal/application/orchestrator"
	"github.com/lite-lake/dnssync/internal/config"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/persistence"
	"github.com/lite-lake/dnssync/internal/infrastructure/state"
)

// Context carries global flags and lazily opened resources between commands.
type Context struct {
	SettingsFile string
	EnvDir       string
	ConfigDir    string

	Settings *config.Config

	store   repository.Store
	closers []func() error
}

func NewContext() *Context {
	return &Context{EnvDir: "."}
}

// Load reads settings and initializes logging. Flags override settings.
func (c *Context) Load() error {
	settings, err := config.Load(c.EnvDir, c.SettingsFile)
	if err != nil {
		return err
	}
	if c.ConfigDir != "" {
		settings.Store.ConfigDir = c.ConfigDir
	}
	c.Settings = settings
	logger.Init(settings.Logger())
	return nil
}

func (c *Context) Store(ctx context.Context) (repository.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	s := c.Settings.Store
	switch s.Driver {
	case config.StoreDriverMySQL:
		db, err := persistence.Connect(ctx, c.Settings.Database)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := db.DB(); err == nil {
			c.closers = append(c.closers, sqlDB.Close)
		}
		gs := persistence.NewGormStore(db, s.HistoryLimit)
		if err := gs.Migrate(ctx); err != nil {
			return nil, err
		}
		c.store = gs
	default:
		c.store = state.NewFileStore(s.Path, s.HistoryLimit)
	}
	return c.store, nil
}

func (c *Context) ProviderService(ctx context.Context) (*service.ProviderService, error) {
	store, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewProviderService(store), nil
}

func (c *Context) Workflow(ctx context.Context) (*orchestrator.Workflow, error) {
	store, err := c.Store(ctx)
	if err != nil {
		return nil, err
	}
	sync := c.Settings.Sync
	return orchestrator.NewWorkflow(&orchestrator.WorkflowConfig{
		ConfigDir:     c.Settings.Store.ConfigDir,
		Store:         store,
		LockDir:       c.Settings.Store.LockDir,
		Concurrency:   sync.Concurrency,
		TargetTimeout: sync.TargetTimeout,
		RateLimit:     sync.RateLimit,
		Burst:         sync.Burst,
	}), nil
}

func (c *Context) Orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	wf, err := c.Workflow(ctx)
	if err != nil {
		return nil, err
	}
	return wf.Orchestrator(ctx)
}

func (c *Context) Close() {
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			logger.Warn("failed to close resource", "error", fmt.Sprint(err))
		}
	}
	c.closers = nil
}
