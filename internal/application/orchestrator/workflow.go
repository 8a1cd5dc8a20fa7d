package orchestrator

import (
	"context"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/lite-lake/dnssync/internal/application/usecase"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/infrastructure/dns"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/persistence"
	"github.com/lite-lake/dnssync/internal/infrastructure/secrets"
)

type WorkflowConfig struct {
	// ConfigDir holds secrets.yaml and optional providers.yaml/options.yaml seeds.
	ConfigDir     string
	Store         repository.Store
	LockDir       string
	Concurrency   int
	TargetTimeout time.Duration
	RateLimit     float64
	Burst         int
}

// Workflow wires the config directory, the store and the vendor factory into
// an Orchestrator.
type Workflow struct {
	cfg    WorkflowConfig
	loader *persistence.ConfigLoader
	locker *ZoneLocker
}

func NewWorkflow(cfg *WorkflowConfig) *Workflow {
	return &Workflow{
		cfg:    *cfg,
		loader: persistence.NewConfigLoader(cfg.ConfigDir),
		locker: NewZoneLocker(cfg.LockDir),
	}
}

func (w *Workflow) Store() repository.Store { return w.cfg.Store }

// LoadBundle reads and validates the config directory. A missing directory
// yields an empty bundle.
func (w *Workflow) LoadBundle(ctx context.Context) (*persistence.Bundle, error) {
	if w.cfg.ConfigDir == "" {
		return &persistence.Bundle{}, nil
	}
	if _, err := os.Stat(w.cfg.ConfigDir); os.IsNotExist(err) {
		logger.FromContext(ctx).Debug("config directory not found, using empty bundle", "dir", w.cfg.ConfigDir)
		return &persistence.Bundle{}, nil
	}
	b, err := w.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := w.loader.Validate(b); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return b, nil
}

func (w *Workflow) ResolveSecrets(ctx context.Context) (*secrets.SecretResolver, error) {
	b, err := w.LoadBundle(ctx)
	if err != nil {
		return nil, err
	}
	return secrets.NewSecretResolver(b.Secrets), nil
}

type ImportResult struct {
	Added       int
	Updated     int
	SyncOptions bool
}

// Import seeds the store from the bundle. Providers are upserted by id;
// providers only present in the store are kept.
func (w *Workflow) Import(ctx context.Context) (*ImportResult, error) {
	b, err := w.LoadBundle(ctx)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	if len(b.Providers) > 0 {
		stored, err := w.cfg.Store.LoadProviders(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range b.Providers {
			idx := slices.IndexFunc(stored, func(s entity.ProviderConfig) bool { return s.ID == p.ID })
			if idx >= 0 {
				stored[idx] = p
				res.Updated++
				continue
			}
			stored = append(stored, p)
			res.Added++
		}
		if err := w.cfg.Store.SaveProviders(ctx, stored); err != nil {
			return nil, err
		}
	}
	if b.SyncOptions != nil {
		if err := w.cfg.Store.SaveSyncOptions(ctx, *b.SyncOptions); err != nil {
			return nil, err
		}
		res.SyncOptions = true
	}

	logger.FromContext(ctx).Info("config imported", "added", res.Added, "updated", res.Updated, "sync_options", res.SyncOptions)
	return res, nil
}

// Adapters builds the vendor adapter registry. Secrets are read once here, so
// a changed secrets.yaml needs a new registry.
func (w *Workflow) Adapters(ctx context.Context) (*usecase.AdapterRegistry, error) {
	resolver, err := w.ResolveSecrets(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewAdapterRegistry(&usecase.AdapterRegistryConfig{
		Factory:   dns.NewFactory(resolver),
		Locker:    w.locker,
		RateLimit: w.cfg.RateLimit,
		Burst:     w.cfg.Burst,
	}), nil
}

func (w *Workflow) Orchestrator(ctx context.Context) (*Orchestrator, error) {
	adapters, err := w.Adapters(ctx)
	if err != nil {
		return nil, err
	}
	return New(&Config{
		Store:         w.cfg.Store,
		Adapters:      adapters,
		Concurrency:   w.cfg.Concurrency,
		TargetTimeout: w.cfg.TargetTimeout,
	}), nil
}
