package usecase

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/retry"
)

// ProviderFactory builds the low-level vendor client for a provider config.
type ProviderFactory interface {
	Create(ctx context.Context, cfg *entity.ProviderConfig) (contract.DNSProvider, error)
}

type AdapterRegistryConfig struct {
	Factory ProviderFactory
	Locker  contract.ZoneLocker
	// RateLimit is vendor calls per second per adapter; zero disables limiting.
	RateLimit float64
	Burst     int
	Retry     []retry.Option
}

// AdapterRegistry hands out a RecordSyncer per provider config. Vendor
// dispatch happens in the factory, keyed by the config's type.
type AdapterRegistry struct {
	factory   ProviderFactory
	locker    contract.ZoneLocker
	rateLimit float64
	burst     int
	retry     []retry.Option
}

func NewAdapterRegistry(cfg *AdapterRegistryConfig) *AdapterRegistry {
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &AdapterRegistry{
		factory:   cfg.Factory,
		locker:    cfg.Locker,
		rateLimit: cfg.RateLimit,
		burst:     burst,
		retry:     cfg.Retry,
	}
}

var _ contract.AdapterFactory = (*AdapterRegistry)(nil)

func (r *AdapterRegistry) Adapter(ctx context.Context, cfg *entity.ProviderConfig) (contract.Adapter, error) {
	provider, err := r.factory.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}
	limit := rate.Inf
	if r.rateLimit > 0 {
		limit = rate.Limit(r.rateLimit)
	}
	return NewRecordSyncer(&RecordSyncerConfig{
		Provider: provider,
		Vendor:   cfg.VendorType,
		Locker:   r.locker,
		Limiter:  rate.NewLimiter(limit, r.burst),
		Retry:    r.retry,
	}), nil
}
