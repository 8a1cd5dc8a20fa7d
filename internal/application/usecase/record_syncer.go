package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/retry"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/metrics"
)

type RecordSyncerConfig struct {
	Provider contract.DNSProvider
	Vendor   entity.VendorType
	Locker   contract.ZoneLocker
	// Limiter paces every vendor API call; nil means unlimited.
	Limiter *rate.Limiter
	Retry   []retry.Option
}

// RecordSyncer implements contract.Adapter on top of a low-level DNSProvider:
// list and normalize, diff per zone, then apply sequentially with retry.
type RecordSyncer struct {
	provider contract.DNSProvider
	vendor   entity.VendorType
	locker   contract.ZoneLocker
	limiter  *rate.Limiter
	retry    []retry.Option
}

func NewRecordSyncer(cfg *RecordSyncerConfig) *RecordSyncer {
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	locker := cfg.Locker
	if locker == nil {
		locker = noopLocker{}
	}
	vendor := cfg.Vendor
	if vendor == "" {
		vendor = entity.VendorType(cfg.Provider.Name())
	}
	return &RecordSyncer{
		provider: cfg.Provider,
		vendor:   vendor,
		locker:   locker,
		limiter:  limiter,
		retry:    cfg.Retry,
	}
}

var _ contract.Adapter = (*RecordSyncer)(nil)

// call runs one vendor API call behind the limiter and records its latency.
func (s *RecordSyncer) call(ctx context.Context, name string, fn func() error) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	start := time.Now()
	err := fn()
	metrics.ObserveCall(string(s.vendor), name, time.Since(start))
	return err
}

func (s *RecordSyncer) retryOpts(ctx context.Context) []retry.Option {
	return append([]retry.Option{retry.WithContextLogger(ctx)}, s.retry...)
}

func (s *RecordSyncer) zones(ctx context.Context, cfg *entity.ProviderConfig) ([]string, error) {
	if len(cfg.Zones) > 0 {
		return cfg.Zones, nil
	}
	all, err := retry.DoWithResult(ctx, func() ([]string, error) {
		var zones []string
		err := s.call(ctx, "list_zones", func() error {
			var err error
			zones, err = s.provider.ListZones(ctx)
			return err
		})
		return zones, err
	}, s.retryOpts(ctx)...)
	if err != nil {
		return nil, err
	}
	zones := make([]string, 0, len(all))
	for _, z := range all {
		if service.ZoneMayMatch(z, cfg.IncludeFilters) {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

// FetchRecords lists every relevant zone of cfg and returns the canonical
// records its include/exclude rules admit. Malformed vendor records are logged
// and skipped.
func (s *RecordSyncer) FetchRecords(ctx context.Context, cfg *entity.ProviderConfig) ([]entity.Record, error) {
	log := logger.FromContext(ctx).WithProvider(cfg.ID, string(s.vendor))

	zones, err := s.zones(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var records []entity.Record
	for _, zone := range zones {
		raws, err := retry.DoWithResult(ctx, func() ([]service.RawRecord, error) {
			var raws []service.RawRecord
			err := s.call(ctx, "list_records", func() error {
				var err error
				raws, err = s.provider.ListRecords(ctx, zone)
				return err
			})
			return raws, err
		}, s.retryOpts(ctx)...)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", zone, err)
		}

		normalized, err := service.NormalizeAll(s.vendor, raws)
		if err != nil {
			log.Warn("skipping malformed records", "zone", zone, "error", err)
		}
		records = append(records, normalized...)
	}

	admitted := service.ApplyFilters(records, cfg.IncludeFilters, cfg.ExcludeFilters)
	log.Debug("fetched records", "zones", len(zones), "listed", len(records), "admitted", len(admitted))
	return admitted, nil
}

// adaptDesired rewrites desired records into what this vendor will store, so
// that a converged zone diffs to nothing.
func (s *RecordSyncer) adaptDesired(desired []entity.Record) []entity.Record {
	out := make([]entity.Record, len(desired))
	for i, r := range desired {
		r.TTL = service.WriteTTL(s.vendor, r.TTL)
		if s.vendor != entity.VendorCloudflare {
			r.Proxied = nil
		}
		out[i] = r
	}
	return out
}

// PlanRecords diffs desired against the target's existing records zone by zone.
// Existing records outside the target's own rules are never considered.
func (s *RecordSyncer) PlanRecords(ctx context.Context, cfg *entity.ProviderConfig, desired []entity.Record, opts valueobject.SyncOptions) (entity.Actions, error) {
	existing, err := s.FetchRecords(ctx, cfg)
	if err != nil {
		return entity.Actions{}, err
	}

	zoneOrder, desiredByZone := service.GroupByZone(s.adaptDesired(desired))
	_, existingByZone := service.GroupByZone(existing)

	var actions entity.Actions
	for _, zone := range zoneOrder {
		actions.Merge(service.Diff(desiredByZone[zone], existingByZone[zone], opts))
	}
	return actions, nil
}

// ApplyRecords locks every zone of the desired set, then lists the target,
// diffs and executes the actions in update, create, delete order before
// releasing. Concurrent runs against the same zone therefore see each other's
// writes. A failed record operation is reported in the result; only a failure
// to lock or plan is returned as an error.
func (s *RecordSyncer) ApplyRecords(ctx context.Context, cfg *entity.ProviderConfig, desired []entity.Record, opts valueobject.SyncOptions) (*contract.ApplyResult, error) {
	zones, _ := service.GroupByZone(desired)
	unlock, err := s.lockZones(ctx, zones)
	if err != nil {
		return nil, err
	}
	defer unlock()

	actions, err := s.PlanRecords(ctx, cfg, desired, opts)
	if err != nil {
		return nil, err
	}
	return s.execute(ctx, cfg, actions), nil
}

// execute runs the actions sequentially. Callers hold the zone locks.
func (s *RecordSyncer) execute(ctx context.Context, cfg *entity.ProviderConfig, actions entity.Actions) *contract.ApplyResult {
	log := logger.FromContext(ctx).WithProvider(cfg.ID, string(s.vendor))

	result := &contract.ApplyResult{}
	if actions.IsEmpty() {
		log.Info("target already in sync")
		return result
	}

	log.Info("applying changes",
		"updates", len(actions.Updates),
		"creates", len(actions.Creates),
		"deletes", len(actions.Deletes),
	)

	for _, ch := range actions.Ordered() {
		if err := s.applyChange(ctx, ch); err != nil {
			log.Error("change failed", "change", ch.String(), "error", err)
			result.FailedOperations = append(result.FailedOperations, entity.NewFailedOperation(ch, err))
			continue
		}
		switch ch.Type {
		case entity.ChangeTypeUpdate:
			result.Updated++
		case entity.ChangeTypeCreate:
			result.Created++
		case entity.ChangeTypeDelete:
			result.Deleted++
		}
	}

	log.Info("apply completed",
		"total", actions.Len(),
		"success", result.Succeeded(),
		"failed", len(result.FailedOperations),
	)
	return result
}

func (s *RecordSyncer) applyChange(ctx context.Context, ch entity.Change) error {
	record := ch.Record
	zone := record.ZoneName
	action := ch.Type.String()

	err := retry.Do(ctx, func() error {
		return s.call(ctx, action, func() error {
			switch ch.Type {
			case entity.ChangeTypeUpdate:
				return s.provider.UpdateRecord(ctx, zone, &record)
			case entity.ChangeTypeCreate:
				return s.provider.CreateRecord(ctx, zone, &record)
			case entity.ChangeTypeDelete:
				return s.provider.DeleteRecord(ctx, zone, &record)
			}
			return nil
		})
	}, s.retryOpts(ctx)...)
	metrics.ObserveAction(string(s.vendor), action, err)
	return err
}

// lockZones takes the zone locks in sorted order so two writers can never
// deadlock on each other.
func (s *RecordSyncer) lockZones(ctx context.Context, zones []string) (func(), error) {
	zones = slices.Clone(zones)
	slices.Sort(zones)
	zones = slices.Compact(zones)

	var unlocks []func()
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, zone := range zones {
		unlock, err := s.locker.Lock(ctx, s.vendor, zone)
		if err != nil {
			release()
			return nil, fmt.Errorf("lock zone %s: %w", zone, err)
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}

type noopLocker struct{}

func (noopLocker) Lock(context.Context, entity.VendorType, string) (func(), error) {
	return func() {}, nil
}
