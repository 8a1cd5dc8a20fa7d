package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/contract"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
	"github.com/lite-lake/dnssync/internal/infrastructure/metrics"
)

type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

type Config struct {
	Store    repository.Store
	Adapters contract.AdapterFactory
	// Concurrency bounds both the targets run at once and the sources fetched at once per target.
	Concurrency   int
	TargetTimeout time.Duration
	Now           func() time.Time
}

// Orchestrator drives every target through fetch, merge, diff and apply, and
// writes exactly one history entry per target it runs.
type Orchestrator struct {
	store         repository.Store
	adapters      contract.AdapterFactory
	concurrency   int
	targetTimeout time.Duration
	now           func() time.Time
}

func New(cfg *Config) *Orchestrator {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = domain.DefaultConcurrency
	}
	timeout := cfg.TargetTimeout
	if timeout <= 0 {
		timeout = domain.DefaultTargetTimeout
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		store:         cfg.Store,
		adapters:      cfg.Adapters,
		concurrency:   concurrency,
		targetTimeout: timeout,
		now:           now,
	}
}

// SyncError carries the terminal state a target ended in.
type SyncError struct {
	State entity.SyncState
	Err   error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

type TargetResult struct {
	TargetID   string                  `json:"targetId"`
	TargetName string                  `json:"targetName"`
	State      entity.SyncState        `json:"state"`
	Error      string                  `json:"error,omitempty"`
	Entry      entity.SyncHistoryEntry `json:"-"`
	Err        error                   `json:"-"`
}

type Summary struct {
	RunID   string         `json:"runId"`
	Success []TargetResult `json:"success"`
	Failed  []TargetResult `json:"failed"`
}

type TargetPlan struct {
	TargetID    string         `json:"targetId"`
	TargetName  string         `json:"targetName"`
	RecordCount int            `json:"recordCount"`
	Actions     entity.Actions `json:"actions"`
	Error       string         `json:"error,omitempty"`
}

// pairing is one target with the source configs it will read from.
type pairing struct {
	target  entity.ProviderConfig
	sources []entity.ProviderConfig
}

// pairings resolves targets against their sources. A target left without a
// usable source is still returned so that it fails through the state machine
// and gets its history entry. It fails with a ConfigurationError before any
// network call only when no target can run at all.
func (o *Orchestrator) pairings(ctx context.Context, onlyID string) ([]pairing, error) {
	log := logger.FromContext(ctx)

	providers, err := o.store.LoadProviders(ctx)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, domain.ConfigurationError("no providers configured")
	}

	byID := make(map[string]entity.ProviderConfig, len(providers))
	for _, p := range providers {
		byID[p.ID] = p
	}

	var pairs []pairing
	runnable := 0
	found := false
	for _, p := range providers {
		if !p.IsTarget() || (onlyID != "" && p.ID != onlyID) {
			continue
		}
		found = true
		pair := pairing{target: p}
		for _, id := range p.SourceProviderIDs {
			src, ok := byID[id]
			switch {
			case id == p.ID:
				log.Warn("ignoring target listed as its own source", "target", p.Name)
			case !ok:
				log.Warn("target references unknown source", "target", p.Name, "source_id", id)
			default:
				pair.sources = append(pair.sources, src)
			}
		}
		if len(pair.sources) > 0 {
			runnable++
		}
		pairs = append(pairs, pair)
	}

	if onlyID != "" && !found {
		return nil, fmt.Errorf("%w: target %s", domain.ErrProviderMissing, onlyID)
	}
	if runnable == 0 {
		return nil, domain.ConfigurationError("no target has a usable source")
	}
	return pairs, nil
}

// RunAll is the manual trigger entry point.
func (o *Orchestrator) RunAll(ctx context.Context) (*Summary, error) {
	return o.Run(ctx, TriggerManual)
}

// Run syncs every target. Only configuration problems are returned as an
// error; target failures end up in the summary and in history.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) (*Summary, error) {
	return o.run(ctx, trigger, "")
}

// RunTarget syncs a single target by id.
func (o *Orchestrator) RunTarget(ctx context.Context, id string) (*TargetResult, error) {
	summary, err := o.run(ctx, TriggerManual, id)
	if err != nil {
		return nil, err
	}
	for _, list := range [][]TargetResult{summary.Success, summary.Failed} {
		if len(list) > 0 {
			return &list[0], nil
		}
	}
	return nil, fmt.Errorf("%w: target %s", domain.ErrProviderMissing, id)
}

func (o *Orchestrator) run(ctx context.Context, trigger Trigger, onlyID string) (*Summary, error) {
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx)
	metrics.IncrementRun(string(trigger))
	defer func() { metrics.MarkRunFinished(o.now()) }()

	pairs, err := o.pairings(ctx, onlyID)
	if err != nil {
		log.Error("sync run aborted", "trigger", trigger, "error", err)
		return nil, err
	}
	opts, err := o.store.LoadSyncOptions(ctx)
	if err != nil {
		log.Error("sync run aborted", "trigger", trigger, "error", err)
		return nil, err
	}

	log.Info("sync run started", "trigger", trigger, "targets", len(pairs), "overwrite_all", opts.OverwriteAll, "delete_extra", opts.DeleteExtra)

	results := make([]TargetResult, len(pairs))
	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i := range pairs {
		g.Go(func() error {
			results[i] = o.syncTarget(ctx, pairs[i], opts)
			return nil
		})
	}
	_ = g.Wait()

	summary := &Summary{RunID: runID, Success: []TargetResult{}, Failed: []TargetResult{}}
	for _, r := range results {
		if r.State.Success() {
			summary.Success = append(summary.Success, r)
		} else {
			summary.Failed = append(summary.Failed, r)
		}
	}
	log.Info("sync run finished", "trigger", trigger, "success", len(summary.Success), "failed", len(summary.Failed))
	return summary, nil
}

// targetRun tracks one target through the state machine.
type targetRun struct {
	log     *logger.Logger
	state   entity.SyncState
	desired int
	result  *contract.ApplyResult
	err     error
}

func (t *targetRun) to(state entity.SyncState) {
	t.log.Debug("target state", "from", t.state, "to", state)
	t.state = state
}

func (t *targetRun) fail(err error) {
	t.to(entity.StateFailed)
	t.err = err
}

func (o *Orchestrator) syncTarget(parent context.Context, pair pairing, opts valueobject.SyncOptions) (res TargetResult) {
	start := o.now()
	target := pair.target
	ctx, cancel := context.WithTimeout(parent, o.targetTimeout)
	defer cancel()
	ctx = logger.WithOperation(logger.WithTarget(ctx, target.ID, string(target.VendorType)), "sync_target")

	run := &targetRun{log: logger.FromContext(ctx), state: entity.StatePending}

	defer func() {
		if r := recover(); r != nil {
			run.fail(fmt.Errorf("panic: %v", r))
		}
		if run.err != nil && ctx.Err() == context.DeadlineExceeded && !errors.Is(run.err, domain.ErrTargetTimeout) {
			run.err = fmt.Errorf("%w: %w", domain.ErrTargetTimeout, run.err)
			run.state = entity.StateFailed
		}
		res = o.finish(parent, pair, run)
		metrics.ObserveTarget(target.ID, string(run.state), o.now().Sub(start))
	}()

	desired, err := o.desiredRecords(ctx, run, pair)
	if err != nil {
		run.fail(err)
		return
	}
	run.desired = len(desired)

	adapter, err := o.adapters.Adapter(ctx, &target)
	if err != nil {
		run.fail(err)
		return
	}

	// The adapter holds the zone locks from listing the target until the last
	// write, so DIFFING and APPLYING happen inside one call.
	run.to(entity.StateDiffing)
	result, err := adapter.ApplyRecords(ctx, &target, desired, opts)
	if err != nil {
		run.fail(err)
		return
	}
	run.result = result

	// FAILED is reserved for an apply that could not run; individual
	// operation failures leave the target SUCCEEDED_WITH_ERRORS.
	if failed := len(result.FailedOperations); failed > 0 {
		run.to(entity.StateSucceededWithErrors)
		run.err = fmt.Errorf("%w: %d of %d operations failed", domain.ErrPartialApply, failed, failed+result.Succeeded())
		return
	}
	run.to(entity.StateSucceeded)
	return
}

// desiredRecords runs FETCHING_SOURCES and MERGING. Source failures degrade
// the set; an empty result is a SafetyViolation.
func (o *Orchestrator) desiredRecords(ctx context.Context, run *targetRun, pair pairing) ([]entity.Record, error) {
	run.to(entity.StateFetchingSources)
	if err := pair.target.Validate(); err != nil {
		return nil, err
	}
	if len(pair.sources) == 0 {
		return nil, domain.ConfigurationError("target %s has no usable source", pair.target.Name)
	}

	fetched := make([][]entity.Record, len(pair.sources))
	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i := range pair.sources {
		src := pair.sources[i]
		g.Go(func() error {
			records, err := o.fetchSource(ctx, &src)
			if err != nil {
				run.log.Warn("source fetch failed, excluding it", "source", src.Name, "source_id", src.ID, "error", err)
				return nil
			}
			fetched[i] = records
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run.to(entity.StateMerging)
	merged := service.Merge(fetched...)
	desired := service.ApplyFilters(merged, pair.target.IncludeFilters, pair.target.ExcludeFilters)
	run.log.Info("desired set merged", "sources", len(pair.sources), "merged", len(merged), "desired", len(desired))
	if len(desired) == 0 {
		return nil, fmt.Errorf("%w: desired record set is empty", domain.ErrSafetyViolation)
	}
	return desired, nil
}

func (o *Orchestrator) fetchSource(ctx context.Context, src *entity.ProviderConfig) ([]entity.Record, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	adapter, err := o.adapters.Adapter(ctx, src)
	if err != nil {
		return nil, err
	}
	var records []entity.Record
	err = logger.TimedOperation(ctx, "fetch_source", func() error {
		var err error
		records, err = adapter.FetchRecords(ctx, src)
		return err
	})
	return records, err
}

// finish writes the history entry. It uses the parent context so an expired
// target deadline still gets recorded.
func (o *Orchestrator) finish(ctx context.Context, pair pairing, run *targetRun) TargetResult {
	target := pair.target
	entry := entity.SyncHistoryEntry{
		Timestamp:        o.now().UTC(),
		TargetProviderID: target.ID,
		TargetName:       target.Name,
		RecordCount:      run.desired,
		Success:          run.state.Success(),
		Status:           run.state,
	}
	for _, src := range pair.sources {
		entry.SourceProviderIDs = append(entry.SourceProviderIDs, src.ID)
		entry.SourceNames = append(entry.SourceNames, src.Name)
	}
	if run.result != nil {
		entry.Created = run.result.Created
		entry.Updated = run.result.Updated
		entry.Deleted = run.result.Deleted
		entry.FailedOperations = run.result.FailedOperations
	}

	res := TargetResult{TargetID: target.ID, TargetName: target.Name, State: run.state}
	if run.err != nil {
		entry.Error = run.err.Error()
		res.Error = entry.Error
		res.Err = &SyncError{State: run.state, Err: run.err}
	}
	res.Entry = entry

	if err := o.store.AppendHistory(context.WithoutCancel(ctx), entry); err != nil {
		run.log.Error("failed to record sync history", "error", err)
	}
	if run.err != nil {
		run.log.Error("target sync finished", "state", run.state, "error", run.err)
	} else {
		run.log.Info("target sync finished", "state", run.state, "created", entry.Created, "updated", entry.Updated, "deleted", entry.Deleted)
	}
	return res
}

// Plan runs every target through DIFFING and returns the actions without
// applying them or writing history.
func (o *Orchestrator) Plan(ctx context.Context) ([]TargetPlan, error) {
	ctx = logger.WithOperation(ctx, "plan")
	pairs, err := o.pairings(ctx, "")
	if err != nil {
		return nil, err
	}
	opts, err := o.store.LoadSyncOptions(ctx)
	if err != nil {
		return nil, err
	}

	plans := make([]TargetPlan, len(pairs))
	g := new(errgroup.Group)
	g.SetLimit(o.concurrency)
	for i := range pairs {
		g.Go(func() error {
			plans[i] = o.planTarget(ctx, pairs[i], opts)
			return nil
		})
	}
	_ = g.Wait()
	return plans, nil
}

func (o *Orchestrator) planTarget(parent context.Context, pair pairing, opts valueobject.SyncOptions) TargetPlan {
	target := pair.target
	ctx, cancel := context.WithTimeout(parent, o.targetTimeout)
	defer cancel()
	ctx = logger.WithTarget(ctx, target.ID, string(target.VendorType))

	plan := TargetPlan{TargetID: target.ID, TargetName: target.Name}
	run := &targetRun{log: logger.FromContext(ctx), state: entity.StatePending}

	desired, err := o.desiredRecords(ctx, run, pair)
	if err != nil {
		plan.Error = err.Error()
		return plan
	}
	plan.RecordCount = len(desired)

	adapter, err := o.adapters.Adapter(ctx, &target)
	if err != nil {
		plan.Error = err.Error()
		return plan
	}
	actions, err := adapter.PlanRecords(ctx, &target, desired, opts)
	if err != nil {
		plan.Error = err.Error()
		return plan
	}
	plan.Actions = actions
	return plan
}
