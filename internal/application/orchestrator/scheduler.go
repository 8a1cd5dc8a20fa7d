package orchestrator

import (
	"context"
	"time"

	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// Runner is what the scheduler triggers.
type Runner interface {
	Run(ctx context.Context, trigger Trigger) (*Summary, error)
}

// Scheduler triggers a run every interval. Runs never overlap; ticks missed
// during a long run are dropped by the ticker.
type Scheduler struct {
	runner   Runner
	interval time.Duration
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	return &Scheduler{runner: runner, interval: interval}
}

// Start blocks until ctx is cancelled. With runNow set the first run happens
// immediately instead of after one interval.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	log := logger.FromContext(ctx)
	if s.interval <= 0 {
		log.Info("scheduler disabled")
		<-ctx.Done()
		return
	}

	log.Info("scheduler started", "interval", s.interval.String())
	if runNow {
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.runner.Run(ctx, TriggerScheduled); err != nil {
		logger.FromContext(ctx).Error("scheduled sync failed", "error", err)
	}
}
