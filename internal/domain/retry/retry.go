// Package retry re-runs vendor API calls that fail with a transient error:
// rate limits, 5xx responses and dropped connections. Errors the domain
// classifies as permanent (bad credentials, malformed records, missing
// zones) are returned after the first attempt.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

var (
	// ErrRetriesExhausted is joined with the last vendor error once every
	// attempt has failed.
	ErrRetriesExhausted = errors.New("vendor call retries exhausted")
	// ErrContextCanceled is joined with ctx.Err() when the run is canceled or
	// the target deadline passes between attempts.
	ErrContextCanceled = errors.New("context canceled")
)

// Attempt describes a failed call that is about to be retried.
type Attempt struct {
	Number int
	Wait   time.Duration
	Err    error
}

// Policy controls how one vendor call is retried.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	Factor    float64
	// Transient decides whether an error earns another attempt.
	Transient func(error) bool
	Notify    func(Attempt)
}

type Option func(*Policy)

func WithAttempts(n int) Option {
	return func(p *Policy) { p.Attempts = n }
}

func WithInitialDelay(d time.Duration) Option {
	return func(p *Policy) { p.BaseDelay = d }
}

func WithMaxDelay(d time.Duration) Option {
	return func(p *Policy) { p.MaxDelay = d }
}

func WithFactor(f float64) Option {
	return func(p *Policy) { p.Factor = f }
}

func WithTransient(fn func(error) bool) Option {
	return func(p *Policy) { p.Transient = fn }
}

func WithNotify(fn func(Attempt)) Option {
	return func(p *Policy) { p.Notify = fn }
}

// WithContextLogger reports retries through the logger carried by ctx, so the
// warning carries the run, target and vendor fields.
func WithContextLogger(ctx context.Context) Option {
	return func(p *Policy) {
		log := logger.FromContext(ctx)
		p.Notify = func(a Attempt) {
			log.Warn("retrying vendor call", "attempt", a.Number, "wait", a.Wait, "error", a.Err)
		}
	}
}

// DefaultPolicy is three attempts, 200ms doubling up to 10s, retrying what
// domain.IsRetryable accepts.
func DefaultPolicy() *Policy {
	return &Policy{
		Attempts:  domain.DefaultRetryMaxAttempts,
		BaseDelay: domain.DefaultRetryInitialDelay,
		MaxDelay:  domain.DefaultRetryMaxDelay,
		Factor:    domain.DefaultRetryMultiplier,
		Transient: domain.IsRetryable,
		Notify: func(a Attempt) {
			logger.Debug("retrying vendor call", "attempt", a.Number, "wait", a.Wait, "error", a.Err)
		},
	}
}

// wait returns the pause after the n-th failed attempt (1-based).
func (p *Policy) wait(n int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d = time.Duration(float64(d) * p.Factor)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return min(d, p.MaxDelay)
}

func Do(ctx context.Context, fn func() error, opts ...Option) error {
	_, err := DoWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	}, opts...)
	return err
}

// DoWithResult calls fn until it succeeds, fails permanently, runs out of
// attempts or ctx ends. fn is never called once ctx is done.
func DoWithResult[T any](ctx context.Context, fn func() (T, error), opts ...Option) (T, error) {
	var zero T

	p := DefaultPolicy()
	for _, opt := range opts {
		opt(p)
	}
	attempts := max(p.Attempts, 1)

	var err error
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			return zero, errors.Join(ErrContextCanceled, ctx.Err())
		}

		var v T
		if v, err = fn(); err == nil {
			return v, nil
		}
		if !p.Transient(err) {
			return zero, err
		}
		if n == attempts {
			return zero, errors.Join(ErrRetriesExhausted, err)
		}

		wait := p.wait(n)
		if p.Notify != nil {
			p.Notify(Attempt{Number: n, Wait: wait, Err: err})
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return errors.Join(ErrContextCanceled, ctx.Err())
	case <-t.C:
		return nil
	}
}
