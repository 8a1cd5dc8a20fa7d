package logger

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return L()
}

func WithOperation(ctx context.Context, operation string) context.Context {
	logger := FromContext(ctx).With(
		"operation", operation,
		"op_id", shortID(),
	)
	return ContextWithLogger(ctx, logger)
}

// WithRunID tags every entry of one sync run so interleaved targets can be told apart.
func WithRunID(ctx context.Context, runID string) context.Context {
	logger := FromContext(ctx).With("run_id", runID)
	return ContextWithLogger(ctx, logger)
}

func WithTarget(ctx context.Context, targetID, vendor string) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).WithProvider(targetID, vendor).With("role", "target"))
}

func shortID() string {
	return uuid.NewString()[:8]
}
