package logger

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OperationLatency is exported so the metrics endpoint can serve it from the same registry.
var OperationLatency = prometheus.NewSummaryVec(
	prometheus.SummaryOpts{
		Name:       "dnssync_operation_duration_seconds",
		Help:       "Latency of timed operations by name and outcome.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	},
	[]string{"operation", "status"},
)

func init() {
	prometheus.MustRegister(OperationLatency)
}

func RecordOperation(operation string, err error, duration time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationLatency.WithLabelValues(operation, status).Observe(duration.Seconds())
}

func TimedOperation(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	log := FromContext(ctx).With("operation", operation)
	log.Debug("starting operation")

	err := fn()
	duration := time.Since(start)

	RecordOperation(operation, err, duration)

	if err != nil {
		log.Error("operation failed", "error", err, "duration", duration)
	} else {
		log.Debug("operation completed", "duration", duration)
	}

	return err
}
