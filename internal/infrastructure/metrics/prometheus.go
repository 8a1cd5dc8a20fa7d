package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var SyncRuns = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dnssync_runs_total",
		Help: "Number of sync runs by trigger.",
	},
	[]string{"trigger"},
)

var TargetOutcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dnssync_target_outcomes_total",
		Help: "Terminal state of each target sync.",
	},
	[]string{"target", "state"},
)

var RecordActions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dnssync_record_actions_total",
		Help: "Record operations sent to providers by kind and result.",
	},
	[]string{"vendor", "action", "result"},
)

var ProviderCallDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dnssync_provider_call_duration_seconds",
		Help:    "Latency of provider API calls.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"vendor", "call"},
)

var TargetDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "dnssync_target_duration_seconds",
		Help:    "Wall time of one target sync.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	},
	[]string{"target"},
)

var LastRunTimestamp = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "dnssync_last_run_timestamp_seconds",
		Help: "Unix time the last sync run finished.",
	},
)

func init() {
	prometheus.MustRegister(SyncRuns, TargetOutcomes, RecordActions, ProviderCallDuration, TargetDuration, LastRunTimestamp)
}

func IncrementRun(trigger string) {
	SyncRuns.WithLabelValues(trigger).Inc()
}

func ObserveTarget(target, state string, took time.Duration) {
	TargetOutcomes.WithLabelValues(target, state).Inc()
	TargetDuration.WithLabelValues(target).Observe(took.Seconds())
}

func ObserveAction(vendor, action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	RecordActions.WithLabelValues(vendor, action, result).Inc()
}

func ObserveCall(vendor, call string, took time.Duration) {
	ProviderCallDuration.WithLabelValues(vendor, call).Observe(took.Seconds())
}

func MarkRunFinished(at time.Time) {
	LastRunTimestamp.Set(float64(at.Unix()))
}
