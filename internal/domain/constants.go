package domain

import "time"

const (
	DefaultRetryMaxAttempts    = 3
	DefaultRetryInitialDelayMs = 200
	DefaultRetryMaxDelaySec    = 10
	DefaultRetryMultiplier     = 2.0
)

var (
	DefaultRetryInitialDelay = DefaultRetryInitialDelayMs * time.Millisecond
	DefaultRetryMaxDelay     = DefaultRetryMaxDelaySec * time.Second
)

const (
	DefaultHistoryLimit  = 50
	DefaultConcurrency   = 4
	DefaultTargetTimeout = 5 * time.Minute
	DefaultRecordTTL     = 300
)
