package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAction(t *testing.T) {
	before := testutil.ToFloat64(RecordActions.WithLabelValues("aliyun", "create", "error"))
	ObserveAction("aliyun", "create", errors.New("boom"))
	ObserveAction("aliyun", "create", nil)
	after := testutil.ToFloat64(RecordActions.WithLabelValues("aliyun", "create", "error"))
	if after-before != 1 {
		t.Errorf("error counter moved by %v, want 1", after-before)
	}
	if testutil.ToFloat64(RecordActions.WithLabelValues("aliyun", "create", "ok")) < 1 {
		t.Error("ok counter not incremented")
	}
}

func TestObserveTarget(t *testing.T) {
	ObserveTarget("t-metrics", "SUCCEEDED", 2*time.Second)
	if got := testutil.ToFloat64(TargetOutcomes.WithLabelValues("t-metrics", "SUCCEEDED")); got != 1 {
		t.Errorf("outcome counter = %v, want 1", got)
	}
	if n := testutil.CollectAndCount(TargetDuration); n < 1 {
		t.Errorf("expected target duration series, got %d", n)
	}
}

func TestMarkRunFinished(t *testing.T) {
	at := time.Unix(1700000000, 0)
	MarkRunFinished(at)
	if got := testutil.ToFloat64(LastRunTimestamp); got != 1700000000 {
		t.Errorf("gauge = %v", got)
	}
}
