package entity

import (
	"time"
)

// SyncState is a target's position in one run.
type SyncState string

const (
	StatePending             SyncState = "PENDING"
	StateFetchingSources     SyncState = "FETCHING_SOURCES"
	StateMerging             SyncState = "MERGING"
	StateDiffing             SyncState = "DIFFING"
	StateApplying            SyncState = "APPLYING"
	StateSucceeded           SyncState = "SUCCEEDED"
	StateSucceededWithErrors SyncState = "SUCCEEDED_WITH_ERRORS"
	StateFailed              SyncState = "FAILED"
)

func (s SyncState) Terminal() bool {
	return s == StateSucceeded || s == StateSucceededWithErrors || s == StateFailed
}

// Success is reserved for a clean run; partial apply reports as failed with its failed operations.
func (s SyncState) Success() bool {
	return s == StateSucceeded
}

type FailedOperation struct {
	Action ChangeType `yaml:"-" json:"-"`
	Kind   string     `yaml:"action" json:"action"`
	Record Record     `yaml:"record" json:"record"`
	Reason string     `yaml:"reason" json:"reason"`
}

func NewFailedOperation(c Change, err error) FailedOperation {
	return FailedOperation{Action: c.Type, Kind: c.Type.String(), Record: c.Record, Reason: err.Error()}
}

// SyncHistoryEntry is written exactly once per target per run and never modified.
type SyncHistoryEntry struct {
	Timestamp         time.Time         `yaml:"timestamp" json:"timestamp"`
	SourceProviderIDs []string          `yaml:"sourceProviderIds" json:"sourceProviderIds"`
	SourceNames       []string          `yaml:"sourceNames" json:"sourceNames"`
	TargetProviderID  string            `yaml:"targetProviderId" json:"targetProviderId"`
	TargetName        string            `yaml:"targetName" json:"targetName"`
	RecordCount       int               `yaml:"recordCount" json:"recordCount"`
	Success           bool              `yaml:"success" json:"success"`
	Error             string            `yaml:"error,omitempty" json:"error,omitempty"`
	Status            SyncState         `yaml:"status" json:"status"`
	Created           int               `yaml:"created" json:"created"`
	Updated           int               `yaml:"updated" json:"updated"`
	Deleted           int               `yaml:"deleted" json:"deleted"`
	FailedOperations  []FailedOperation `yaml:"failedOperations,omitempty" json:"failedOperations,omitempty"`
}

// History is kept newest first.
type History []SyncHistoryEntry

// Push prepends e and evicts the oldest entries beyond limit.
func (h History) Push(e SyncHistoryEntry, limit int) History {
	if limit <= 0 {
		limit = 1
	}
	out := make(History, 0, min(len(h)+1, limit))
	out = append(out, e)
	for _, old := range h {
		if len(out) == limit {
			break
		}
		out = append(out, old)
	}
	return out
}
