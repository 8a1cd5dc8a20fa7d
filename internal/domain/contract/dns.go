package contract

import (
	"context"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/service"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// DNSProvider is the thin per-vendor API wrapper. Names passed in and out are
// FQDNs; each implementation converts to whatever its API expects.
type DNSProvider interface {
	Name() string
	ListZones(ctx context.Context) ([]string, error)
	ListRecords(ctx context.Context, zone string) ([]service.RawRecord, error)
	CreateRecord(ctx context.Context, zone string, record *entity.Record) error
	UpdateRecord(ctx context.Context, zone string, record *entity.Record) error
	DeleteRecord(ctx context.Context, zone string, record *entity.Record) error
}

type ApplyResult struct {
	Created          int                      `json:"created"`
	Updated          int                      `json:"updated"`
	Deleted          int                      `json:"deleted"`
	FailedOperations []entity.FailedOperation `json:"failedOperations,omitempty"`
}

func (r *ApplyResult) Succeeded() int {
	return r.Created + r.Updated + r.Deleted
}

// Adapter is what the orchestrator drives for one provider config.
type Adapter interface {
	FetchRecords(ctx context.Context, cfg *entity.ProviderConfig) ([]entity.Record, error)
	PlanRecords(ctx context.Context, cfg *entity.ProviderConfig, desired []entity.Record, opts valueobject.SyncOptions) (entity.Actions, error)
	ApplyRecords(ctx context.Context, cfg *entity.ProviderConfig, desired []entity.Record, opts valueobject.SyncOptions) (*ApplyResult, error)
}

// AdapterFactory builds the adapter for a config; the registry keys factories by vendor type.
type AdapterFactory interface {
	Adapter(ctx context.Context, cfg *entity.ProviderConfig) (Adapter, error)
}

// ZoneLocker serializes writers to the same (vendor, zone) across goroutines and processes.
type ZoneLocker interface {
	Lock(ctx context.Context, vendor entity.VendorType, zone string) (unlock func(), err error)
}
