package repository

import (
	"context"

	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// Store persists whole collections. Writers replace the collection they
// touch; concurrent read-modify-write cycles resolve as last write wins.
type Store interface {
	LoadProviders(ctx context.Context) ([]entity.ProviderConfig, error)
	SaveProviders(ctx context.Context, providers []entity.ProviderConfig) error

	// LoadSyncOptions returns valueobject.DefaultSyncOptions when nothing is stored.
	LoadSyncOptions(ctx context.Context) (valueobject.SyncOptions, error)
	SaveSyncOptions(ctx context.Context, opts valueobject.SyncOptions) error

	// LoadHistory returns entries newest first.
	LoadHistory(ctx context.Context) (entity.History, error)
	AppendHistory(ctx context.Context, entry entity.SyncHistoryEntry) error
	ClearHistory(ctx context.Context) error
}
