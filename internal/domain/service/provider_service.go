package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
	"github.com/lite-lake/dnssync/internal/infrastructure/logger"
)

// ProviderService is the admin boundary over the config store.
type ProviderService struct {
	store repository.Store
	newID func() string
}

func NewProviderService(store repository.Store) *ProviderService {
	return &ProviderService{store: store, newID: uuid.NewString}
}

func (s *ProviderService) Add(ctx context.Context, p entity.ProviderConfig) (entity.ProviderConfig, error) {
	providers, err := s.store.LoadProviders(ctx)
	if err != nil {
		return entity.ProviderConfig{}, err
	}

	p.ID = s.newID()
	if err := checkProvider(&p, providers); err != nil {
		return entity.ProviderConfig{}, err
	}

	providers = append(providers, p)
	if err := s.store.SaveProviders(ctx, providers); err != nil {
		return entity.ProviderConfig{}, err
	}
	logger.FromContext(ctx).Info("provider added", "provider_id", p.ID, "name", p.Name, "vendor", p.VendorType, "role", p.Role)
	return p.Redacted(), nil
}

// Update replaces the provider with the same id. Credential keys that arrive
// empty keep their stored value, so a redacted form can be posted back.
func (s *ProviderService) Update(ctx context.Context, p entity.ProviderConfig) (entity.ProviderConfig, error) {
	providers, err := s.store.LoadProviders(ctx)
	if err != nil {
		return entity.ProviderConfig{}, err
	}

	idx := slices.IndexFunc(providers, func(c entity.ProviderConfig) bool { return c.ID == p.ID })
	if idx < 0 {
		return entity.ProviderConfig{}, fmt.Errorf("%w: %s", domain.ErrProviderMissing, p.ID)
	}
	p.Credentials = mergeCredentials(providers[idx].Credentials, p.Credentials)

	others := slices.Delete(slices.Clone(providers), idx, idx+1)
	if err := checkProvider(&p, others); err != nil {
		return entity.ProviderConfig{}, err
	}

	providers[idx] = p
	if err := s.store.SaveProviders(ctx, providers); err != nil {
		return entity.ProviderConfig{}, err
	}
	logger.FromContext(ctx).Info("provider updated", "provider_id", p.ID, "name", p.Name)
	return p.Redacted(), nil
}

// Delete removes the provider and prunes it from every target's source list.
func (s *ProviderService) Delete(ctx context.Context, id string) error {
	providers, err := s.store.LoadProviders(ctx)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(providers, func(c entity.ProviderConfig) bool { return c.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", domain.ErrProviderMissing, id)
	}
	providers = slices.Delete(providers, idx, idx+1)

	log := logger.FromContext(ctx)
	for i := range providers {
		if providers[i].PruneSource(id) {
			log.Info("pruned deleted source", "target_id", providers[i].ID, "source_id", id)
			if providers[i].IsTarget() && len(providers[i].SourceProviderIDs) == 0 {
				log.Warn("target has no sources left and will be skipped", "target_id", providers[i].ID)
			}
		}
	}

	if err := s.store.SaveProviders(ctx, providers); err != nil {
		return err
	}
	log.Info("provider deleted", "provider_id", id)
	return nil
}

func (s *ProviderService) List(ctx context.Context) ([]entity.ProviderConfig, error) {
	providers, err := s.store.LoadProviders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]entity.ProviderConfig, len(providers))
	for i, p := range providers {
		out[i] = p.Redacted()
	}
	return out, nil
}

func (s *ProviderService) Get(ctx context.Context, id string) (entity.ProviderConfig, error) {
	providers, err := s.store.LoadProviders(ctx)
	if err != nil {
		return entity.ProviderConfig{}, err
	}
	for _, p := range providers {
		if p.ID == id {
			return p.Redacted(), nil
		}
	}
	return entity.ProviderConfig{}, fmt.Errorf("%w: %s", domain.ErrProviderMissing, id)
}

func (s *ProviderService) SyncOptions(ctx context.Context) (valueobject.SyncOptions, error) {
	return s.store.LoadSyncOptions(ctx)
}

func (s *ProviderService) SetSyncOptions(ctx context.Context, opts valueobject.SyncOptions) error {
	if err := s.store.SaveSyncOptions(ctx, opts); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("sync options saved", "overwrite_all", opts.OverwriteAll, "delete_extra", opts.DeleteExtra)
	return nil
}

func (s *ProviderService) History(ctx context.Context) (entity.History, error) {
	return s.store.LoadHistory(ctx)
}

func (s *ProviderService) ClearHistory(ctx context.Context) error {
	return s.store.ClearHistory(ctx)
}

func checkProvider(p *entity.ProviderConfig, others []entity.ProviderConfig) error {
	if err := p.Validate(); err != nil {
		return err
	}
	for _, o := range others {
		if o.ID == p.ID {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, p.ID)
		}
		if strings.EqualFold(o.Name, p.Name) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateName, p.Name)
		}
	}
	for _, src := range p.SourceProviderIDs {
		if src == p.ID {
			continue
		}
		if !slices.ContainsFunc(others, func(o entity.ProviderConfig) bool { return o.ID == src }) {
			return fmt.Errorf("%w: source %s", domain.ErrProviderMissing, src)
		}
	}
	return nil
}

func mergeCredentials(old, updated map[string]valueobject.SecretRef) map[string]valueobject.SecretRef {
	if len(updated) == 0 {
		return old
	}
	merged := make(map[string]valueobject.SecretRef, len(updated))
	for k, ref := range updated {
		if ref.IsEmpty() || ref.Plain == "***" {
			if prev, ok := old[k]; ok {
				merged[k] = prev
				continue
			}
		}
		merged[k] = ref
	}
	return merged
}
