package dns

import (
	"context"
	"fmt"
	"slices"
	"sync"

	domainerr "github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/infrastructure/secrets"
)

// CreatorFunc builds a provider from resolved credentials.
type CreatorFunc func(ctx context.Context, creds map[string]string) (Provider, error)

type Factory struct {
	mu       sync.RWMutex
	creators map[entity.VendorType]CreatorFunc
	resolver *secrets.SecretResolver
}

func NewFactory(resolver *secrets.SecretResolver) *Factory {
	if resolver == nil {
		resolver = secrets.NewSecretResolver(nil)
	}
	return &Factory{
		creators: map[entity.VendorType]CreatorFunc{
			entity.VendorCloudflare: createCloudflare,
			entity.VendorAliyun:     createAliyun,
			entity.VendorDNSPod:     createTencent,
			entity.VendorRoute53:    createRoute53,
		},
		resolver: resolver,
	}
}

func (f *Factory) Create(ctx context.Context, cfg *entity.ProviderConfig) (Provider, error) {
	f.mu.RLock()
	creator, ok := f.creators[cfg.VendorType]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerr.ErrUnsupportedProvider, cfg.VendorType)
	}
	creds, err := f.resolver.ResolveCredentials(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := creator(ctx, creds)
	if err != nil {
		return nil, domainerr.WrapEntity("providers", cfg.Name, err)
	}
	return provider, nil
}

func (f *Factory) Register(vendor entity.VendorType, creator CreatorFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[vendor] = creator
}

func (f *Factory) Supports(vendor entity.VendorType) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.creators[vendor]
	return ok
}

func (f *Factory) Vendors() []entity.VendorType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]entity.VendorType, 0, len(f.creators))
	for v := range f.creators {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func createCloudflare(_ context.Context, creds map[string]string) (Provider, error) {
	vals, err := secrets.Require(creds, "api_token")
	if err != nil {
		return nil, fmt.Errorf("resolve api_token: %w", err)
	}
	return NewCloudflareProvider(vals[0], creds["account_id"]), nil
}

func createAliyun(_ context.Context, creds map[string]string) (Provider, error) {
	vals, err := secrets.Require(creds, "access_key_id", "access_key_secret")
	if err != nil {
		return nil, fmt.Errorf("resolve aliyun keys: %w", err)
	}
	return NewAliyunProvider(vals[0], vals[1])
}

func createTencent(_ context.Context, creds map[string]string) (Provider, error) {
	vals, err := secrets.Require(creds, "secret_id", "secret_key")
	if err != nil {
		return nil, fmt.Errorf("resolve dnspod keys: %w", err)
	}
	return NewTencentProvider(vals[0], vals[1])
}

// createRoute53 accepts no keys at all and then falls back to the AWS default chain.
func createRoute53(ctx context.Context, creds map[string]string) (Provider, error) {
	id, secret := creds["access_key_id"], creds["secret_access_key"]
	if (id == "") != (secret == "") {
		return nil, fmt.Errorf("resolve route53 keys: %w: access_key_id and secret_access_key go together", domainerr.ErrMissingCredential)
	}
	return NewRoute53Provider(ctx, id, secret, creds["region"])
}
