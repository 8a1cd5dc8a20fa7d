package secrets

import (
	"fmt"
	"sort"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

// SecretResolver turns credential refs into plain values at adapter
// construction time. Resolved values never go back into a ProviderConfig.
type SecretResolver struct {
	secrets map[string]string
}

func NewSecretResolver(secrets []entity.Secret) *SecretResolver {
	return &SecretResolver{secrets: entity.SecretMap(secrets)}
}

func (r *SecretResolver) Resolve(ref valueobject.SecretRef) (string, error) {
	return ref.Resolve(r.secrets)
}

// ResolveCredentials resolves every credential of p. The first failure is
// reported against the credential key, in key order.
func (r *SecretResolver) ResolveCredentials(p *entity.ProviderConfig) (map[string]string, error) {
	keys := make([]string, 0, len(p.Credentials))
	for k := range p.Credentials {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		val, err := r.Resolve(p.Credentials[k])
		if err != nil {
			return nil, fmt.Errorf("providers[%s].credentials[%s]: %w", p.Name, k, err)
		}
		out[k] = val
	}
	return out, nil
}

// Require fetches the named credentials, failing with ErrMissingCredential on the first absent one.
func Require(creds map[string]string, keys ...string) ([]string, error) {
	vals := make([]string, len(keys))
	for i, k := range keys {
		v := creds[k]
		if v == "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredential, k)
		}
		vals[i] = v
	}
	return vals, nil
}
