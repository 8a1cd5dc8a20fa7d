package entity

import (
	"fmt"
	"slices"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

type VendorType string

const (
	VendorCloudflare VendorType = "cloudflare"
	VendorAliyun     VendorType = "aliyun"
	VendorDNSPod     VendorType = "dnspod"
	VendorRoute53    VendorType = "route53"
)

type Role string

const (
	RoleSource Role = "source"
	RoleTarget Role = "target"
)

func (r Role) Valid() bool {
	return r == RoleSource || r == RoleTarget
}

type ProviderConfig struct {
	ID                string                           `yaml:"id" json:"id"`
	Name              string                           `yaml:"name" json:"name"`
	VendorType        VendorType                       `yaml:"type" json:"type"`
	Role              Role                             `yaml:"role" json:"role"`
	Credentials       map[string]valueobject.SecretRef `yaml:"credentials,omitempty" json:"credentials,omitempty"`
	Zones             []string                         `yaml:"zones,omitempty" json:"zones,omitempty"`
	IncludeFilters    FilterRules                      `yaml:"include,omitempty" json:"include,omitempty"`
	ExcludeFilters    FilterRules                      `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	SourceProviderIDs []string                         `yaml:"sources,omitempty" json:"sourceProviderIds,omitempty"`
}

func (p *ProviderConfig) Validate() error {
	if p.ID == "" {
		return domain.RequiredField("id")
	}
	if p.Name == "" {
		return fmt.Errorf("%w: provider name is required", domain.ErrInvalidName)
	}
	if p.VendorType == "" {
		return domain.RequiredField("type")
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidRole, p.Role)
	}
	for key, ref := range p.Credentials {
		if err := ref.Validate(); err != nil {
			return fmt.Errorf("credential %s: %w", key, err)
		}
	}
	if err := p.IncludeFilters.Validate(); err != nil {
		return fmt.Errorf("include: %w", err)
	}
	if err := p.ExcludeFilters.Validate(); err != nil {
		return fmt.Errorf("exclude: %w", err)
	}
	if p.Role == RoleTarget {
		if len(p.SourceProviderIDs) == 0 {
			return domain.RequiredField("sources")
		}
		if p.IsSelfSync() {
			return fmt.Errorf("%w: %s", domain.ErrSelfSync, p.ID)
		}
	}
	return nil
}

// IsSelfSync is decided on ids only; two configs may legitimately share credentials.
func (p *ProviderConfig) IsSelfSync() bool {
	for _, id := range p.SourceProviderIDs {
		if id != p.ID {
			return false
		}
	}
	return len(p.SourceProviderIDs) > 0
}

func (p *ProviderConfig) IsTarget() bool {
	return p.Role == RoleTarget
}

// PruneSource drops id from the source list and reports whether it was present.
func (p *ProviderConfig) PruneSource(id string) bool {
	before := len(p.SourceProviderIDs)
	p.SourceProviderIDs = slices.DeleteFunc(p.SourceProviderIDs, func(s string) bool { return s == id })
	return len(p.SourceProviderIDs) != before
}

// ZoneHints summarizes the provider's scope for listings: explicit zones
// first, then exact domains from the include rules. The domains may be record
// names rather than zones; zone selection goes through service.ZoneMayMatch.
func (p *ProviderConfig) ZoneHints() []string {
	zones := slices.Clone(p.Zones)
	for _, z := range p.IncludeFilters.ZoneHints() {
		if !slices.Contains(zones, z) {
			zones = append(zones, z)
		}
	}
	return zones
}

// Redacted returns a copy safe to show outside the admin boundary.
func (p ProviderConfig) Redacted() ProviderConfig {
	if len(p.Credentials) == 0 {
		return p
	}
	creds := make(map[string]valueobject.SecretRef, len(p.Credentials))
	for k, ref := range p.Credentials {
		if ref.Plain != "" {
			ref.Plain = "***"
		}
		creds[k] = ref
	}
	p.Credentials = creds
	p.SourceProviderIDs = slices.Clone(p.SourceProviderIDs)
	return p
}
