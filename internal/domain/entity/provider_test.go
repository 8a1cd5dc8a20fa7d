package entity

import (
	"errors"
	"reflect"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func validCreds() map[string]valueobject.SecretRef {
	return map[string]valueobject.SecretRef{"api_token": {Plain: "tok"}}
}

func TestProviderConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		provider ProviderConfig
		wantErr  error
	}{
		{
			name:     "missing id",
			provider: ProviderConfig{Name: "cf", VendorType: VendorCloudflare, Role: RoleSource},
			wantErr:  domain.ErrRequired,
		},
		{
			name:     "missing name",
			provider: ProviderConfig{ID: "p1", VendorType: VendorCloudflare, Role: RoleSource},
			wantErr:  domain.ErrInvalidName,
		},
		{
			name:     "bad role",
			provider: ProviderConfig{ID: "p1", Name: "cf", VendorType: VendorCloudflare, Role: "mirror"},
			wantErr:  domain.ErrInvalidRole,
		},
		{
			name: "empty credential",
			provider: ProviderConfig{
				ID: "p1", Name: "cf", VendorType: VendorCloudflare, Role: RoleSource,
				Credentials: map[string]valueobject.SecretRef{"api_token": {}},
			},
			wantErr: domain.ErrEmptyValue,
		},
		{
			name: "target without sources",
			provider: ProviderConfig{
				ID: "t1", Name: "target", VendorType: VendorAliyun, Role: RoleTarget, Credentials: validCreds(),
			},
			wantErr: domain.ErrRequired,
		},
		{
			name: "target syncing only from itself",
			provider: ProviderConfig{
				ID: "t1", Name: "target", VendorType: VendorAliyun, Role: RoleTarget, Credentials: validCreds(),
				SourceProviderIDs: []string{"t1"},
			},
			wantErr: domain.ErrSelfSync,
		},
		{
			name: "bad include rule",
			provider: ProviderConfig{
				ID: "s1", Name: "src", VendorType: VendorCloudflare, Role: RoleSource, Credentials: validCreds(),
				IncludeFilters: FilterRules{{DomainPattern: "a.*.com"}},
			},
			wantErr: domain.ErrInvalidDomain,
		},
		{
			name: "valid source",
			provider: ProviderConfig{
				ID: "s1", Name: "src", VendorType: VendorCloudflare, Role: RoleSource, Credentials: validCreds(),
			},
		},
		{
			name: "valid target with self among others",
			provider: ProviderConfig{
				ID: "t1", Name: "target", VendorType: VendorDNSPod, Role: RoleTarget, Credentials: validCreds(),
				SourceProviderIDs: []string{"s1", "t1"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.provider.Validate()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestProviderConfig_PruneSource(t *testing.T) {
	p := ProviderConfig{SourceProviderIDs: []string{"a", "b", "a"}}
	if !p.PruneSource("a") {
		t.Fatal("PruneSource() should report removal")
	}
	if !reflect.DeepEqual(p.SourceProviderIDs, []string{"b"}) {
		t.Errorf("sources = %v, want [b]", p.SourceProviderIDs)
	}
	if p.PruneSource("zzz") {
		t.Error("PruneSource() of unknown id should report false")
	}
}

func TestProviderConfig_ZoneHints(t *testing.T) {
	p := ProviderConfig{
		Zones:          []string{"example.com"},
		IncludeFilters: FilterRules{{DomainPattern: "example.com"}, {DomainPattern: "*.example.org"}, {DomainPattern: "example.net"}},
	}
	want := []string{"example.com", "example.net"}
	if got := p.ZoneHints(); !reflect.DeepEqual(got, want) {
		t.Errorf("ZoneHints() = %v, want %v", got, want)
	}
}

func TestProviderConfig_Redacted(t *testing.T) {
	p := ProviderConfig{
		ID: "p1",
		Credentials: map[string]valueobject.SecretRef{
			"api_token": {Plain: "super-secret"},
			"account":   {Secret: "cf_account"},
		},
	}
	r := p.Redacted()
	if r.Credentials["api_token"].Plain != "***" {
		t.Errorf("plain credential not redacted: %+v", r.Credentials["api_token"])
	}
	if r.Credentials["account"].Secret != "cf_account" {
		t.Errorf("secret references should stay visible: %+v", r.Credentials["account"])
	}
	if p.Credentials["api_token"].Plain != "super-secret" {
		t.Error("Redacted() must not mutate the original")
	}
}
