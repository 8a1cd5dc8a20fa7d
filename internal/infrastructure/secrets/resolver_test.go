package secrets

import (
	"errors"
	"testing"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

func TestSecretResolver_Resolve(t *testing.T) {
	resolver := NewSecretResolver([]entity.Secret{
		{Name: "cf-token", Value: "super-secret-123"},
		{Name: "ali-ak", Value: "key-abc-xyz"},
	})

	t.Run("resolve secret reference", func(t *testing.T) {
		val, err := resolver.Resolve(*valueobject.NewSecretRefSecret("cf-token"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "super-secret-123" {
			t.Errorf("expected 'super-secret-123', got %q", val)
		}
	})

	t.Run("resolve plain value", func(t *testing.T) {
		val, err := resolver.Resolve(*valueobject.NewSecretRefPlain("plain-token"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if val != "plain-token" {
			t.Errorf("expected 'plain-token', got %q", val)
		}
	})

	t.Run("missing secret returns error", func(t *testing.T) {
		_, err := resolver.Resolve(*valueobject.NewSecretRefSecret("non-existent"))
		if !errors.Is(err, domain.ErrMissingSecret) {
			t.Errorf("expected ErrMissingSecret, got %v", err)
		}
	})
}

func TestSecretResolver_ResolveCredentials(t *testing.T) {
	t.Setenv("DNSSYNC_TEST_SK", "from-env")
	resolver := NewSecretResolver([]entity.Secret{{Name: "ali-ak", Value: "ak-value"}})

	p := &entity.ProviderConfig{
		Name: "aliyun",
		Credentials: map[string]valueobject.SecretRef{
			"access_key_id":     *valueobject.NewSecretRefSecret("ali-ak"),
			"access_key_secret": *valueobject.NewSecretRefEnv("DNSSYNC_TEST_SK"),
			"region":            *valueobject.NewSecretRefPlain("cn-hangzhou"),
		},
	}

	creds, err := resolver.ResolveCredentials(p)
	if err != nil {
		t.Fatalf("ResolveCredentials() error = %v", err)
	}
	want := map[string]string{"access_key_id": "ak-value", "access_key_secret": "from-env", "region": "cn-hangzhou"}
	for k, v := range want {
		if creds[k] != v {
			t.Errorf("creds[%s] = %q, want %q", k, creds[k], v)
		}
	}

	p.Credentials["broken"] = *valueobject.NewSecretRefSecret("nope")
	if _, err := resolver.ResolveCredentials(p); !errors.Is(err, domain.ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}

func TestRequire(t *testing.T) {
	creds := map[string]string{"a": "1", "b": "2", "empty": ""}

	vals, err := Require(creds, "a", "b")
	if err != nil || vals[0] != "1" || vals[1] != "2" {
		t.Errorf("Require() = %v, %v", vals, err)
	}
	if _, err := Require(creds, "a", "empty"); !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("expected ErrMissingCredential, got %v", err)
	}
}
