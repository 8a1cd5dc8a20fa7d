package valueobject

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain"
)

func TestSecretRef_LogValue(t *testing.T) {
	tests := []struct {
		name string
		ref  *SecretRef
	}{
		{"plain value", NewSecretRefPlain("my-password")},
		{"secret reference", NewSecretRefSecret("secret-name")},
		{"env reference", NewSecretRefEnv("CF_TOKEN_VALUE")},
		{"empty", &SecretRef{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil))

			logger.Info("test", "secret", tt.ref)

			output := buf.String()

			for _, leaked := range []string{tt.ref.Plain, tt.ref.Secret, tt.ref.Env} {
				if leaked != "" && strings.Contains(output, leaked) {
					t.Errorf("LogValue leaked %q in output: %s", leaked, output)
				}
			}
			if !strings.Contains(output, "***") {
				t.Errorf("LogValue did not mask secret, output: %s", output)
			}
		})
	}
}

func TestSecretRef_UnmarshalYAML(t *testing.T) {
	var creds map[string]SecretRef
	input := `
api_token: inline-token
access_key: {secret: ali_key}
secret_key: {env: ALI_SECRET}
`
	if err := yaml.Unmarshal([]byte(input), &creds); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if creds["api_token"].Plain != "inline-token" {
		t.Errorf("api_token = %+v", creds["api_token"])
	}
	if creds["access_key"].Secret != "ali_key" {
		t.Errorf("access_key = %+v", creds["access_key"])
	}
	if creds["secret_key"].Env != "ALI_SECRET" {
		t.Errorf("secret_key = %+v", creds["secret_key"])
	}
}

func TestSecretRef_JSONRoundTrip(t *testing.T) {
	in := map[string]SecretRef{
		"plain": {Plain: "abc"},
		"named": {Secret: "tok"},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"plain":"abc"`) {
		t.Errorf("plain value should marshal as a bare string, got %s", data)
	}

	var out map[string]SecretRef
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if out["plain"].Plain != "abc" || out["named"].Secret != "tok" {
		t.Errorf("round trip mismatch: %+v", out)
	}
}

func TestSecretRef_Resolve(t *testing.T) {
	t.Setenv("DNSSYNC_TEST_SECRET", "from-env")
	secrets := map[string]string{"tok": "from-map"}

	tests := []struct {
		name    string
		ref     SecretRef
		want    string
		wantErr error
	}{
		{"plain", SecretRef{Plain: "inline"}, "inline", nil},
		{"secret", SecretRef{Secret: "tok"}, "from-map", nil},
		{"missing secret", SecretRef{Secret: "nope"}, "", domain.ErrMissingSecret},
		{"env", SecretRef{Env: "DNSSYNC_TEST_SECRET"}, "from-env", nil},
		{"missing env", SecretRef{Env: "DNSSYNC_TEST_UNSET"}, "", domain.ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.Resolve(secrets)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}
