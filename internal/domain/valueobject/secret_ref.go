package valueobject

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain"
)

// SecretRef is a credential value given inline, by name from a secrets map,
// or by environment variable.
type SecretRef struct {
	Plain  string `yaml:"plain,omitempty" json:"plain,omitempty"`
	Secret string `yaml:"secret,omitempty" json:"secret,omitempty"`
	Env    string `yaml:"env,omitempty" json:"env,omitempty"`
}

func NewSecretRefPlain(value string) *SecretRef {
	return &SecretRef{Plain: value}
}

func NewSecretRefSecret(name string) *SecretRef {
	return &SecretRef{Secret: name}
}

func NewSecretRefEnv(name string) *SecretRef {
	return &SecretRef{Env: name}
}

func (s *SecretRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Plain = node.Value
		return nil
	}
	type alias SecretRef
	var ref alias
	if err := node.Decode(&ref); err != nil {
		return err
	}
	*s = SecretRef(ref)
	return nil
}

func (s SecretRef) MarshalYAML() (interface{}, error) {
	if s.Secret != "" {
		return map[string]string{"secret": s.Secret}, nil
	}
	if s.Env != "" {
		return map[string]string{"env": s.Env}, nil
	}
	return s.Plain, nil
}

func (s *SecretRef) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		*s = SecretRef{Plain: plain}
		return nil
	}
	type alias SecretRef
	var ref alias
	if err := json.Unmarshal(data, &ref); err != nil {
		return err
	}
	*s = SecretRef(ref)
	return nil
}

func (s SecretRef) MarshalJSON() ([]byte, error) {
	if s.Secret == "" && s.Env == "" {
		return json.Marshal(s.Plain)
	}
	type alias SecretRef
	return json.Marshal(alias(s))
}

// LogValue keeps credentials out of structured logs.
func (s *SecretRef) LogValue() slog.Value {
	return slog.StringValue("***")
}

func (s *SecretRef) Resolve(secrets map[string]string) (string, error) {
	switch {
	case s.Secret != "":
		val, ok := secrets[s.Secret]
		if !ok {
			return "", fmt.Errorf("%w: %s", domain.ErrMissingSecret, s.Secret)
		}
		return val, nil
	case s.Env != "":
		val, ok := os.LookupEnv(s.Env)
		if !ok {
			return "", fmt.Errorf("%w: env %s", domain.ErrMissingSecret, s.Env)
		}
		return val, nil
	}
	return s.Plain, nil
}

func (s *SecretRef) IsEmpty() bool {
	return s.Plain == "" && s.Secret == "" && s.Env == ""
}

func (s *SecretRef) Validate() error {
	if s.IsEmpty() {
		return domain.ErrEmptyValue
	}
	return nil
}
