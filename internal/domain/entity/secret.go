package entity

import (
	"fmt"

	"github.com/lite-lake/dnssync/internal/domain"
)

// Secret is a named value that credential refs point at with {secret: name}.
type Secret struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func (s *Secret) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidName)
	}
	return nil
}

func SecretMap(secrets []Secret) map[string]string {
	m := make(map[string]string, len(secrets))
	for _, s := range secrets {
		m[s.Name] = s.Value
	}
	return m
}
