package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

var ErrConfigNotLoaded = errors.New("config not loaded")

// Bundle is a hand-written config directory: secrets plus an optional seed
// of providers and sync options for the store.
type Bundle struct {
	Secrets     []entity.Secret
	Providers   []entity.ProviderConfig
	SyncOptions *valueobject.SyncOptions
}

type ConfigLoader struct {
	baseDir string
}

func NewConfigLoader(baseDir string) *ConfigLoader {
	return &ConfigLoader{baseDir: baseDir}
}

// Load reads secrets.yaml, providers.yaml and options.yaml from the base
// directory. Missing files are skipped.
func (l *ConfigLoader) Load(ctx context.Context) (*Bundle, error) {
	if _, err := os.Stat(l.baseDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s: %w", l.baseDir, domain.ErrConfigReadFailed)
	}

	b := &Bundle{}

	loaders := []struct {
		filename string
		loader   func(string, *Bundle) error
	}{
		{"secrets.yaml", loadSecrets},
		{"providers.yaml", loadProviders},
		{"options.yaml", loadSyncOptions},
	}

	for _, f := range loaders {
		filePath := filepath.Join(l.baseDir, f.filename)
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			continue
		}
		if err := f.loader(filePath, b); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f.filename, err)
		}
	}

	return b, nil
}

// Validate checks each provider, id and name uniqueness, source references
// and that every credential ref resolves against the bundle's secrets.
func (l *ConfigLoader) Validate(b *Bundle) error {
	if b == nil {
		return ErrConfigNotLoaded
	}

	for i := range b.Secrets {
		if err := b.Secrets[i].Validate(); err != nil {
			return fmt.Errorf("secrets[%d]: %w", i, err)
		}
	}
	secrets := entity.SecretMap(b.Secrets)

	ids := make(map[string]bool, len(b.Providers))
	names := make(map[string]bool, len(b.Providers))
	for i := range b.Providers {
		p := &b.Providers[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("providers[%s]: %w", p.Name, err)
		}
		if ids[p.ID] {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, p.ID)
		}
		ids[p.ID] = true
		lower := strings.ToLower(p.Name)
		if names[lower] {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateName, p.Name)
		}
		names[lower] = true

		for key, ref := range p.Credentials {
			if ref.Env != "" {
				continue
			}
			if _, err := ref.Resolve(secrets); err != nil {
				return fmt.Errorf("providers[%s].credentials[%s]: %w", p.Name, key, err)
			}
		}
	}

	for i := range b.Providers {
		for _, src := range b.Providers[i].SourceProviderIDs {
			if !ids[src] {
				return fmt.Errorf("providers[%s]: %w: source %s", b.Providers[i].Name, domain.ErrProviderMissing, src)
			}
		}
	}

	return nil
}

func loadEntity[T any](filePath, yamlKey string) ([]T, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err)
	}

	node, ok := raw[yamlKey]
	if !ok {
		return nil, nil
	}

	var items []T
	if err := node.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrConfigParseFailed, yamlKey, err)
	}

	return items, nil
}

func loadSecrets(filePath string, b *Bundle) error {
	items, err := loadEntity[entity.Secret](filePath, "secrets")
	if err != nil {
		return err
	}
	b.Secrets = items
	return nil
}

func loadProviders(filePath string, b *Bundle) error {
	items, err := loadEntity[entity.ProviderConfig](filePath, "providers")
	if err != nil {
		return err
	}
	b.Providers = items
	return nil
}

func loadSyncOptions(filePath string, b *Bundle) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	var doc struct {
		SyncOptions *valueobject.SyncOptions `yaml:"syncOptions"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfigParseFailed, err)
	}
	b.SyncOptions = doc.SyncOptions
	return nil
}
