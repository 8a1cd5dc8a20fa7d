package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/lite-lake/dnssync/internal/constants"
	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

const lockRetryDelay = 50 * time.Millisecond

var _ repository.Store = (*FileStore)(nil)

type document struct {
	Providers   []entity.ProviderConfig  `yaml:"providers"`
	SyncOptions *valueobject.SyncOptions `yaml:"syncOptions,omitempty"`
	History     entity.History           `yaml:"history,omitempty"`
}

// FileStore keeps every collection in one YAML file. Each call takes the
// advisory lock, so concurrent processes see whole-document last write wins.
type FileStore struct {
	path         string
	flock        *flock.Flock
	historyLimit int
}

func NewFileStore(path string, historyLimit int) *FileStore {
	if historyLimit <= 0 {
		historyLimit = domain.DefaultHistoryLimit
	}
	return &FileStore{
		path:         path,
		flock:        flock.New(path + constants.LockFileSuffix),
		historyLimit: historyLimit,
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) LoadProviders(ctx context.Context) ([]entity.ProviderConfig, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Providers, nil
}

func (s *FileStore) SaveProviders(ctx context.Context, providers []entity.ProviderConfig) error {
	return s.update(ctx, func(doc *document) {
		doc.Providers = providers
	})
}

func (s *FileStore) LoadSyncOptions(ctx context.Context) (valueobject.SyncOptions, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return valueobject.SyncOptions{}, err
	}
	if doc.SyncOptions == nil {
		return valueobject.DefaultSyncOptions(), nil
	}
	return *doc.SyncOptions, nil
}

func (s *FileStore) SaveSyncOptions(ctx context.Context, opts valueobject.SyncOptions) error {
	return s.update(ctx, func(doc *document) {
		doc.SyncOptions = &opts
	})
}

func (s *FileStore) LoadHistory(ctx context.Context) (entity.History, error) {
	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.History, nil
}

func (s *FileStore) AppendHistory(ctx context.Context, entry entity.SyncHistoryEntry) error {
	return s.update(ctx, func(doc *document) {
		doc.History = doc.History.Push(entry, s.historyLimit)
	})
}

func (s *FileStore) ClearHistory(ctx context.Context) error {
	return s.update(ctx, func(doc *document) {
		doc.History = nil
	})
}

func (s *FileStore) lock(ctx context.Context, exclusive bool) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, constants.DirPermissionOwnerRWX); err != nil {
		return fmt.Errorf("creating state dir %s: %w", dir, domain.WrapOp("create state dir", domain.ErrStateWriteFailed))
	}

	var locked bool
	var err error
	if exclusive {
		locked, err = s.flock.TryLockContext(ctx, lockRetryDelay)
	} else {
		locked, err = s.flock.TryRLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("acquiring lock: %s is busy", s.flock.Path())
	}
	return nil
}

func (s *FileStore) read(ctx context.Context) (*document, error) {
	if err := s.lock(ctx, false); err != nil {
		return nil, err
	}
	defer s.flock.Unlock()

	return s.load()
}

func (s *FileStore) update(ctx context.Context, mutate func(*document)) error {
	if err := s.lock(ctx, true); err != nil {
		return err
	}
	defer s.flock.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	mutate(doc)
	return s.save(doc)
}

func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &document{}, nil
		}
		return nil, fmt.Errorf("reading state file %s: %w", s.path, domain.WrapOp("read state file", domain.ErrStateReadFailed))
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing state file %s: %w: %w", s.path, domain.WrapOp("parse state file", domain.ErrStateSerializeFail), err)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling state for %s: %w", s.path, domain.WrapOp("marshal state", domain.ErrStateSerializeFail))
	}

	tmpPath := filepath.Join(filepath.Dir(s.path), "."+filepath.Base(s.path)+constants.TempFileSuffix)
	if err := os.WriteFile(tmpPath, data, constants.FilePermissionOwnerRW); err != nil {
		return fmt.Errorf("writing temp state file %s: %w", tmpPath, domain.WrapOp("write temp state file", domain.ErrStateWriteFailed))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming state file from %s to %s: %w", tmpPath, s.path, domain.WrapOp("rename state file", domain.ErrStateWriteFailed))
	}

	return nil
}
