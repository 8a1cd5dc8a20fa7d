package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lite-lake/dnssync/internal/domain"
	"github.com/lite-lake/dnssync/internal/domain/entity"
	"github.com/lite-lake/dnssync/internal/domain/repository"
	"github.com/lite-lake/dnssync/internal/domain/valueobject"
)

var _ repository.Store = (*GormStore)(nil)

type providerRow struct {
	ID       string `gorm:"primaryKey;size:64"`
	Position int
	Data     string `gorm:"type:text"`
}

func (providerRow) TableName() string { return "dns_providers" }

type syncConfigRow struct {
	ID     uint   `gorm:"primaryKey;autoIncrement:false"`
	Config string `gorm:"type:text"`
}

func (syncConfigRow) TableName() string { return "sync_config" }

type historyRow struct {
	ID               uint64 `gorm:"primaryKey"`
	TargetProviderID string `gorm:"size:64;index"`
	CreatedAt        time.Time
	Data             string `gorm:"type:mediumtext"`
}

func (historyRow) TableName() string { return "sync_history" }

const syncConfigID = 1

// GormStore keeps each collection in its own table with JSON payloads.
// SaveProviders rewrites the whole table inside one transaction.
type GormStore struct {
	db           *gorm.DB
	historyLimit int
}

func NewGormStore(db *gorm.DB, historyLimit int) *GormStore {
	if historyLimit <= 0 {
		historyLimit = domain.DefaultHistoryLimit
	}
	return &GormStore{db: db, historyLimit: historyLimit}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&providerRow{}, &syncConfigRow{}, &historyRow{}); err != nil {
		return domain.WrapOp("migrate", fmt.Errorf("%w: %w", domain.ErrStateWriteFailed, err))
	}
	return nil
}

func (s *GormStore) LoadProviders(ctx context.Context) ([]entity.ProviderConfig, error) {
	var rows []providerRow
	if err := s.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, readErr("load providers", err)
	}

	providers := make([]entity.ProviderConfig, 0, len(rows))
	for _, row := range rows {
		var p entity.ProviderConfig
		if err := json.Unmarshal([]byte(row.Data), &p); err != nil {
			return nil, domain.WrapEntity("provider", row.ID, fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
		}
		p.ID = row.ID
		providers = append(providers, p)
	}
	return providers, nil
}

func (s *GormStore) SaveProviders(ctx context.Context, providers []entity.ProviderConfig) error {
	rows := make([]providerRow, 0, len(providers))
	for i, p := range providers {
		data, err := json.Marshal(p)
		if err != nil {
			return domain.WrapEntity("provider", p.ID, fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
		}
		rows = append(rows, providerRow{ID: p.ID, Position: i, Data: string(data)})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&providerRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return writeErr("save providers", err)
	}
	return nil
}

func (s *GormStore) LoadSyncOptions(ctx context.Context) (valueobject.SyncOptions, error) {
	var row syncConfigRow
	err := s.db.WithContext(ctx).Where("id = ?", syncConfigID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return valueobject.DefaultSyncOptions(), nil
	}
	if err != nil {
		return valueobject.SyncOptions{}, readErr("load sync options", err)
	}

	opts := valueobject.DefaultSyncOptions()
	if err := json.Unmarshal([]byte(row.Config), &opts); err != nil {
		return valueobject.SyncOptions{}, domain.WrapOp("load sync options", fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
	}
	return opts, nil
}

func (s *GormStore) SaveSyncOptions(ctx context.Context, opts valueobject.SyncOptions) error {
	data, err := json.Marshal(opts)
	if err != nil {
		return domain.WrapOp("save sync options", fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
	}
	row := syncConfigRow{ID: syncConfigID, Config: string(data)}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return writeErr("save sync options", err)
	}
	return nil
}

func (s *GormStore) LoadHistory(ctx context.Context) (entity.History, error) {
	var rows []historyRow
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(s.historyLimit).Find(&rows).Error; err != nil {
		return nil, readErr("load history", err)
	}

	history := make(entity.History, 0, len(rows))
	for _, row := range rows {
		var e entity.SyncHistoryEntry
		if err := json.Unmarshal([]byte(row.Data), &e); err != nil {
			return nil, domain.WrapOp("load history", fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
		}
		history = append(history, e)
	}
	return history, nil
}

// AppendHistory inserts the entry and trims the table to the newest historyLimit rows.
func (s *GormStore) AppendHistory(ctx context.Context, entry entity.SyncHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return domain.WrapOp("append history", fmt.Errorf("%w: %w", domain.ErrStateSerializeFail, err))
	}
	row := historyRow{TargetProviderID: entry.TargetProviderID, CreatedAt: entry.Timestamp, Data: string(data)}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Exec(
			"DELETE FROM sync_history WHERE id NOT IN (SELECT id FROM (SELECT id FROM sync_history ORDER BY id DESC LIMIT ?) AS keep)",
			s.historyLimit,
		).Error
	})
	if err != nil {
		return writeErr("append history", err)
	}
	return nil
}

func (s *GormStore) ClearHistory(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("1 = 1").Delete(&historyRow{}).Error; err != nil {
		return writeErr("clear history", err)
	}
	return nil
}

func readErr(op string, err error) error {
	return domain.WrapOp(op, fmt.Errorf("%w: %w", domain.ErrStateReadFailed, err))
}

func writeErr(op string, err error) error {
	return domain.WrapOp(op, fmt.Errorf("%w: %w", domain.ErrStateWriteFailed, err))
}
