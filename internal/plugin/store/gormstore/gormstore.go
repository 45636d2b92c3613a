// Package gormstore implements the entry store on top of GORM. The sqlite and
// postgres plugins share it and differ only in dialector and migration.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const upsertBatchSize = 100

// Open connects with the given dialector and applies the pool settings.
func Open(dialector gorm.Dialector, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Discard})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying db: %w", err)
	}
	if cfg != nil {
		if cfg.DBMaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
		}
		if cfg.DBMaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates the entries table.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&model.StoredEntry{})
}

// Store implements registrystore.EntryStore.
type Store struct {
	db *gorm.DB
}

var _ registrystore.EntryStore = (*Store)(nil)

// New wraps an open connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Clear(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.StoredEntry{}).Error
	if err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, entries []model.StoredEntry) error {
	if len(entries) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).CreateInBatches(entries, upsertBatchSize).Error
	})
	if err != nil {
		return fmt.Errorf("upsert entries: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.StoredEntry, error) {
	var entry model.StoredEntry
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &registrystore.NotFoundError{Resource: "entry", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &entry, nil
}

func (s *Store) List(ctx context.Context) ([]model.StoredEntry, error) {
	var entries []model.StoredEntry
	if err := s.db.WithContext(ctx).Order("sort_order ASC").Order("id ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

func (s *Store) Digests(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID     string
		Digest string
	}
	if err := s.db.WithContext(ctx).Model(&model.StoredEntry{}).Select("id", "digest").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list digests: %w", err)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Digest
	}
	return out, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
