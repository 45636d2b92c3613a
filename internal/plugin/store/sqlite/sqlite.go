// Package sqlite registers the default, file-backed entry store.
package sqlite

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/plugin/store/gormstore"
	registrymigrate "github.com/chirino/docsync/internal/registry/migrate"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"gorm.io/driver/sqlite"
)

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "sqlite",
		Loader: func(ctx context.Context) (registrystore.EntryStore, error) {
			cfg := config.FromContext(ctx)
			db, err := gormstore.Open(sqlite.Open(cfg.DBURL), cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to open sqlite: %w", err)
			}
			return gormstore.New(db), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &sqliteMigrator{}})
}

type sqliteMigrator struct{}

func (m *sqliteMigrator) Name() string { return "sqlite-schema" }
func (m *sqliteMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "sqlite" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := gormstore.Open(sqlite.Open(cfg.DBURL), cfg)
	if err != nil {
		return fmt.Errorf("migration: failed to open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if err := gormstore.AutoMigrate(ctx, db); err != nil {
		return fmt.Errorf("migration: %w", err)
	}
	log.Info("SQLite schema migration complete")
	return nil
}
