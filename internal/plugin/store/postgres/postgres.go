package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/plugin/store/gormstore"
	registrymigrate "github.com/chirino/docsync/internal/registry/migrate"
	registrystore "github.com/chirino/docsync/internal/registry/store"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
)

//go:embed db/schema.sql
var schemaSQL string

// ForceImport can be referenced to make sure init() registers the store.
var ForceImport = 0

func init() {
	registrystore.Register(registrystore.Plugin{
		Name: "postgres",
		Loader: func(ctx context.Context) (registrystore.EntryStore, error) {
			cfg := config.FromContext(ctx)
			db, err := gormstore.Open(postgres.Open(cfg.DBURL), cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to connect to postgres: %w", describe(err))
			}
			return gormstore.New(db), nil
		},
	})

	registrymigrate.Register(registrymigrate.Plugin{Order: 100, Migrator: &postgresMigrator{}})
}

type postgresMigrator struct{}

func (m *postgresMigrator) Name() string { return "postgres-schema" }
func (m *postgresMigrator) Migrate(ctx context.Context) error {
	cfg := config.FromContext(ctx)
	if cfg == nil || !cfg.DatastoreMigrateAtStart || cfg.DatastoreType != "postgres" {
		return nil
	}
	log.Info("Running migration", "name", m.Name())
	db, err := gormstore.Open(postgres.Open(cfg.DBURL), cfg)
	if err != nil {
		return fmt.Errorf("migration: failed to connect: %w", describe(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migration: failed to execute schema: %w", describe(err))
	}
	log.Info("Postgres schema migration complete")
	return nil
}

// describe adds the server-side code and detail to postgres errors.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w (code %s, detail %q)", err, pgErr.Code, pgErr.Detail)
	}
	return err
}
