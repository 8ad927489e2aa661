package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/store/migrations"
)

// ErrMigrateUnsupported is returned by Migrate for non-PostgreSQL backends.
var ErrMigrateUnsupported = errors.New("versioned migrations require postgres")

// MigrationStatus describes the schema version after Migrate.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

// Migrate applies the embedded SQL migrations to a PostgreSQL database.
// golang-migrate takes an advisory lock, so concurrent instances are safe.
func Migrate(ctx context.Context, cfg Config) (*MigrationStatus, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}
	if cfg.Type != DatabaseTypePostgres {
		return nil, ErrMigrateUnsupported
	}

	db, err := sql.Open("pgx", cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := newMigrator(db, cfg.Postgres.Database)
	if err != nil {
		return nil, err
	}

	logger.Info("Applying migrations", "database", cfg.Postgres.Database)
	status := &MigrationStatus{Applied: true}
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		status.Applied = false
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to get migration version: %w", err)
	}
	status.Version, status.Dirty = version, dirty

	if dirty {
		logger.Warn("Database schema is in dirty state", "version", version)
	} else {
		logger.Info("Schema up to date", "version", version, "applied", status.Applied)
	}
	return status, nil
}

func newMigrator(db *sql.DB, databaseName string) (*migrate.Migrate, error) {
	driver, err := migratepg.WithInstance(db, &migratepg.Config{
		MigrationsTable: "schema_migrations",
		DatabaseName:    databaseName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}
