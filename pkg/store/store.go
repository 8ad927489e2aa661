// Package store is the persistent store handle: a GORM connection over
// SQLite or PostgreSQL that can be verified, schema-synced and closed.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/internal/telemetry"
)

// SyncOptions controls schema reconciliation.
type SyncOptions struct {
	// Alter permits altering existing tables (adding columns and indexes)
	// to match the registered models. When false only missing tables are
	// created.
	Alter bool
}

// GORMStore is the persistent store handle.
type GORMStore struct {
	db     *gorm.DB
	config Config
	models []any

	closeOnce sync.Once
	closeErr  error
}

// Open prepares a connection for cfg without contacting the database.
// Connectivity is verified by Authenticate; the schema for models is
// reconciled by Sync.
func Open(cfg Config, models ...any) (*GORMStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case DatabaseTypeSQLite:
		if cfg.SQLite.Path == MemoryPath {
			dialector = sqlite.Open(MemoryPath)
			break
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		// WAL lets readers proceed during writes; busy_timeout waits on locks.
		dialector = sqlite.Open(cfg.SQLite.Path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	case DatabaseTypePostgres:
		dialector = postgres.Open(cfg.Postgres.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	switch {
	case cfg.Type == DatabaseTypePostgres:
		sqlDB.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	case cfg.SQLite.Path == MemoryPath:
		// Every connection to :memory: is a distinct database.
		sqlDB.SetMaxOpenConns(1)
	}

	return &GORMStore{db: db, config: cfg, models: models}, nil
}

// Type returns the configured backend.
func (s *GORMStore) Type() DatabaseType {
	return s.config.Type
}

// DB returns the underlying GORM connection.
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

func (s *GORMStore) sqlDB() (*sql.DB, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB, nil
}

// Authenticate verifies that the database accepts connections with the
// configured credentials.
func (s *GORMStore) Authenticate(ctx context.Context) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "authenticate", string(s.config.Type))
	defer span.End()

	sqlDB, err := s.sqlDB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		telemetry.RecordError(ctx, err)
		return fmt.Errorf("failed to connect to %s database: %w", s.config.Type, err)
	}
	return nil
}

// Sync reconciles the schema of the registered models.
func (s *GORMStore) Sync(ctx context.Context, opts SyncOptions) error {
	ctx, span := telemetry.StartStoreSpan(ctx, "sync", string(s.config.Type))
	defer span.End()
	span.SetAttributes(telemetry.SyncAlter(opts.Alter))

	db := s.db.WithContext(ctx)
	if opts.Alter {
		if err := db.AutoMigrate(s.models...); err != nil {
			telemetry.RecordError(ctx, err)
			return fmt.Errorf("failed to synchronize schema: %w", err)
		}
		return nil
	}

	migrator := db.Migrator()
	for _, m := range s.models {
		if migrator.HasTable(m) {
			continue
		}
		if err := migrator.CreateTable(m); err != nil {
			telemetry.RecordError(ctx, err)
			return fmt.Errorf("failed to create table for %T: %w", m, err)
		}
		logger.Debug("Created table", "model", fmt.Sprintf("%T", m))
	}
	return nil
}

// Healthcheck pings the database.
func (s *GORMStore) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.sqlDB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool. Subsequent calls return the result
// of the first.
func (s *GORMStore) Close() error {
	s.closeOnce.Do(func() {
		sqlDB, err := s.sqlDB()
		if err != nil {
			s.closeErr = err
			return
		}
		s.closeErr = sqlDB.Close()
	})
	return s.closeErr
}
