package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/models"
	"github.com/marmos91/dittoapi/pkg/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Apply pending schema migrations to the configured database.

PostgreSQL uses the versioned SQL migrations shipped with the binary.
SQLite has no versioned migrations; its schema is reconciled from the
models instead.

Production never changes the schema on startup, so run this after
upgrading dittoapi.

Examples:
  # Run migrations with default config
  dittoapi migrate

  # Run migrations with custom config
  dittoapi migrate --config /etc/dittoapi/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx := context.Background()
	logger.Info("Running database migrations", "type", cfg.Database.Type)

	status, err := store.Migrate(ctx, cfg.Database)
	if errors.Is(err, store.ErrMigrateUnsupported) {
		return syncSchema(ctx, cmd, cfg.Database)
	}
	if err != nil {
		return err
	}

	if status.Applied {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (schema version %d)\n", status.Version)
	} else {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema already up to date (version %d)\n", status.Version)
	}
	return nil
}

// syncSchema reconciles a non-versioned backend from the models.
func syncSchema(ctx context.Context, cmd *cobra.Command, cfg store.Config) error {
	st, err := store.Open(cfg, models.AllModels()...)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Authenticate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if err := st.Sync(ctx, store.SyncOptions{Alter: true}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Schema synchronized (database type: %s)\n", st.Type())
	return nil
}
