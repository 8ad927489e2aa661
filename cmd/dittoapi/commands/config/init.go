package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/cli/prompt"
	"github.com/marmos91/dittoapi/pkg/config"
	"github.com/marmos91/dittoapi/pkg/store"
)

var (
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file",
	Long: `Create a dittoapi configuration file populated with defaults.

By default the file is created at $XDG_CONFIG_HOME/dittoapi/config.yaml.
Use --config to choose another path and --interactive to be asked for the
main settings.

Examples:
  # Write defaults to the default location
  dittoapi config init

  # Answer a few questions first
  dittoapi config init --interactive

  # Overwrite an existing file
  dittoapi config init --config ./config.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for settings")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := configPath(cmd)
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	cfg := config.GetDefaultConfig()
	secret, err := generateSecret()
	if err != nil {
		return err
	}
	cfg.Security.JWT.Secret = secret

	if initInteractive {
		if err := promptSettings(cfg); err != nil {
			if prompt.IsAborted(err) {
				return errors.New("aborted")
			}
			return err
		}
		config.ApplyDefaults(cfg)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", path)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Edit the configuration file to customize your setup")
	_, _ = fmt.Fprintf(out, "  2. Start the server with: dittoapi --config %s\n", path)
	_, _ = fmt.Fprintln(out, "\nSecurity note:")
	_, _ = fmt.Fprintln(out, "  A random JWT secret has been generated. For production, set it from")
	_, _ = fmt.Fprintln(out, "  the environment instead:")
	_, _ = fmt.Fprintf(out, "    export %s_SECURITY_JWT_SECRET=$(openssl rand -hex 32)\n", config.EnvPrefix)
	return nil
}

// generateSecret returns 32 random bytes as hex.
func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func promptSettings(cfg *config.Config) error {
	env, err := prompt.Select("Environment",
		[]string{string(config.ModeDevelopment), string(config.ModeProduction), string(config.ModeTest)},
		cfg.Server.Environment)
	if err != nil {
		return err
	}
	cfg.Server.Environment = env

	if cfg.Server.Port, err = prompt.InputPort("Port", cfg.Server.Port); err != nil {
		return err
	}

	if cfg.Server.APIPrefix, err = prompt.Input("API prefix", cfg.Server.APIPrefix, validatePrefix); err != nil {
		return err
	}

	if cfg.Security.CORS.Origin, err = prompt.Input("CORS origin", cfg.Security.CORS.Origin, nonEmpty); err != nil {
		return err
	}
	if cfg.Security.CORS.Credentials, err = prompt.Confirm("Allow credentials cross-origin", cfg.Security.CORS.Credentials); err != nil {
		return err
	}

	dbType, err := prompt.Select("Database", []string{string(store.DatabaseTypeSQLite), string(store.DatabaseTypePostgres)}, string(cfg.Database.Type))
	if err != nil {
		return err
	}
	cfg.Database.Type = store.DatabaseType(dbType)

	if cfg.Database.Type == store.DatabaseTypeSQLite {
		cfg.Database.SQLite.Path, err = prompt.Input("SQLite path", cfg.Database.SQLite.Path, nonEmpty)
		return err
	}

	pg := &cfg.Database.Postgres
	if pg.Host, err = prompt.Input("PostgreSQL host", "localhost", nonEmpty); err != nil {
		return err
	}
	if pg.Port, err = prompt.InputPort("PostgreSQL port", 5432); err != nil {
		return err
	}
	if pg.Database, err = prompt.Input("PostgreSQL database", "dittoapi", nonEmpty); err != nil {
		return err
	}
	pg.User, err = prompt.Input("PostgreSQL user", "dittoapi", nonEmpty)
	return err
}

func validatePrefix(s string) error {
	if !strings.HasPrefix(strings.TrimSpace(s), "/") {
		return errors.New("must start with /")
	}
	return nil
}

func nonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}
