package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/logger"
	"github.com/marmos91/dittoapi/pkg/config"
)

var (
	portFlag int
	envFlag  string
)

// addServerFlags registers the flags that override server settings.
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&portFlag, "port", "p", config.DefaultPort, "port to listen on, overrides server.port (0 picks a free port)")
	cmd.Flags().StringVarP(&envFlag, "env", "e", "", "environment: development, production or test, overrides server.environment")
}

// loadConfig loads the configuration and applies flags that were set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlagOverrides copies explicitly set --port/--env into cfg and
// revalidates it.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	changed := false
	if f := flags.Lookup("port"); f != nil && f.Changed {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Server.Port = port
		changed = true
	}
	if f := flags.Lookup("env"); f != nil && f.Changed {
		env, err := flags.GetString("env")
		if err != nil {
			return err
		}
		cfg.Server.Environment = env
		changed = true
	}
	if !changed {
		return nil
	}

	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flag value: %w", err)
	}
	return nil
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
