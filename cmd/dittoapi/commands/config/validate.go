package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the dittoapi configuration file.

Checks for syntax errors, missing required fields, and invalid values
after environment overrides are applied.

Examples:
  # Validate default config
  dittoapi config validate

  # Validate specific config file
  dittoapi config validate --config /etc/dittoapi/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	path := configPath(cmd)
	cfg, err := config.MustLoad(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath(path))
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := configWarnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Environment:   %s\n", cfg.Server.Environment)
	_, _ = fmt.Fprintf(out, "  Port:          %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  API prefix:    %s\n", cfg.Server.APIPrefix)
	_, _ = fmt.Fprintf(out, "  CORS origin:   %s\n", cfg.Security.CORS.Origin)
	_, _ = fmt.Fprintf(out, "  Database type: %s\n", cfg.Database.Type)
	_, _ = fmt.Fprintf(out, "  Log level:     %s\n", cfg.Logging.Level)
	return nil
}

// configWarnings lists valid but risky settings.
func configWarnings(cfg *config.Config) []string {
	var warnings []string
	if cfg.Security.JWT.Secret == "" {
		warnings = append(warnings, "security.jwt.secret not set: settings mutations are unauthenticated")
	}
	if cfg.Mode() == config.ModeProduction {
		for _, o := range cfg.Security.CORS.Origins() {
			if o == "*" {
				warnings = append(warnings, "security.cors.origin is \"*\" in production")
			}
		}
		if !cfg.Security.RateLimit.Enabled {
			warnings = append(warnings, "rate limiting disabled in production")
		}
	}
	return warnings
}
