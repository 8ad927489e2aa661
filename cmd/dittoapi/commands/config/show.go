package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/cli/output"
	"github.com/marmos91/dittoapi/pkg/config"
)

const redacted = "********"

var (
	showOutput  string
	showSecrets bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Display the configuration after defaults, the config file and
DITTOAPI_* environment variables are applied.

The default table lists one dotted key per row. Secrets are masked unless
--show-secrets is given.

Examples:
  # Show as a key/value table
  dittoapi config show

  # Show as YAML
  dittoapi config show --output yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "table", "Output format (table|json|yaml)")
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print secrets in clear text")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := config.MustLoad(configPath(cmd))
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	if !showSecrets {
		redact(cfg)
	}

	printer := output.NewPrinter(cmd.OutOrStdout(), format, false)
	if format == output.FormatTable {
		return printer.Print(configTable(cfg))
	}
	return printer.Print(cfg)
}

// configTable renders cfg as dotted key/value rows.
func configTable(cfg *config.Config) *output.TableData {
	table := output.NewTableData("Key", "Value")
	for _, e := range config.Flatten(cfg) {
		table.AddRow(e.Key, fmt.Sprint(e.Value))
	}
	return table
}

// redact masks non-empty secrets in place.
func redact(cfg *config.Config) {
	if cfg.Security.JWT.Secret != "" {
		cfg.Security.JWT.Secret = redacted
	}
	if cfg.Database.Postgres.Password != "" {
		cfg.Database.Postgres.Password = redacted
	}
}
