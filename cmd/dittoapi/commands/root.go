// Package commands implements the dittoapi command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/cmd/dittoapi/commands/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dittoapi",
		Short: "dittoapi - HTTP API server",
		Long: `dittoapi serves a versioned JSON API backed by SQLite or PostgreSQL.

Running dittoapi without a subcommand starts the server. It verifies the
database, reconciles the schema in development, then listens for requests
until SIGINT or SIGTERM.

Use "dittoapi [command] --help" for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runServer,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittoapi/config.yaml)")
	addServerFlags(cmd)

	cmd.AddCommand(newStartCmd())
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(tokenCmd)
	cmd.AddCommand(statusCmd)
	cmd.AddCommand(settingsCmd)
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(completionCmd)
	cmd.AddCommand(config.Cmd)

	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// Execute runs the root command. It is called once by main.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the --config value.
func GetConfigFile() string {
	return cfgFile
}
