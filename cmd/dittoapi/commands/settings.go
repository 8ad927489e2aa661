package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/cli/output"
	"github.com/marmos91/dittoapi/pkg/apiclient"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage settings on a running server",
	Long: `List, read, write and delete settings through the API of a running
dittoapi server.

Writes need a bearer token when the server has security.jwt.secret set.
Issue one with "dittoapi token" and pass it with --token or $DITTOAPI_TOKEN.

Examples:
  dittoapi settings list
  dittoapi settings set theme dark --token "$(dittoapi token)"
  dittoapi settings get theme --output json`,
}

func init() {
	addClientFlags(settingsCmd.PersistentFlags())

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all settings",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, c *apiclient.Client, p *output.Printer, _ []string) error {
			settings, err := c.ListSettings(ctx)
			if err != nil {
				return err
			}
			if p.Format() == output.FormatTable {
				return p.Print(settingsTable(settings...))
			}
			return p.Print(settings)
		}),
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Show one setting",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, c *apiclient.Client, p *output.Printer, args []string) error {
			setting, err := c.GetSetting(ctx, args[0])
			if err != nil {
				return err
			}
			if p.Format() == output.FormatTable {
				return p.Print(settingsTable(*setting))
			}
			return p.Print(setting)
		}),
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Create or replace a setting",
		Args:  cobra.ExactArgs(2),
		RunE: withClient(func(ctx context.Context, c *apiclient.Client, p *output.Printer, args []string) error {
			setting, err := c.SetSetting(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if p.Format() == output.FormatTable {
				return p.Print(settingsTable(*setting))
			}
			return p.Print(setting)
		}),
	})

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a setting",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, c *apiclient.Client, p *output.Printer, args []string) error {
			if err := c.DeleteSetting(ctx, args[0]); err != nil {
				return err
			}
			p.Success("Deleted " + args[0])
			return nil
		}),
	})
}

// withClient adapts a client action to a cobra RunE.
func withClient(fn func(context.Context, *apiclient.Client, *output.Printer, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(clientOutput)
		if err != nil {
			return err
		}
		client, err := newClient(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return fn(ctx, client, output.NewPrinter(cmd.OutOrStdout(), format, false), args)
	}
}

func settingsTable(settings ...apiclient.Setting) *output.TableData {
	table := output.NewTableData("Key", "Value", "Updated")
	for _, s := range settings {
		table.AddRow(s.Key, s.Value, s.UpdatedAt.Local().Format(time.RFC3339))
	}
	return table
}
