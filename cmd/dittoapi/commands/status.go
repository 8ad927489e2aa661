package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/internal/cli/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running server",
	Long: `Query a running dittoapi server for liveness, readiness and its
lifecycle state.

The server address defaults to localhost on server.port from the local
configuration. The command fails when the server is unreachable.

Examples:
  # Check the local server
  dittoapi status

  # Check a remote server as JSON
  dittoapi status --url https://api.example.com --output json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	addClientFlags(statusCmd.Flags())
}

// StatusReport is what status prints.
type StatusReport struct {
	URL         string `json:"url" yaml:"url"`
	Running     bool   `json:"running" yaml:"running"`
	Ready       bool   `json:"ready" yaml:"ready"`
	State       string `json:"state,omitempty" yaml:"state,omitempty"`
	Uptime      string `json:"uptime,omitempty" yaml:"uptime,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Environment string `json:"environment,omitempty" yaml:"environment,omitempty"`
	Message     string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Headers implements output.TableRenderer.
func (s StatusReport) Headers() []string { return []string{"Field", "Value"} }

// Rows implements output.TableRenderer.
func (s StatusReport) Rows() [][]string {
	rows := [][]string{
		{"URL", s.URL},
		{"Running", fmt.Sprint(s.Running)},
		{"Ready", fmt.Sprint(s.Ready)},
	}
	for _, r := range [][]string{
		{"State", s.State},
		{"Uptime", s.Uptime},
		{"Version", s.Version},
		{"Environment", s.Environment},
		{"Message", s.Message},
	} {
		if r[1] != "" {
			rows = append(rows, r)
		}
	}
	return rows
}

func runStatus(cmd *cobra.Command, _ []string) error {
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

	report := StatusReport{URL: client.BaseURL()}
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("server not reachable at %s: %w", report.URL, err)
	}
	report.Running = health.Success
	report.Uptime = formatUptime(health.Uptime)

	if err := client.Ready(ctx); err != nil {
		report.Message = err.Error()
	} else {
		report.Ready = true
	}

	if status, err := client.Status(ctx); err == nil {
		report.State = status.State
	} else {
		report.Message = err.Error()
	}
	if info, err := client.Info(ctx); err == nil {
		report.Version = info.Version
		report.Environment = info.Environment
	}

	return output.NewPrinter(cmd.OutOrStdout(), format, false).Print(report)
}
