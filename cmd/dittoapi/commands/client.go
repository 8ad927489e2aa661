package commands

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marmos91/dittoapi/pkg/apiclient"
	"github.com/marmos91/dittoapi/pkg/config"
)

// TokenEnvVar supplies --token when the flag is not set.
const TokenEnvVar = config.EnvPrefix + "_TOKEN"

var (
	serverURL    string
	apiToken     string
	clientOutput string
)

// addClientFlags registers the flags shared by commands that call a
// running server.
func addClientFlags(flags *pflag.FlagSet) {
	flags.StringVar(&serverURL, "url", "", "server URL (default: http://localhost:<server.port>)")
	flags.StringVar(&apiToken, "token", "", "bearer token (default: $"+TokenEnvVar+")")
	flags.StringVarP(&clientOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// newClient builds a client from flags, falling back to the local config
// for the port and API prefix.
func newClient(cmd *cobra.Command) (*apiclient.Client, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	url := serverURL
	if url == "" {
		url = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	client := apiclient.New(url,
		apiclient.WithAPIPrefix(cfg.Server.APIPrefix),
		apiclient.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}),
	)

	token := apiToken
	if token == "" {
		token = os.Getenv(TokenEnvVar)
	}
	if token != "" {
		client = client.WithToken(token)
	}
	return client, nil
}

// formatUptime renders seconds as a rounded duration.
func formatUptime(seconds float64) string {
	return (time.Duration(seconds * float64(time.Second))).Round(time.Second).String()
}
