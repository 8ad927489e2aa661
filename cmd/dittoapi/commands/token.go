package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittoapi/pkg/api"
	"github.com/marmos91/dittoapi/pkg/api/auth"
)

var (
	tokenSubject  string
	tokenDuration time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the settings API",
	Long: `Issue a signed bearer token accepted by the mutating settings routes.

The token is signed with security.jwt.secret. Set it in the config file or
with DITTOAPI_SECURITY_JWT_SECRET.

Examples:
  # Issue a one hour token for "ops"
  dittoapi token --subject ops

  # Use it
  curl -X PUT -H "Authorization: Bearer $(dittoapi token --subject ops)" \
    -d '{"value":"dark"}' http://localhost:3000/api/v1/settings/theme`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "admin", "token subject")
	tokenCmd.Flags().DurationVar(&tokenDuration, "duration", time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Security.JWT.Secret == "" {
		return errors.New("security.jwt.secret is not set; settings mutations are unauthenticated")
	}

	svc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:        cfg.Security.JWT.Secret,
		Issuer:        api.ServiceName,
		TokenDuration: tokenDuration,
	})
	if err != nil {
		return err
	}

	token, expiresAt, err := svc.GenerateToken(tokenSubject)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
