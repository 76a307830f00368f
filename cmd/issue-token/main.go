// Command issue-token prints a signed bearer token for the notifyd API.
// It reads the same configuration as the server, so NOTIFY_AUTH_JWT_SECRET
// and NOTIFY_AUTH_TOKEN_LIFETIME apply.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/phrazzld/notifyd/internal/config"
	"github.com/phrazzld/notifyd/internal/service/auth"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:          "issue-token",
		Short:        "Print a bearer token for the notifyd API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return issueToken(cmd, subject, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, e.g. the calling service name")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func issueToken(cmd *cobra.Command, subject string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return err
	}

	token, err := jwtService.GenerateToken(cmd.Context(), subject)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
