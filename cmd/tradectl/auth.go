package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wyfcoding/tradelifecycle/pkg/middleware"
)

func addAuthCommands(rootCmd *cobra.Command, a *app) {
	rootCmd.AddCommand(newTokenCmd(a))
}

func newTokenCmd(a *app) *cobra.Command {
	var (
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:     "token LOGIN_ID",
		Short:   "Issue a bearer token for a user",
		Args:    cobra.ExactArgs(1),
		Example: `  tradectl token trader1 --ttl 8h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if secret == "" {
				secret = cfg.Auth.JWTSecret
			}
			if secret == "" {
				return fmt.Errorf("no signing secret: set auth.jwt_secret or pass --secret")
			}
			token, err := middleware.IssueToken(secret, cfg.Auth.Issuer, args[0], time.Now(), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret, defaults to auth.jwt_secret")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
