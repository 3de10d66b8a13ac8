package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/arisu/server/auth"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the webhook gateway",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := viper.GetString("gateway.secret")
			if secret == "" {
				return errors.New("gateway.secret (ARISU_GATEWAY_SECRET) is not set")
			}
			client, _ := cmd.Flags().GetString("client")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := auth.NewAuthenticator(secret).GenerateToken(client, ttl)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("client", "wa-client", "name of the messaging client the token is for")
	cmd.Flags().Duration("ttl", 0, "token lifetime, 0 for no expiry")
	return cmd
}
