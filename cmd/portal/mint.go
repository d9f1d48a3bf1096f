package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aussiebroadwan/garage/internal/portal/app"
	"github.com/aussiebroadwan/garage/pkg/jwtx"
)

// mintTokenCmd signs an access token with the configured secret, for
// exercising the portal against a local API stub.
func mintTokenCmd(v *viper.Viper) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "mint-token",
		Short: "Sign a development access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := app.LoadConfig(v, configFile)
			if err != nil {
				return err
			}

			r := jwtx.Role(role)
			if !r.Known() {
				return fmt.Errorf("unknown role %q", role)
			}

			var signer jwtx.Signer
			signer, err = jwtx.NewSignerHS256([]byte(cfg.JWTSecret))
			if err != nil {
				return err
			}
			token, err := signer.Sign(jwtx.NewAccessClaims(subject, r, ttl, cfg.Issuer, time.Now()))
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "%s token for %s (%s), valid %s\n", signer.Alg(), subject, r, ttl)
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "sub", "dev@example.com", "subject claim")
	cmd.Flags().StringVar(&role, "role", string(jwtx.RoleCustomer), "role claim (ROLE_ADMIN, ROLE_CUSTOMER, ROLE_EMPLOYEE)")
	cmd.Flags().DurationVar(&ttl, "ttl", jwtx.DefaultAccessTokenTTL, "token lifetime")

	return cmd
}
