package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

func newLoginCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with the device-code flow and cache the token",
		Long: `Run the OAuth2 device-code flow against Microsoft Entra ID and cache the
resulting token for later searches. A still-valid cached token is reused
unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline()
			if err != nil {
				return err
			}
			if p.cfg.AccessToken != "" {
				return fmt.Errorf("ACCESS_TOKEN is set; login is only needed for the device-code flow")
			}
			if force {
				p.auth.Logout()
			}

			if err := p.auth.Authenticate(cmd.Context(), func(dc *oauth2.DeviceAuthResponse) {
				printChallenge(cmd, dc)
			}); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			cmd.Println("Signed in. Token cached for future searches.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "discard any cached token and sign in again")
	return cmd
}
