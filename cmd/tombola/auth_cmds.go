package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tombola-client/internal/auth"
)

func (c *cli) remoteAuthFlag(cmd *cobra.Command, gateway *string) {
	cmd.Flags().StringVar(gateway, "gateway", "", "sign in through a running gateway at this URL instead of the identity provider")
}

func (c *cli) signinFor(cmd *cobra.Command, gateway string) *auth.Client {
	if gateway != "" {
		c.app.UseRemoteAuth(gateway)
		c.app.Signin.CheckConfiguration(cmd.Context())
	}
	return c.app.Signin
}

func (c *cli) loginCmd() *cobra.Command {
	var gateway string
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Request a magic sign-in link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signin := c.signinFor(cmd, gateway)
			if err := signin.SendMagicLink(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "magic link sent to %s, open it and pass the link to `tombola verify`\n", args[0])
			return nil
		},
	}
	c.remoteAuthFlag(cmd, &gateway)
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var gateway string
	cmd := &cobra.Command{
		Use:   "verify <magic-link-url>",
		Short: "Complete sign-in with the link from the magic link email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signin := c.signinFor(cmd, gateway)
			if signin.Status().State == auth.StateDisabled {
				return errors.New("authentication is not configured")
			}
			if !signin.ProcessMagicLink(cmd.Context(), args[0]) {
				return errors.New("sign-in failed, request a new magic link")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", signin.Status().User.Email)
			return nil
		},
	}
	c.remoteAuthFlag(cmd, &gateway)
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the player identity for the selected game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Games.Reset(cmd.Context()); err != nil {
				return err
			}
			if all {
				c.app.Signin.SignOut(cmd.Context())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also sign out of the identity provider")
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached player identity and sign-in state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			st := c.app.Games.Snapshot()
			game := st.GameID
			if game == "" {
				game = "-"
			}
			fmt.Fprintf(out, "game:    %s\n", game)
			if st.ClientID != "" {
				fmt.Fprintf(out, "player:  %s (%s)\n", st.PlayerName, st.ClientID)
			} else {
				fmt.Fprintln(out, "player:  not registered")
			}

			as := c.app.Signin.Status()
			fmt.Fprintf(out, "auth:    %s\n", as.State)
			if as.User != nil {
				fmt.Fprintf(out, "email:   %s\n", as.User.Email)
				if as.User.Exp != 0 {
					fmt.Fprintf(out, "expires: %s\n", time.Unix(as.User.Exp, 0).Format(time.RFC3339))
				}
			}
			return nil
		},
	}
}
