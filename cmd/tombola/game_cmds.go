package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/proto"
	"github.com/vovakirdan/tombola-client/internal/score"
)

// storeErr prefers the message the store recorded for the player.
func (c *cli) storeErr(err error) error {
	if err == nil {
		return nil
	}
	if msg := c.app.Games.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}

func (c *cli) connect(cmd *cobra.Command) error {
	if _, err := c.gameID(); err != nil {
		return err
	}
	return c.storeErr(c.app.Games.Connect(cmd.Context()))
}

func (c *cli) gamesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List games known to the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.API.GamesList(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GAME\tSTATUS\tSTARTED\tCLOSED")
			for _, g := range list.Games {
				closed := "-"
				if g.CloseDate != nil {
					closed = *g.CloseDate
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.GameID, g.Status, g.StartDate, closed)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			s := list.Statistics
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d games: %d new, %d active, %d closed\n", list.TotalGames, s.NewGames, s.ActiveGames, s.ClosedGames)
			return nil
		},
	}
}

func (c *cli) newGameCmd() *cobra.Command {
	var use bool
	cmd := &cobra.Command{
		Use:   "newgame",
		Short: "Create a new game on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := c.app.API.NewGame(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", resp.GameID, resp.Message)
			if use {
				return c.app.Games.SetGame(cmd.Context(), resp.GameID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&use, "use", false, "select the new game")
	return cmd
}

func (c *cli) useCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <game-id>",
		Short: "Select the game to play",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Games.SetGame(cmd.Context(), args[0]); err != nil {
				return err
			}
			if err := c.app.Games.Connect(cmd.Context()); err != nil {
				return c.storeErr(err)
			}
			st := c.app.Games.Snapshot().GameStatus
			fmt.Fprintf(cmd.OutOrStdout(), "using game %s (%s, %d extracted)\n", st.GameID, st.Status, st.NumbersExtracted)
			return nil
		},
	}
}

func (c *cli) joinCmd() *cobra.Command {
	var (
		cards int
		email string
	)
	cmd := &cobra.Command{
		Use:   "join [name]",
		Short: "Register in the selected game and receive cards",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := c.app.Games.PreviousPlayerName()
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				return errors.New("a player name is required")
			}
			if email == "" {
				if u := c.app.Signin.Status().User; u != nil {
					email = u.Email
				}
			}
			if err := c.connect(cmd); err != nil {
				return err
			}
			c.app.Games.SetPlayerEmail(email)
			if err := c.app.Games.Register(cmd.Context(), name, cards); err != nil {
				return c.storeErr(err)
			}
			st := c.app.Games.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "registered as %s (%s) with %d cards\n", st.PlayerName, st.ClientID, len(st.Cards))
			return nil
		},
	}
	cmd.Flags().IntVarP(&cards, "cards", "n", proto.DefaultCardSize, "number of cards to request")
	cmd.Flags().StringVar(&email, "email", "", "email to register with (defaults to the signed-in user)")
	return cmd
}

func (c *cli) cardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cards",
		Short: "Show your cards with the numbers extracted so far",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.connect(cmd); err != nil {
				return err
			}
			if !c.app.Games.Snapshot().IsRegistered {
				return errors.New("not registered in this game, run `tombola join <name>`")
			}
			if err := c.app.Games.Refresh(cmd.Context()); err != nil {
				return c.storeErr(err)
			}
			st := c.app.Games.Snapshot()
			printRendered(cmd.OutOrStdout(), st, score.Render(st.View()))
			return nil
		},
	}
}

func (c *cli) generateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <count>",
		Short: "Replace your cards with count new ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[0])
			if err != nil || count <= 0 {
				return fmt.Errorf("invalid card count %q", args[0])
			}
			if err := c.connect(cmd); err != nil {
				return err
			}
			if err := c.app.Games.GenerateCards(cmd.Context(), count); err != nil {
				return c.storeErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "now holding %d cards\n", len(c.app.Games.Snapshot().Cards))
			return nil
		},
	}
}

func (c *cli) playersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "players",
		Short: "List players of the selected game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameID, err := c.gameID()
			if err != nil {
				return err
			}
			players, err := c.app.API.Players(cmd.Context(), gameID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CLIENT\tNAME\tTYPE\tCARDS")
			for _, p := range players.Players {
				name, err := c.app.Games.ResolveClientName(cmd.Context(), p.ClientID)
				if err != nil {
					c.log.Debug().Err(err).Str("client_id", p.ClientID).Msg("name lookup failed")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ClientID, name, p.ClientType, p.CardCount)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d players, %d cards\n", players.TotalPlayers, players.TotalCards)
			return nil
		},
	}
}

func (c *cli) whoisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whois <name|client-id>",
		Short: "Look a registered client up by name or id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := c.app.API.ClientByName(cmd.Context(), args[0])
			if api.IsStatus(err, http.StatusNotFound) {
				info, err = c.app.API.ClientByID(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "client:     %s\n", info.ClientID)
			fmt.Fprintf(out, "name:       %s\n", info.Name)
			fmt.Fprintf(out, "type:       %s\n", info.ClientType)
			fmt.Fprintf(out, "registered: %s\n", info.RegisteredAt)
			return nil
		},
	}
}

func (c *cli) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Draw the next number (game owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameID, err := c.gameID()
			if err != nil {
				return err
			}
			resp, err := c.app.API.Extract(cmd.Context(), gameID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extracted %d (%d drawn, %d left)\n", resp.ExtractedNumber, resp.TotalExtracted, resp.NumbersRemaining)
			return nil
		},
	}
}

func (c *cli) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Dump the selected game on the server (game owner only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gameID, err := c.gameID()
			if err != nil {
				return err
			}
			resp, err := c.app.API.DumpGame(cmd.Context(), gameID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway and keep the selected game refreshed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Serve(cmd.Context())
		},
	}
}
