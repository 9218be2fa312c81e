package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/score"
)

type watchMark struct {
	gameID     string
	extracted  int
	published  int
	registered bool
	cards      int
	errMsg     string
}

func markOf(st core.State) watchMark {
	return watchMark{
		gameID:     st.GameID,
		extracted:  len(st.Board.Numbers),
		published:  st.ScoreCard.PublishedScore,
		registered: st.IsRegistered,
		cards:      len(st.Cards),
		errMsg:     st.Error,
	}
}

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the selected game and redraw your cards on every change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.connect(cmd); err != nil {
				return err
			}
			ctx := cmd.Context()
			states, cancel := c.app.Games.Subscribe()
			defer cancel()
			go func() { _ = c.app.Poller.Run(ctx) }()

			out := cmd.OutOrStdout()
			var last *watchMark
			for {
				select {
				case <-ctx.Done():
					return nil
				case st, ok := <-states:
					if !ok {
						return nil
					}
					m := markOf(st)
					if last != nil && *last == m {
						continue
					}
					last = &m
					fmt.Fprint(out, "\033[H\033[2J")
					printRendered(out, st, score.Render(st.View()))
				}
			}
		},
	}
}
