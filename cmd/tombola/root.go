package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tombola-client/internal/app"
	"github.com/vovakirdan/tombola-client/internal/config"
	applog "github.com/vovakirdan/tombola-client/internal/log"
)

var errNoGameSelected = errors.New("no game selected, run `tombola use <game-id>` or `tombola newgame --use` first")

type cli struct {
	configPath string
	logLevel   string

	cfg config.Config
	log *zerolog.Logger
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	cmd := &cobra.Command{
		Use:           "tombola",
		Short:         "Play tombola from the terminal against a Tombola game server.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "path to config file (env: TOMBOLA_CONFIG_DEFAULT_PATH)")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (env: TOMBOLA_LOG_LEVEL)")

	cmd.AddCommand(
		c.gamesCmd(),
		c.newGameCmd(),
		c.useCmd(),
		c.joinCmd(),
		c.cardsCmd(),
		c.generateCmd(),
		c.watchCmd(),
		c.playersCmd(),
		c.whoisCmd(),
		c.extractCmd(),
		c.dumpCmd(),
		c.serveCmd(),
		c.loginCmd(),
		c.verifyCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
	)
	return cmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	bootLog := applog.New("warn")
	cfg, _, err := config.Load(bootLog, c.configPath)
	if err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	c.log = applog.New(cfg.LogLevel)

	a, err := app.New(&c.cfg, c.log)
	if err != nil {
		return err
	}
	c.app = a
	return a.Bootstrap(cmd.Context())
}

// gameID returns the selected game or errNoGameSelected.
func (c *cli) gameID() (string, error) {
	id := c.app.Games.Snapshot().GameID
	if id == "" {
		return "", errNoGameSelected
	}
	return id, nil
}
