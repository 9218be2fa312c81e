package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/auth"
	"github.com/vovakirdan/tombola-client/internal/config"
	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/poller"
	"github.com/vovakirdan/tombola-client/internal/store"
	"github.com/vovakirdan/tombola-client/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/tombola-client/internal/transport/http"
)

// App wires the game client, the session cache, auth and the gateway.
type App struct {
	cfg      *config.Config
	log      *zerolog.Logger
	sessions store.SessionStore

	API    *api.Client
	Games  *core.Store
	Auth   *auth.Service
	Signin *auth.Client
	Poller *poller.Poller
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	sessions, err := sqlite.OpenSession(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	logger.Debug().Str("db_path", cfg.DatabasePath).Msg("session store initialized")

	client := api.New(cfg.API.BaseURL(), cfg.API.Timeout, nil, logger)
	games := core.NewStore(client, sessions, logger)
	authService := auth.NewService(cfg.Auth, cfg.API.Timeout, logger)

	a := &App{
		cfg:      cfg,
		log:      logger,
		sessions: sessions,
		API:      client,
		Games:    games,
		Auth:     authService,
		Poller:   poller.New(games, cfg.PollInterval, logger),
	}
	a.bindSignin(authService)
	return a, nil
}

// UseRemoteAuth signs in through the gateway at baseURL instead of calling
// the identity provider directly.
func (a *App) UseRemoteAuth(baseURL string) {
	gateway := api.New(baseURL, a.cfg.API.Timeout, nil, a.log)
	a.bindSignin(auth.NewRemoteBackend(gateway))
}

func (a *App) bindSignin(backend auth.Backend) {
	a.Signin = auth.NewClient(backend, a.sessions, a.log)
	a.Signin.OnChange(func(s auth.Status) {
		a.API.SetAuthToken(s.Token)
	})
}

// Bootstrap restores the cached game selection, identity and auth session.
func (a *App) Bootstrap(ctx context.Context) error {
	if err := a.Games.Restore(ctx); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	state := a.Signin.CheckConfiguration(ctx)
	a.log.Debug().Str("auth_state", string(state)).Msg("auth initialized")
	return nil
}

// Sessions returns the credential cache.
func (a *App) Sessions() store.SessionStore {
	return a.sessions
}

// Serve connects to the selected game, then runs the poller and the gateway
// until ctx is cancelled or the server fails.
func (a *App) Serve(ctx context.Context) error {
	if a.Games.Snapshot().GameID != "" {
		if err := a.Games.Connect(ctx); err != nil {
			a.log.Warn().Err(err).Msg("initial connect failed")
		}
	}

	server := transporthttp.NewServer(a.Games, a.Auth, a.cfg, a.log)
	return a.run(ctx, server)
}

func (a *App) run(ctx context.Context, server *stdhttp.Server) error {
	serverErr := make(chan error, 1)

	pollCtx, stopPoll := context.WithCancel(ctx)
	defer stopPoll()
	go func() { _ = a.Poller.Run(pollCtx) }()

	go func() {
		a.log.Info().Str("addr", server.Addr).Msg("gateway listening")
		if err := server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return a.cfg.ShutdownTimeout
}

// Close releases the session store.
func (a *App) Close() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Debug().Msg("store closed")
		}
	}
}
