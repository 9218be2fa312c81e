package http

import (
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/api/apitest"
	"github.com/vovakirdan/tombola-client/internal/auth"
	"github.com/vovakirdan/tombola-client/internal/auth/authtest"
	"github.com/vovakirdan/tombola-client/internal/config"
	"github.com/vovakirdan/tombola-client/internal/core"
	"github.com/vovakirdan/tombola-client/internal/store"
	"github.com/vovakirdan/tombola-client/internal/store/sqlite"
)

type testGateway struct {
	ts       *httptest.Server
	games    *core.Store
	upstream *apitest.Server
	provider *authtest.Supabase
}

type gatewayOptions struct {
	authEnabled bool
	rateLimit   int
}

// startTestGateway wires a gateway to a fake game server and, when auth is
// enabled, a fake identity provider.
func startTestGateway(t *testing.T, opts gatewayOptions) *testGateway {
	t.Helper()

	logger := zerolog.Nop()
	upstream := apitest.NewServer(t)
	client := api.New(upstream.URL, 2*time.Second, nil, &logger)

	kv, err := sqlite.NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(sqlite.Schema)
		return err
	})
	require.NoError(t, err, "failed to create test store")
	sessions := store.NewSessionStore(kv, kv.Close)
	t.Cleanup(func() { _ = sessions.Close() })

	games := core.NewStore(client, sessions, &logger)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.MagicLinkPerMin = opts.rateLimit

	gw := &testGateway{games: games, upstream: upstream}
	if opts.authEnabled {
		gw.provider = authtest.NewSupabase(t)
		cfg.Auth.SupabaseURL = gw.provider.URL
		cfg.Auth.SupabaseAnonKey = authtest.AnonKey
	}
	authService := auth.NewService(cfg.Auth, 2*time.Second, &logger)

	server := NewServer(games, authService, &cfg, &logger)
	gw.ts = httptest.NewServer(server.Handler)
	t.Cleanup(gw.ts.Close)
	return gw
}
