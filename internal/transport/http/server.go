package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/auth"
	"github.com/vovakirdan/tombola-client/internal/config"
	"github.com/vovakirdan/tombola-client/internal/core"
)

// NewServer builds the gateway: auth routes, the state snapshot and the
// WebSocket state feed.
func NewServer(games *core.Store, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	limiter := newRateLimiter(cfg.MagicLinkPerMin)
	authHandlers := NewAuthHandlers(authService, logger)
	authGroup := router.Group("/api/auth")
	{
		authGroup.GET("/config", authHandlers.Config)
		authGroup.POST("/magic-link", RateLimitMiddleware(limiter, logger), authHandlers.MagicLink)
		authGroup.POST("/verify", authHandlers.Verify)
		authGroup.GET("/verify", authHandlers.VerifyRedirect)
	}

	guarded := router.Group("/")
	if authService.Enabled() {
		guarded.Use(AuthMiddleware(authService, logger))
	}
	stateHandlers := NewStateHandlers(games, logger)
	guarded.GET("/api/state", stateHandlers.State)
	guarded.GET("/ws", gin.WrapH(NewWSHandler(games, logger)))

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	stop := make(chan struct{})
	limiter.startReset(stop)
	server.RegisterOnShutdown(func() { close(stop) })

	return server
}
