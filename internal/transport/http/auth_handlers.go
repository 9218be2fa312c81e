package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/auth"
)

// AuthHandlers serves the magic link auth routes.
type AuthHandlers struct {
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAuthHandlers creates a new auth handlers instance.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		log:         logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MagicLinkResponse is returned once a magic link was sent.
type MagicLinkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Config reports whether auth is enabled without exposing provider settings.
// GET /api/auth/config
func (h *AuthHandlers) Config(c *gin.Context) {
	c.JSON(http.StatusOK, auth.ConfigResponse{AuthEnabled: h.authService.Enabled()})
}

// MagicLink sends a magic link to the given email.
// POST /api/auth/magic-link
func (h *AuthHandlers) MagicLink(c *gin.Context) {
	var req auth.MagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email is required"})
		return
	}

	err := h.authService.SendMagicLink(c.Request.Context(), req.Email)
	var upErr *auth.UpstreamError
	switch {
	case err == nil:
		c.JSON(http.StatusOK, MagicLinkResponse{Success: true, Message: "Magic link sent successfully"})
	case errors.Is(err, auth.ErrEmailRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Email is required"})
	case errors.Is(err, auth.ErrAuthDisabled):
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "Authentication not configured"})
	case errors.As(err, &upErr):
		c.JSON(upErr.StatusCode, ErrorResponse{Error: "Failed to send magic link"})
	default:
		h.log.Error().Err(err).Msg("failed to send magic link")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// Verify exchanges a token pair for a verified session.
// POST /api/auth/verify
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req auth.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AccessToken == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Access token is required"})
		return
	}

	res, err := h.authService.Verify(c.Request.Context(), req.AccessToken, req.RefreshToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, auth.VerifyResponse{Success: true, VerifyResult: *res})
	case errors.Is(err, auth.ErrAuthDisabled):
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "Authentication not configured"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid token"})
	default:
		h.log.Error().Err(err).Msg("token verification failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

// VerifyRedirect verifies tokens from a magic link and hands them to the
// page in the URL fragment.
// GET /api/auth/verify
func (h *AuthHandlers) VerifyRedirect(c *gin.Context) {
	access := c.Query("access_token")
	refresh := c.Query("refresh_token")
	if access == "" {
		c.Redirect(http.StatusFound, "/?error=missing_token")
		return
	}

	res, err := h.authService.Verify(c.Request.Context(), access, refresh)
	switch {
	case err == nil:
		frag := url.Values{}
		frag.Set("access_token", res.AccessToken)
		frag.Set("refresh_token", res.RefreshToken)
		c.Redirect(http.StatusFound, "/?success=true#"+frag.Encode())
	case errors.Is(err, auth.ErrAuthDisabled):
		c.Redirect(http.StatusFound, "/?error=auth_not_configured")
	case errors.Is(err, auth.ErrInvalidToken):
		c.Redirect(http.StatusFound, "/?error=invalid_token")
	default:
		h.log.Error().Err(err).Msg("token verification failed")
		c.Redirect(http.StatusFound, "/?error=verification_failed")
	}
}
