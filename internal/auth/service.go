package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/config"
	"github.com/vovakirdan/tombola-client/internal/store"
)

// MagicLinkRedirectPath is where magic links land on the public URL.
const MagicLinkRedirectPath = "/magic-link"

// VerifyResult is a verified session returned to the caller.
type VerifyResult struct {
	User         store.AuthUser `json:"user"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
}

// Service provides magic link authentication against an identity provider.
type Service struct {
	provider  Provider
	publicURL string
	log       *zerolog.Logger
}

// NewService creates a service from cfg. Auth is disabled unless both the
// provider URL and anon key are set.
func NewService(cfg config.AuthConfig, timeout time.Duration, logger *zerolog.Logger) *Service {
	var provider Provider
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "" {
		provider = NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey, timeout, logger)
	}
	return NewServiceWithProvider(provider, cfg.PublicURL, logger)
}

// NewServiceWithProvider creates a service around provider. A nil provider
// disables auth.
func NewServiceWithProvider(provider Provider, publicURL string, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		provider:  provider,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logger,
	}
}

// Enabled reports whether an identity provider is configured.
func (s *Service) Enabled() bool {
	return s.provider != nil
}

// AuthEnabled implements Backend.
func (s *Service) AuthEnabled(context.Context) (bool, error) {
	return s.Enabled(), nil
}

// SendMagicLink mails a sign-in link to email.
func (s *Service) SendMagicLink(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmailRequired
	}
	if !s.Enabled() {
		return ErrAuthDisabled
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q is not a valid address", ErrEmailRequired, email)
	}

	if err := s.provider.SendMagicLink(ctx, email, s.publicURL+MagicLinkRedirectPath); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("magic link request failed")
		return err
	}
	s.log.Info().Str("email", email).Msg("magic link sent")
	return nil
}

// Verify checks accessToken with the provider. When the provider answers 401
// and a refresh token is given, the session is refreshed instead.
func (s *Service) Verify(ctx context.Context, accessToken, refreshToken string) (*VerifyResult, error) {
	if accessToken == "" {
		return nil, ErrTokenRequired
	}
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	user, err := s.provider.User(ctx, accessToken)
	if err == nil {
		return &VerifyResult{User: withExpiry(user, accessToken), AccessToken: accessToken, RefreshToken: refreshToken}, nil
	}

	var upErr *UpstreamError
	if refreshToken != "" && errors.As(err, &upErr) && upErr.StatusCode == http.StatusUnauthorized {
		sess, rerr := s.provider.RefreshSession(ctx, refreshToken)
		if rerr == nil {
			s.log.Debug().Str("email", sess.User.Email).Msg("session refreshed")
			return &VerifyResult{
				User:         withExpiry(sess.User, sess.AccessToken),
				AccessToken:  sess.AccessToken,
				RefreshToken: sess.RefreshToken,
			}, nil
		}
		s.log.Debug().Err(rerr).Msg("session refresh failed")
	}

	if errors.As(err, &upErr) {
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, ErrInvalidToken
	}
	return nil, err
}

// withExpiry copies the token's claims into u where the provider left gaps.
func withExpiry(u store.AuthUser, accessToken string) store.AuthUser {
	claims, err := ClaimsFromToken(accessToken)
	if err != nil {
		return u
	}
	fromToken := UserFromClaims(claims)
	u.Exp = fromToken.Exp
	if u.Email == "" {
		u.Email = fromToken.Email
	}
	if u.Name == "" {
		u.Name = fromToken.Name
	}
	if u.Sub == "" {
		u.Sub = fromToken.Sub
	}
	return u
}
