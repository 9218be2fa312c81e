package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/store"
)

// State is the sign-in state of a Client.
type State string

const (
	StateLoading             State = "loading"
	StateAuthenticated       State = "authenticated"
	StateUnauthenticated     State = "unauthenticated"
	StateDisabled            State = "disabled"
	StateMagicLinkSent       State = "magic-link-sent"
	StateMagicLinkProcessing State = "magic-link-processing"
)

// Backend is what a Client signs in against: a local Service or a remote gateway.
type Backend interface {
	AuthEnabled(ctx context.Context) (bool, error)
	SendMagicLink(ctx context.Context, email string) error
	Verify(ctx context.Context, accessToken, refreshToken string) (*VerifyResult, error)
}

// Status is a snapshot of a Client.
type Status struct {
	State        State           `json:"state"`
	User         *store.AuthUser `json:"user,omitempty"`
	Token        string          `json:"-"`
	RefreshToken string          `json:"-"`
	AuthEnabled  *bool           `json:"auth_enabled,omitempty"`
}

// Client keeps the signed-in session and persists it in the session store.
type Client struct {
	backend  Backend
	sessions store.SessionStore
	log      *zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	status Status
	notify func(Status)
}

// NewClient creates a client in the loading state.
func NewClient(backend Backend, sessions store.SessionStore, logger *zerolog.Logger) *Client {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Client{
		backend:  backend,
		sessions: sessions,
		log:      logger,
		now:      time.Now,
		status:   Status{State: StateLoading},
	}
}

// OnChange registers fn to receive every status change, e.g. to update the
// bearer token of the game client.
func (c *Client) OnChange(fn func(Status)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// Status returns the current status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) set(fn func(*Status)) {
	c.mu.Lock()
	fn(&c.status)
	st, notify := c.status, c.notify
	c.mu.Unlock()
	if notify != nil {
		notify(st)
	}
}

// CheckConfiguration asks the backend whether auth is enabled. Any failure
// is treated as disabled. When enabled, a cached session is restored unless
// it has expired.
func (c *Client) CheckConfiguration(ctx context.Context) State {
	enabled, err := c.backend.AuthEnabled(ctx)
	if err != nil {
		c.log.Debug().Err(err).Msg("auth config unavailable")
	}
	if err != nil || !enabled {
		f := false
		c.clear(ctx, StateDisabled, &f)
		return StateDisabled
	}

	t := true
	c.set(func(s *Status) { s.AuthEnabled = &t })
	return c.initialize(ctx)
}

func (c *Client) initialize(ctx context.Context) State {
	sess, err := c.sessions.LoadAuth(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			c.log.Warn().Err(err).Msg("cached session unreadable")
		}
		c.clear(ctx, StateUnauthenticated, nil)
		return StateUnauthenticated
	}
	if Expired(sess.User, c.now()) {
		c.log.Info().Str("email", sess.User.Email).Msg("cached session expired")
		c.clear(ctx, StateUnauthenticated, nil)
		return StateUnauthenticated
	}
	c.authenticated(ctx, sess.User, sess.Token, sess.RefreshToken)
	return StateAuthenticated
}

// SendMagicLink requests a sign-in link for email.
func (c *Client) SendMagicLink(ctx context.Context, email string) error {
	enabled, err := c.backend.AuthEnabled(ctx)
	if err != nil || !enabled {
		return errors.New("Authentication is not available on this server.")
	}
	if err := c.backend.SendMagicLink(ctx, email); err != nil {
		return friendlySendError(err)
	}
	c.set(func(s *Status) { s.State = StateMagicLinkSent })
	return nil
}

func friendlySendError(err error) error {
	var apiErr *api.APIError
	var upErr *UpstreamError
	switch {
	case errors.Is(err, ErrAuthDisabled), api.IsStatus(err, http.StatusNotImplemented):
		return errors.New("Authentication is not configured on this server.")
	case errors.Is(err, ErrEmailRequired):
		return fmt.Errorf("Authentication failed: %w", err)
	case api.IsNetwork(err):
		return errors.New("Cannot connect to authentication service. Please check your connection.")
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 500:
		return fmt.Errorf("Server error (%d): %s", apiErr.StatusCode, apiErr.Message)
	case errors.As(err, &apiErr):
		return fmt.Errorf("Authentication failed (%d): %s", apiErr.StatusCode, apiErr.Message)
	case errors.As(err, &upErr):
		return fmt.Errorf("Authentication failed (%d): Failed to send magic link", upErr.StatusCode)
	default:
		return err
	}
}

// ProcessMagicLink extracts the tokens from rawURL and verifies them. It
// reports whether the client ended up authenticated.
func (c *Client) ProcessMagicLink(ctx context.Context, rawURL string) bool {
	c.set(func(s *Status) { s.State = StateMagicLinkProcessing })

	access, refresh, err := ExtractTokens(rawURL)
	if err != nil {
		c.log.Info().Err(err).Msg("magic link carries no token")
		c.clear(ctx, StateUnauthenticated, nil)
		return false
	}

	res, err := c.backend.Verify(ctx, access, refresh)
	if err != nil || res == nil || res.AccessToken == "" {
		c.log.Warn().Err(err).Msg("magic link verification failed")
		c.clear(ctx, StateUnauthenticated, nil)
		return false
	}
	c.authenticated(ctx, res.User, res.AccessToken, res.RefreshToken)
	return true
}

// SignOut drops the session.
func (c *Client) SignOut(ctx context.Context) {
	c.clear(ctx, StateUnauthenticated, nil)
}

func (c *Client) authenticated(ctx context.Context, user store.AuthUser, token, refresh string) {
	if err := c.sessions.SaveAuth(ctx, store.AuthSession{Token: token, RefreshToken: refresh, User: user}); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist session")
	}
	c.set(func(s *Status) {
		s.State = StateAuthenticated
		s.User = &user
		s.Token = token
		s.RefreshToken = refresh
	})
	c.log.Info().Str("email", user.Email).Msg("signed in")
}

func (c *Client) clear(ctx context.Context, state State, enabled *bool) {
	if err := c.sessions.ClearAuth(ctx); err != nil {
		c.log.Warn().Err(err).Msg("failed to clear session")
	}
	c.set(func(s *Status) {
		s.State = state
		s.User = nil
		s.Token = ""
		s.RefreshToken = ""
		if enabled != nil {
			s.AuthEnabled = enabled
		}
	})
}
