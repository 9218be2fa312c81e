package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthDisabled is returned when no identity provider is configured.
	ErrAuthDisabled = errors.New("authentication not configured")
	// ErrEmailRequired is returned when a magic link is requested without an email.
	ErrEmailRequired = errors.New("email is required")
	// ErrTokenRequired is returned when verification is attempted without an access token.
	ErrTokenRequired = errors.New("access token is required")
	// ErrInvalidToken is returned when the provider rejects a token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoTokens is returned when a magic link URL carries no access token.
	ErrNoTokens = errors.New("no access token in url")
)

// UpstreamError reports a non-2xx answer from the identity provider.
type UpstreamError struct {
	Op         string
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identity provider %s: status %d", e.Op, e.StatusCode)
}
