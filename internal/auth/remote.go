package auth

import (
	"context"
	"net/http"

	"github.com/vovakirdan/tombola-client/internal/api"
)

// Gateway auth routes.
const (
	ConfigRoute    = "/api/auth/config"
	MagicLinkRoute = "/api/auth/magic-link"
	VerifyRoute    = "/api/auth/verify"
)

// ConfigResponse is the body of the auth config route.
type ConfigResponse struct {
	AuthEnabled bool `json:"authEnabled"`
}

// MagicLinkRequest is the body of the magic link route.
type MagicLinkRequest struct {
	Email string `json:"email"`
}

// VerifyRequest is the body of the verify route.
type VerifyRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// VerifyResponse is the body returned by the verify route.
type VerifyResponse struct {
	Success bool `json:"success"`
	VerifyResult
}

// RemoteBackend signs in through a gateway's auth routes.
type RemoteBackend struct {
	http *api.Client
}

// NewRemoteBackend creates a backend calling the gateway behind c.
func NewRemoteBackend(c *api.Client) *RemoteBackend {
	return &RemoteBackend{http: c}
}

// AuthEnabled implements Backend.
func (r *RemoteBackend) AuthEnabled(ctx context.Context) (bool, error) {
	var resp ConfigResponse
	if err := r.http.Call(ctx, http.MethodGet, ConfigRoute, nil, &resp, api.WithoutIdentity()); err != nil {
		return false, err
	}
	return resp.AuthEnabled, nil
}

// SendMagicLink implements Backend.
func (r *RemoteBackend) SendMagicLink(ctx context.Context, email string) error {
	return r.http.Call(ctx, http.MethodPost, MagicLinkRoute, MagicLinkRequest{Email: email}, nil, api.WithoutIdentity())
}

// Verify implements Backend.
func (r *RemoteBackend) Verify(ctx context.Context, accessToken, refreshToken string) (*VerifyResult, error) {
	var resp VerifyResponse
	req := VerifyRequest{AccessToken: accessToken, RefreshToken: refreshToken}
	if err := r.http.Call(ctx, http.MethodPost, VerifyRoute, req, &resp, api.WithoutIdentity(), api.WithBearer("")); err != nil {
		if api.IsStatus(err, http.StatusUnauthorized) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return &resp.VerifyResult, nil
}
