package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/tombola-client/internal/api"
	"github.com/vovakirdan/tombola-client/internal/store"
)

// Session is a verified token pair with the user it belongs to.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         store.AuthUser
}

// Provider is an external identity provider issuing magic links.
type Provider interface {
	SendMagicLink(ctx context.Context, email, redirectTo string) error
	User(ctx context.Context, accessToken string) (store.AuthUser, error)
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
}

// SupabaseProvider talks to the Supabase GoTrue REST API.
type SupabaseProvider struct {
	http    *api.Client
	anonKey string
}

// NewSupabaseProvider creates a provider for the project at baseURL.
func NewSupabaseProvider(baseURL, anonKey string, timeout time.Duration, logger *zerolog.Logger) *SupabaseProvider {
	return &SupabaseProvider{
		http:    api.New(baseURL, timeout, nil, logger),
		anonKey: anonKey,
	}
}

type supabaseUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

func (u supabaseUser) authUser() store.AuthUser {
	name := u.UserMetadata.Name
	if name == "" {
		name = u.UserMetadata.FullName
	}
	return store.AuthUser{Email: u.Email, Name: name, Sub: u.ID}
}

type supabaseSession struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         supabaseUser `json:"user"`
}

func (p *SupabaseProvider) call(ctx context.Context, op, method, endpoint string, body, out any, opts ...api.CallOption) error {
	opts = append(opts, api.WithoutIdentity(), api.WithHeader("apikey", p.anonKey))
	err := p.http.Call(ctx, method, endpoint, body, out, opts...)
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Op: op, StatusCode: apiErr.StatusCode}
	}
	return err
}

// SendMagicLink asks the provider to mail a sign-in link redirecting to redirectTo.
func (p *SupabaseProvider) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	body := map[string]any{
		"email":   email,
		"options": map[string]string{"emailRedirectTo": redirectTo},
	}
	return p.call(ctx, "magiclink", http.MethodPost, "/auth/v1/magiclink", body, nil, api.WithBearer(""))
}

// User returns the user owning accessToken.
func (p *SupabaseProvider) User(ctx context.Context, accessToken string) (store.AuthUser, error) {
	var u supabaseUser
	if err := p.call(ctx, "user", http.MethodGet, "/auth/v1/user", nil, &u, api.WithBearer(accessToken)); err != nil {
		return store.AuthUser{}, err
	}
	return u.authUser(), nil
}

// RefreshSession exchanges refreshToken for a new token pair.
func (p *SupabaseProvider) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	var s supabaseSession
	body := map[string]string{"refresh_token": refreshToken}
	if err := p.call(ctx, "refresh", http.MethodPost, "/auth/v1/token?grant_type=refresh_token", body, &s, api.WithBearer("")); err != nil {
		return Session{}, err
	}
	return Session{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken, User: s.User.authUser()}, nil
}
