package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/auth/authtest"
	"github.com/vovakirdan/tombola-client/internal/config"
)

func newTestAuthService(t *testing.T) (*Service, *authtest.Supabase) {
	t.Helper()

	fake := authtest.NewSupabase(t)
	svc := NewService(config.AuthConfig{
		SupabaseURL:     fake.URL,
		SupabaseAnonKey: authtest.AnonKey,
		PublicURL:       "https://tombola.example/",
	}, 2*time.Second, nil)
	return svc, fake
}

func TestServiceDisabledWithoutProvider(t *testing.T) {
	svc := NewService(config.AuthConfig{SupabaseURL: "https://x.supabase.co"}, time.Second, nil)
	ctx := context.Background()

	assert.False(t, svc.Enabled(), "auth needs the anon key")
	assert.ErrorIs(t, svc.SendMagicLink(ctx, "a@b.c"), ErrAuthDisabled)
	_, err := svc.Verify(ctx, "tok", "")
	assert.ErrorIs(t, err, ErrAuthDisabled)
}

func TestSendMagicLink_RequiresEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SendMagicLink(ctx, "   "), ErrEmailRequired)
	assert.ErrorIs(t, svc.SendMagicLink(ctx, "not-an-email"), ErrEmailRequired)
}

func TestSendMagicLink_RedirectsToPublicURL(t *testing.T) {
	svc, fake := newTestAuthService(t)

	require.NoError(t, svc.SendMagicLink(context.Background(), " alice@example.com "))

	links := fake.Links()
	require.Len(t, links, 1)
	assert.Equal(t, "alice@example.com", links[0].Email, "email is trimmed")
	assert.Equal(t, "https://tombola.example/magic-link", links[0].RedirectTo)
}

func TestSendMagicLink_UpstreamStatus(t *testing.T) {
	svc, fake := newTestAuthService(t)
	fake.FailMagicLinks(http.StatusTooManyRequests)

	err := svc.SendMagicLink(context.Background(), "alice@example.com")

	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr), "expected UpstreamError, got %v", err)
	assert.Equal(t, http.StatusTooManyRequests, upErr.StatusCode)
}

func TestVerify_ValidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	token := authtest.MintToken("alice@example.com", "u-1", time.Hour)

	res, err := svc.Verify(context.Background(), token, "r-1")
	require.NoError(t, err)
	assert.Equal(t, token, res.AccessToken)
	assert.Equal(t, "r-1", res.RefreshToken)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.Equal(t, "u-1", res.User.Sub)
	assert.Equal(t, "Test User", res.User.Name)
	assert.Greater(t, res.User.Exp, time.Now().Unix(), "expiry comes from token claims")
}

func TestVerify_RefreshesExpiredToken(t *testing.T) {
	svc, fake := newTestAuthService(t)
	fake.IssueRefreshToken("r-1", "alice@example.com")
	expired := authtest.MintToken("alice@example.com", "u-1", -time.Minute)

	res, err := svc.Verify(context.Background(), expired, "r-1")
	require.NoError(t, err)
	assert.NotEqual(t, expired, res.AccessToken)
	assert.Equal(t, "r-1-next", res.RefreshToken)
}

func TestVerify_InvalidToken(t *testing.T) {
	svc, _ := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "", "")
	assert.ErrorIs(t, err, ErrTokenRequired)

	_, err = svc.Verify(ctx, "garbage", "")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := authtest.MintToken("alice@example.com", "u-1", -time.Minute)
	_, err = svc.Verify(ctx, expired, "unknown-refresh")
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh failure maps to invalid token")
}
