package auth

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vovakirdan/tombola-client/internal/store"
)

// Claims are the access token claims the client relies on.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsFromToken decodes token without checking its signature. The
// provider is the authority on validity; the claims are only used to show
// the user and to expire cached sessions locally.
func ClaimsFromToken(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// UserFromClaims builds the cached user record from access token claims.
func UserFromClaims(c *Claims) store.AuthUser {
	u := store.AuthUser{Email: c.Email, Name: c.Name, Sub: c.Subject}
	if c.ExpiresAt != nil {
		u.Exp = c.ExpiresAt.Unix()
	}
	return u
}

// Expired reports whether u carries an expiry that has passed at now.
func Expired(u store.AuthUser, now time.Time) bool {
	return u.Exp != 0 && !now.Before(time.Unix(u.Exp, 0))
}

// ExtractTokens reads access_token and refresh_token from a magic link URL.
// The fragment is checked first, then the query string.
func ExtractTokens(rawURL string) (access, refresh string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parse magic link: %w", err)
	}
	if u.Fragment != "" {
		frag, perr := url.ParseQuery(u.Fragment)
		if perr == nil {
			access, refresh = frag.Get("access_token"), frag.Get("refresh_token")
		}
	}
	if access == "" {
		q := u.Query()
		access, refresh = q.Get("access_token"), q.Get("refresh_token")
	}
	if access == "" {
		return "", "", ErrNoTokens
	}
	return access, refresh, nil
}
