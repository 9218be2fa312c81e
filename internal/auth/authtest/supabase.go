// Package authtest provides a fake identity provider for tests.
package authtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AnonKey is the apikey the fake provider accepts.
const AnonKey = "test-anon-key"

var secret = []byte("authtest-secret")

// MintToken signs an access token for email that expires after ttl.
func MintToken(email, sub string, ttl time.Duration) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"email": email,
		"sub":   sub,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		panic(err)
	}
	return token
}

// MagicLink is a recorded magic link request.
type MagicLink struct {
	Email      string
	RedirectTo string
}

// Supabase is a fake GoTrue server. Tokens it minted are valid until they
// expire; refresh tokens are single use.
type Supabase struct {
	*httptest.Server

	mu         sync.Mutex
	links      []MagicLink
	refresh    map[string]string
	failSend   int
	rejectUser bool
}

// NewSupabase starts a fake provider closed at test cleanup.
func NewSupabase(t *testing.T) *Supabase {
	t.Helper()

	s := &Supabase{refresh: make(map[string]string)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/magiclink", s.magicLink)
	mux.HandleFunc("GET /auth/v1/user", s.user)
	mux.HandleFunc("POST /auth/v1/token", s.token)
	s.Server = httptest.NewServer(s.requireKey(mux))
	t.Cleanup(s.Close)
	return s
}

// IssueRefreshToken registers a refresh token that renews a session for email.
func (s *Supabase) IssueRefreshToken(token, email string) {
	s.mu.Lock()
	s.refresh[token] = email
	s.mu.Unlock()
}

// FailMagicLinks makes magic link requests answer with status.
func (s *Supabase) FailMagicLinks(status int) {
	s.mu.Lock()
	s.failSend = status
	s.mu.Unlock()
}

// RejectAllUsers makes every user lookup answer 401.
func (s *Supabase) RejectAllUsers() {
	s.mu.Lock()
	s.rejectUser = true
	s.mu.Unlock()
}

// Links returns recorded magic link requests.
func (s *Supabase) Links() []MagicLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]MagicLink(nil), s.links...)
}

func (s *Supabase) requireKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != AnonKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Invalid API key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Supabase) magicLink(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		Options struct {
			EmailRedirectTo string `json:"emailRedirectTo"`
		} `json:"options"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSend != 0 {
		writeJSON(w, s.failSend, map[string]string{"msg": "rate limited"})
		return
	}
	s.links = append(s.links, MagicLink{Email: req.Email, RedirectTo: req.Options.EmailRedirectTo})
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Supabase) user(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	reject := s.rejectUser
	s.mu.Unlock()

	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return secret, nil })
	if reject || err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "invalid JWT"})
		return
	}
	writeJSON(w, http.StatusOK, userBody(claims["email"], claims["sub"]))
}

func (s *Supabase) token(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("grant_type") != "refresh_token" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "unsupported grant"})
		return
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	s.mu.Lock()
	email, ok := s.refresh[req.RefreshToken]
	delete(s.refresh, req.RefreshToken)
	next := req.RefreshToken + "-next"
	if ok {
		s.refresh[next] = email
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid Refresh Token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  MintToken(email, "sub-"+email, time.Hour),
		"refresh_token": next,
		"user":          userBody(email, "sub-"+email),
	})
}

func userBody(email, sub any) map[string]any {
	return map[string]any{
		"id":            sub,
		"email":         email,
		"user_metadata": map[string]any{"name": "Test User"},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
