package store

import (
	"context"
	"errors"
)

// Storage keys. Identity keys and auth keys never overlap, so clearing one
// group leaves the other intact.
const (
	KeyClientID         = "tombola-client-id"
	KeyUserName         = "tombola-user-name"
	KeyGameID           = "tombola-game-id"
	KeyAuthToken        = "tombola-auth-token"
	KeyAuthUser         = "tombola-auth-user"
	KeyAuthRefreshToken = "tombola-auth-refresh-token"
)

var (
	identityKeys = []string{KeyClientID, KeyUserName}
	authKeys     = []string{KeyAuthToken, KeyAuthUser, KeyAuthRefreshToken}
)

// IdentityKeys returns the keys removed by ClearIdentity.
func IdentityKeys() []string { return append([]string(nil), identityKeys...) }

// AuthKeys returns the keys removed by ClearAuth.
func AuthKeys() []string { return append([]string(nil), authKeys...) }

// ErrNotFound is returned when nothing is cached under the requested key.
var ErrNotFound = errors.New("not found")

// Identity is the game identity issued by the server at registration.
type Identity struct {
	ClientID string
	Name     string
}

// AuthUser is the identity provider's view of the signed-in user.
type AuthUser struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Sub   string `json:"sub,omitempty"`
	Exp   int64  `json:"exp,omitempty"`
}

// AuthSession is the cached magic-link session.
type AuthSession struct {
	Token        string
	RefreshToken string
	User         AuthUser
}

// KVStore is durable string storage.
type KVStore interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}

// SessionStore persists the local identity, game selection and auth session.
type SessionStore interface {
	// SaveIdentity stores client id and display name.
	SaveIdentity(ctx context.Context, id Identity) error

	// LoadIdentity returns the cached identity or ErrNotFound.
	LoadIdentity(ctx context.Context) (Identity, error)

	// ClearIdentity removes client id and display name only.
	ClearIdentity(ctx context.Context) error

	// SaveGameID stores the selected game.
	SaveGameID(ctx context.Context, gameID string) error

	// LoadGameID returns the selected game or ErrNotFound.
	LoadGameID(ctx context.Context) (string, error)

	// SaveAuth stores the auth session.
	SaveAuth(ctx context.Context, s AuthSession) error

	// LoadAuth returns the cached auth session or ErrNotFound.
	LoadAuth(ctx context.Context) (AuthSession, error)

	// ClearAuth removes the auth session only.
	ClearAuth(ctx context.Context) error

	// Close closes the underlying storage.
	Close() error
}
