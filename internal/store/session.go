package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// KVSessionStore implements SessionStore on top of any KVStore.
type KVSessionStore struct {
	kv     KVStore
	closer func() error
}

// NewSessionStore wraps kv. closer may be nil.
func NewSessionStore(kv KVStore, closer func() error) *KVSessionStore {
	return &KVSessionStore{kv: kv, closer: closer}
}

// SaveIdentity stores client id and display name.
func (s *KVSessionStore) SaveIdentity(ctx context.Context, id Identity) error {
	if id.ClientID == "" {
		return fmt.Errorf("save identity: empty client id")
	}
	if err := s.kv.Set(ctx, KeyClientID, id.ClientID); err != nil {
		return fmt.Errorf("save client id: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUserName, id.Name); err != nil {
		return fmt.Errorf("save user name: %w", err)
	}
	return nil
}

// LoadIdentity returns the cached identity. Both keys must be present.
func (s *KVSessionStore) LoadIdentity(ctx context.Context) (Identity, error) {
	clientID, err := s.kv.Get(ctx, KeyClientID)
	if err != nil {
		return Identity{}, err
	}
	name, err := s.kv.Get(ctx, KeyUserName)
	if err != nil {
		return Identity{}, err
	}
	if clientID == "" {
		return Identity{}, ErrNotFound
	}
	return Identity{ClientID: clientID, Name: name}, nil
}

// ClearIdentity removes client id and display name only.
func (s *KVSessionStore) ClearIdentity(ctx context.Context) error {
	return s.kv.Delete(ctx, identityKeys...)
}

// SaveGameID stores the selected game.
func (s *KVSessionStore) SaveGameID(ctx context.Context, gameID string) error {
	if gameID == "" {
		return s.kv.Delete(ctx, KeyGameID)
	}
	return s.kv.Set(ctx, KeyGameID, gameID)
}

// LoadGameID returns the selected game.
func (s *KVSessionStore) LoadGameID(ctx context.Context) (string, error) {
	return s.kv.Get(ctx, KeyGameID)
}

// SaveAuth stores the auth session. An empty refresh token removes any stale one.
func (s *KVSessionStore) SaveAuth(ctx context.Context, a AuthSession) error {
	user, err := json.Marshal(a.User)
	if err != nil {
		return fmt.Errorf("marshal auth user: %w", err)
	}
	if err := s.kv.Set(ctx, KeyAuthToken, a.Token); err != nil {
		return fmt.Errorf("save auth token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyAuthUser, string(user)); err != nil {
		return fmt.Errorf("save auth user: %w", err)
	}
	if a.RefreshToken == "" {
		return s.kv.Delete(ctx, KeyAuthRefreshToken)
	}
	return s.kv.Set(ctx, KeyAuthRefreshToken, a.RefreshToken)
}

// LoadAuth returns the cached auth session.
func (s *KVSessionStore) LoadAuth(ctx context.Context) (AuthSession, error) {
	token, err := s.kv.Get(ctx, KeyAuthToken)
	if err != nil {
		return AuthSession{}, err
	}
	raw, err := s.kv.Get(ctx, KeyAuthUser)
	if err != nil {
		return AuthSession{}, err
	}
	var user AuthUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return AuthSession{}, fmt.Errorf("decode auth user: %w", err)
	}
	refresh, err := s.kv.Get(ctx, KeyAuthRefreshToken)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return AuthSession{}, err
	}
	return AuthSession{Token: token, RefreshToken: refresh, User: user}, nil
}

// ClearAuth removes the auth session only.
func (s *KVSessionStore) ClearAuth(ctx context.Context) error {
	return s.kv.Delete(ctx, authKeys...)
}

// Close closes the underlying storage.
func (s *KVSessionStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

var _ SessionStore = (*KVSessionStore)(nil)
