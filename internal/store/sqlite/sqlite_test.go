package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tombola-client/internal/store"
)

func newTestSession(t *testing.T) store.SessionStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
	require.NoError(t, err, "failed to create store")
	sess := store.NewSessionStore(s, s.Close)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestIdentityRoundTrip(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	_, err := sess.LoadIdentity(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, sess.SaveIdentity(ctx, store.Identity{ClientID: "abc123", Name: "alice"}))
	require.NoError(t, sess.SaveIdentity(ctx, store.Identity{ClientID: "def456", Name: "alice"}))

	id, err := sess.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Identity{ClientID: "def456", Name: "alice"}, id)
}

func TestClearIdentityKeepsAuthAndGame(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SaveIdentity(ctx, store.Identity{ClientID: "abc", Name: "bob"}))
	require.NoError(t, sess.SaveGameID(ctx, "game-1"))
	require.NoError(t, sess.SaveAuth(ctx, store.AuthSession{Token: "tok", RefreshToken: "ref", User: store.AuthUser{Email: "bob@example.com"}}))

	require.NoError(t, sess.ClearIdentity(ctx))

	_, err := sess.LoadIdentity(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	auth, err := sess.LoadAuth(ctx)
	require.NoError(t, err, "auth should survive identity clear")
	assert.Equal(t, "tok", auth.Token)
	assert.Equal(t, "ref", auth.RefreshToken)
	assert.Equal(t, "bob@example.com", auth.User.Email)

	gameID, err := sess.LoadGameID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "game-1", gameID)
}

func TestClearAuthKeepsIdentity(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SaveIdentity(ctx, store.Identity{ClientID: "abc", Name: "bob"}))
	require.NoError(t, sess.SaveAuth(ctx, store.AuthSession{Token: "tok", User: store.AuthUser{Email: "bob@example.com"}}))

	require.NoError(t, sess.ClearAuth(ctx))

	_, err := sess.LoadAuth(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	id, err := sess.LoadIdentity(ctx)
	require.NoError(t, err, "identity should survive auth clear")
	assert.Equal(t, "abc", id.ClientID)
}

func TestSaveAuthWithoutRefreshDropsStaleRefresh(t *testing.T) {
	sess := newTestSession(t)
	ctx := context.Background()

	require.NoError(t, sess.SaveAuth(ctx, store.AuthSession{Token: "t1", RefreshToken: "r1"}))
	require.NoError(t, sess.SaveAuth(ctx, store.AuthSession{Token: "t2"}))

	auth, err := sess.LoadAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", auth.Token)
	assert.Empty(t, auth.RefreshToken)
}

func TestSessionSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tombola.db")
	ctx := context.Background()

	first, err := OpenSession(path)
	require.NoError(t, err)
	require.NoError(t, first.SaveIdentity(ctx, store.Identity{ClientID: "persist", Name: "carol"}))
	require.NoError(t, first.SaveGameID(ctx, "g-42"))
	require.NoError(t, first.Close())

	second, err := OpenSession(path)
	require.NoError(t, err)
	defer second.Close()

	id, err := second.LoadIdentity(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Identity{ClientID: "persist", Name: "carol"}, id)

	gameID, err := second.LoadGameID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "g-42", gameID)
}
