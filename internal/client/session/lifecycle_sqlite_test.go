package session

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/trackmeta/internal/client/client"
	"github.com/dmitrijs2005/trackmeta/internal/client/cookies"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T, mock *clock.Mock) (*cookies.Store, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, client.RunMigrations(context.Background(), db))

	return cookies.NewStore(db, "https://auth.example", cookies.WithClock(mock)), db
}

func TestLifecycle_WithSQLiteCookieStore(t *testing.T) {
	ctx := context.Background()
	mock := clock.NewMock()
	mock.Set(t0)
	store, db := newSQLiteStore(t, mock)
	rec := newRecorder()

	refreshed := "refreshed token/é"
	l := New(store, refreshFunc(func(ctx context.Context, token string) (string, time.Time, error) {
		return refreshed, t0.Add(3 * time.Hour), nil
	}), WithClock(mock), WithNotifier(rec), WithNavigator(rec))
	t.Cleanup(l.Close)

	token := signedToken(t, jwt.MapClaims{"username": "alice", "exp": t0.Add(time.Hour).Unix()})
	require.NoError(t, l.LogIn(ctx, "alice", token, t0.Add(time.Hour+750*time.Millisecond)))

	got, ok := store.Read(ctx, CredentialCookie)
	require.True(t, ok)
	assert.Equal(t, token, got)

	exp, ok := store.Expiry(ctx, CredentialCookie)
	require.True(t, ok)
	assert.True(t, exp.Equal(t0.Add(time.Hour)), "stored expiry is truncated to seconds, got %v", exp)

	restored := New(store, refreshFunc(nil), WithClock(mock))
	t.Cleanup(restored.Close)
	require.True(t, restored.Restore(ctx))
	snap := restored.Snapshot()
	assert.Equal(t, "alice", snap.Username)
	assert.True(t, snap.ExpiresAt.Equal(t0.Add(time.Hour)))

	require.NoError(t, l.ExtendSession(ctx))

	got, ok = store.Read(ctx, CredentialCookie)
	require.True(t, ok)
	assert.Equal(t, refreshed, got)

	header, err := store.Header(ctx)
	require.NoError(t, err)
	assert.Contains(t, header, CredentialCookie+"=refreshed%20token%2F%C3%A9")

	exp, ok = store.Expiry(ctx, CredentialCookie)
	require.True(t, ok)
	assert.True(t, exp.Equal(t0.Add(3*time.Hour)))

	l.LogOut(ctx)
	assert.Equal(t, PathHome, waitFor(t, rec.paths))

	_, ok = store.Read(ctx, CredentialCookie)
	assert.False(t, ok)
	_, ok = store.Expiry(ctx, CredentialCookie)
	assert.False(t, ok)

	var value string
	var expiresAt int64
	require.NoError(t, db.QueryRow(`SELECT value, expires_at FROM cookies WHERE name = ?`, CredentialCookie).Scan(&value, &expiresAt))
	assert.Empty(t, value)
	assert.Zero(t, expiresAt)
}
