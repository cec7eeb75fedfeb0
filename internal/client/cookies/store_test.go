package cookies

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/trackmeta/internal/client/migrations"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var t0 = time.Date(2030, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestStore(t *testing.T, serverURL string, opts ...Option) (*Store, *clock.Mock, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "."))

	mock := clock.NewMock()
	mock.Set(t0)

	opts = append([]Option{WithClock(mock)}, opts...)
	return NewStore(db, serverURL, opts...), mock, db
}

func rawOf(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	var raw string
	require.NoError(t, db.QueryRow(`SELECT raw FROM cookies WHERE name = ?`, name).Scan(&raw))
	return raw
}

func TestWriteRead_RoundTripEncodesValue(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	value := "a b;c=d/é+"
	require.NoError(t, s.Write(ctx, "token", value, Options{}))

	got, ok := s.Read(ctx, "token")
	require.True(t, ok)
	assert.Equal(t, value, got)

	raw := rawOf(t, db, "token")
	assert.Contains(t, raw, "token=a%20b%3Bc%3Dd%2F%C3%A9%2B")
	assert.NotContains(t, raw, " b;")
}

func TestWrite_DefaultsExpiryPathAndSameSite(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "k", "v", Options{}))

	raw := rawOf(t, db, "k")
	assert.Contains(t, raw, "Path=/")
	assert.Contains(t, raw, "SameSite=Lax")
	assert.Contains(t, raw, "Expires="+t0.Add(time.Hour).Format(http.TimeFormat))

	exp, ok := s.Expiry(ctx, "k")
	require.True(t, ok)
	assert.True(t, exp.Equal(t0.Add(DefaultTTL)))
}

func TestWrite_ExplicitSameSiteAndExpiry(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()
	exp := t0.Add(3 * time.Hour)

	require.NoError(t, s.Write(ctx, "sessionId", "x", Options{Expires: exp, SameSite: http.SameSiteStrictMode}))

	raw := rawOf(t, db, "sessionId")
	assert.Contains(t, raw, "SameSite=Strict")
	assert.Contains(t, raw, "Expires="+exp.Format(http.TimeFormat))
}

func TestWrite_RejectsInvalidNames(t *testing.T) {
	s, _, _ := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	for _, name := range []string{"", "a;b", "a=b", "a b", "a\tb", "a\nb"} {
		err := s.Write(ctx, name, "v", Options{})
		require.ErrorIs(t, err, ErrInvalidName, "name %q", name)
		assert.ErrorIs(t, err, common.ErrValidation)
	}

	h, err := s.Header(ctx)
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestWrite_SecureOnlyOverHTTPS(t *testing.T) {
	ctx := context.Background()

	plain, _, plainDB := newTestStore(t, "http://localhost:5000")
	require.NoError(t, plain.Write(ctx, "k", "v", Options{Secure: true}))
	assert.NotContains(t, rawOf(t, plainDB, "k"), "Secure")

	tls, _, tlsDB := newTestStore(t, "https://auth.example.com")
	require.NoError(t, tls.Write(ctx, "k", "v", Options{Secure: true}))
	assert.Contains(t, rawOf(t, tlsDB, "k"), "; Secure")
}

func TestWrite_HTTPOnlyIsWarnedAndOmitted(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	s, _, db := newTestStore(t, "http://localhost:5000", WithLogger(logger))
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "k", "v", Options{HTTPOnly: true}))

	assert.NotContains(t, rawOf(t, db, "k"), "HttpOnly")
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "HttpOnly")

	v, ok := s.Read(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestRead_MissingAndExpired(t *testing.T) {
	s, mock, _ := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	_, ok := s.Read(ctx, "nope")
	assert.False(t, ok)

	require.NoError(t, s.Write(ctx, "k", "v", Options{}))
	mock.Add(DefaultTTL - time.Second)
	_, ok = s.Read(ctx, "k")
	assert.True(t, ok)

	mock.Add(time.Second)
	_, ok = s.Read(ctx, "k")
	assert.False(t, ok)

	_, ok = s.Expiry(ctx, "k")
	assert.False(t, ok)
}

func TestRead_MatchesExactName(t *testing.T) {
	s, _, _ := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "token", "1", Options{}))
	require.NoError(t, s.Write(ctx, "xtoken", "2", Options{}))

	v, ok := s.Read(ctx, "token")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = s.Read(ctx, "oken")
	assert.False(t, ok)
}

func TestRead_UndecodableValueIsAbsent(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO cookies (name, value, path, expires_at, secure, same_site, raw, updated_at)
		VALUES ('bad', '%zz', '/', ?, 0, 'Lax', 'bad=%zz', ?)`, t0.Add(time.Hour).Unix(), t0.Unix())
	require.NoError(t, err)

	_, ok := s.Read(ctx, "bad")
	assert.False(t, ok)
}

func TestDelete_ExpiresAtEpoch(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "token", "abc", Options{}))
	require.NoError(t, s.Delete(ctx, "token"))

	_, ok := s.Read(ctx, "token")
	assert.False(t, ok)
	assert.Contains(t, rawOf(t, db, "token"), "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
}

func TestHeader_ListsOnlyLiveCookies(t *testing.T) {
	s, _, _ := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "b", "2", Options{}))
	require.NoError(t, s.Write(ctx, "a", "x y", Options{}))
	require.NoError(t, s.Write(ctx, "c", "3", Options{Expires: t0.Add(-time.Minute)}))

	h, err := s.Header(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a=x%20y; b=2", h)
}

func TestPurge_RemovesExpiredRows(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "live", "1", Options{}))
	require.NoError(t, s.Write(ctx, "gone", "1", Options{}))
	require.NoError(t, s.Delete(ctx, "gone"))

	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cookies`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRead_StorageFailureIsQuiet(t *testing.T) {
	s, _, db := newTestStore(t, "http://localhost:5000")
	ctx := context.Background()
	require.NoError(t, db.Close())

	v, ok := s.Read(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, v)
}
