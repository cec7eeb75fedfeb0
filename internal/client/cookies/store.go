// Package cookies implements a browser-like cookie store for the CLI client.
//
// Cookies are serialized with net/http cookie attribute rules and persisted in
// the client's SQLite database, which stands in for browser storage. Values are
// percent-encoded on write and decoded on read.
package cookies

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/trackmeta/internal/client/models"
	repo "github.com/dmitrijs2005/trackmeta/internal/client/repositories/cookies"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/dbx"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
)

// DefaultTTL is applied when Options.Expires is zero.
const DefaultTTL = time.Hour

var ErrInvalidName = fmt.Errorf("%w: invalid cookie name", common.ErrValidation)

// Options are the optional cookie attributes accepted by Write.
type Options struct {
	Expires  time.Time
	Secure   bool
	SameSite http.SameSite
	HTTPOnly bool
}

// Store reads and writes cookies.
type Store struct {
	db              *sql.DB
	repoFor         func(dbx.DBTX) repo.Repository
	secureTransport bool
	clock           clock.Clock
	logger          logging.Logger
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore returns a Store over db. The Secure attribute is only ever emitted
// when serverURL uses https.
func NewStore(db *sql.DB, serverURL string, opts ...Option) *Store {
	s := &Store{
		db:      db,
		repoFor: func(tx dbx.DBTX) repo.Repository { return repo.NewSQLiteRepository(tx) },
		clock:   clock.New(),
		logger:  logging.NewDiscardLogger(),
	}
	if u, err := url.Parse(serverURL); err == nil && strings.EqualFold(u.Scheme, "https") {
		s.secureTransport = true
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Write stores a cookie, replacing any cookie with the same name.
func (s *Store) Write(ctx context.Context, name, value string, opts Options) error {
	if !validName(name) {
		return ErrInvalidName
	}

	now := s.clock.Now()
	expires := opts.Expires
	if expires.IsZero() {
		expires = now.Add(DefaultTTL)
	}

	sameSite := opts.SameSite
	if sameSite == 0 || sameSite == http.SameSiteDefaultMode {
		sameSite = http.SameSiteLaxMode
	}

	if opts.HTTPOnly {
		s.logger.Warn(ctx, "HttpOnly can't be set from the client, set it on the server", "cookie", name)
	}

	hc := &http.Cookie{
		Name:     name,
		Value:    encodeValue(value),
		Path:     "/",
		Expires:  expires.UTC(),
		Secure:   opts.Secure && s.secureTransport,
		SameSite: sameSite,
	}
	if err := hc.Valid(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidName, err)
	}

	c := &models.Cookie{
		Name:      hc.Name,
		Value:     hc.Value,
		Path:      hc.Path,
		Expires:   hc.Expires.Truncate(time.Second),
		Secure:    hc.Secure,
		SameSite:  sameSiteName(sameSite),
		Raw:       hc.String(),
		UpdatedAt: now.UTC(),
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repoFor(tx).Put(ctx, c)
	})
}

// Read returns the decoded value of the named cookie. Missing, expired and
// undecodable cookies all read as ("", false).
func (s *Store) Read(ctx context.Context, name string) (string, bool) {
	header, err := s.Header(ctx)
	if err != nil {
		s.logger.Warn(ctx, "cookie read failed", "cookie", name, "error", err)
		return "", false
	}
	if header == "" {
		return "", false
	}

	for _, seg := range strings.Split(header, "; ") {
		raw, ok := strings.CutPrefix(seg, name+"=")
		if !ok {
			continue
		}
		v, err := url.PathUnescape(raw)
		if err != nil {
			s.logger.Warn(ctx, "cookie value is not decodable", "cookie", name, "error", err)
			return "", false
		}
		return v, true
	}
	return "", false
}

// Expiry returns the stored expiry of a live cookie.
func (s *Store) Expiry(ctx context.Context, name string) (time.Time, bool) {
	c, err := s.repoFor(s.db).Get(ctx, name)
	if err != nil || c == nil || c.Expired(s.clock.Now()) {
		return time.Time{}, false
	}
	return c.Expires, true
}

// Delete expires the cookie by overwriting it with an empty value dated at
// the Unix epoch.
func (s *Store) Delete(ctx context.Context, name string) error {
	return s.Write(ctx, name, "", Options{Expires: time.Unix(0, 0)})
}

// Header renders the live cookies as a Cookie request header, "a=1; b=2".
func (s *Store) Header(ctx context.Context) (string, error) {
	all, err := s.repoFor(s.db).List(ctx)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	parts := make([]string, 0, len(all))
	for _, c := range all {
		if c.Expired(now) {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; "), nil
}

// Purge drops expired cookies from storage.
func (s *Store) Purge(ctx context.Context) (int64, error) {
	return dbx.WithTxResult(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (int64, error) {
		return s.repoFor(tx).DeleteExpired(ctx, s.clock.Now())
	})
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	return !strings.ContainsFunc(name, func(r rune) bool {
		return r == ';' || r == '=' || unicode.IsSpace(r)
	})
}

// encodeValue percent-encodes everything outside the unreserved set, with
// spaces as %20 rather than '+'.
func encodeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

func sameSiteName(m http.SameSite) string {
	switch m {
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return "Lax"
	}
}
