// Package session manages the client side of an authenticated session: the
// credential cookie, the expiry warning, the close window that follows it,
// silent token refresh and forced logout.
//
// A Lifecycle moves between four states:
//
//	LoggedOut --LogIn--> Active --warning--> WarningShown --close--> Expired
//	                       ^                      |
//	                       +----ExtendSession-----+
//
// LogOut returns to LoggedOut from any state. Every transition that restarts
// the cycle bumps a generation counter; timer callbacks and refresh results
// stamped with an older generation are dropped.
package session

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/trackmeta/internal/client/cookies"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
)

const (
	// CredentialCookie holds the bearer token.
	CredentialCookie = common.AuthCookieName

	DefaultWarningLead    = 60 * time.Second
	DefaultCloseWindow    = 30 * time.Second
	DefaultRefreshTimeout = 10 * time.Second
)

// Navigation targets.
const (
	PathHome          = "/"
	PathDashboard     = "/home"
	PathSessionExpiry = "/login?sessionExpired=true"
)

type State int

const (
	LoggedOut State = iota
	Active
	WarningShown
	Expired
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case Active:
		return "active"
	case WarningShown:
		return "warning shown"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Snapshot is a point-in-time copy of the observable session state.
type Snapshot struct {
	State          State
	Username       string
	Token          string
	ExpiresAt      time.Time
	IsLoggedIn     bool
	IsExpired      bool
	WarningVisible bool
}

// CookieStore is the subset of *cookies.Store the lifecycle needs.
type CookieStore interface {
	Write(ctx context.Context, name, value string, opts cookies.Options) error
	Read(ctx context.Context, name string) (string, bool)
	Expiry(ctx context.Context, name string) (time.Time, bool)
	Delete(ctx context.Context, name string) error
}

// Refresher exchanges a token for a new one. newExpiry is the server's
// authoritative expiry for newToken.
type Refresher interface {
	Refresh(ctx context.Context, token string) (newToken string, newExpiry time.Time, err error)
}

// Notifier receives session events. Calls are made without the lifecycle lock
// held, possibly from a timer goroutine.
type Notifier interface {
	SessionWarning(s Snapshot, closeIn time.Duration)
	SessionExpired(s Snapshot)
}

// Navigator switches the UI to a view.
type Navigator interface {
	Navigate(path string)
}

type nopNotifier struct{}

func (nopNotifier) SessionWarning(Snapshot, time.Duration) {}
func (nopNotifier) SessionExpired(Snapshot)                {}

type nopNavigator struct{}

func (nopNavigator) Navigate(string) {}

type Lifecycle struct {
	mu sync.Mutex

	clock     clock.Clock
	cookies   CookieStore
	refresher Refresher
	notifier  Notifier
	navigator Navigator
	logger    logging.Logger

	warningLead    time.Duration
	closeWindow    time.Duration
	refreshTimeout time.Duration

	state          State
	username       string
	token          string
	expiresAt      time.Time
	warningVisible bool
	generation     uint64
	timers         sessionTimers
}

type Option func(*Lifecycle)

func WithClock(c clock.Clock) Option {
	return func(l *Lifecycle) { l.clock = c }
}

func WithNotifier(n Notifier) Option {
	return func(l *Lifecycle) { l.notifier = n }
}

func WithNavigator(n Navigator) Option {
	return func(l *Lifecycle) { l.navigator = n }
}

func WithLogger(lg logging.Logger) Option {
	return func(l *Lifecycle) { l.logger = lg }
}

// WithTimings overrides the warning lead, the close window and the refresh
// timeout. Non-positive values keep the defaults.
func WithTimings(warningLead, closeWindow, refreshTimeout time.Duration) Option {
	return func(l *Lifecycle) {
		if warningLead > 0 {
			l.warningLead = warningLead
		}
		if closeWindow > 0 {
			l.closeWindow = closeWindow
		}
		if refreshTimeout > 0 {
			l.refreshTimeout = refreshTimeout
		}
	}
}

func New(store CookieStore, refresher Refresher, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		clock:          clock.New(),
		cookies:        store,
		refresher:      refresher,
		notifier:       nopNotifier{},
		navigator:      nopNavigator{},
		logger:         logging.NewDiscardLogger(),
		warningLead:    DefaultWarningLead,
		closeWindow:    DefaultCloseWindow,
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, o := range opts {
		o(l)
	}
	l.timers.clock = l.clock
	return l
}

// LogIn starts a session for username. The credential cookie is written
// first; if that fails the lifecycle is left unchanged.
func (l *Lifecycle) LogIn(ctx context.Context, username, token string, expiresAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeCredential(ctx, token, expiresAt); err != nil {
		return err
	}
	l.startLocked(ctx, username, token, expiresAt)
	l.logger.Info(ctx, "session started", "username", username, "expiresAt", expiresAt)
	return nil
}

// Restore rehydrates the session from the persisted credential cookie. The
// expiry comes from the cookie itself, falling back to the token's exp claim.
// It reports whether a live session was found.
func (l *Lifecycle) Restore(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == Active || l.state == WarningShown {
		return true
	}

	token, ok := l.cookies.Read(ctx, CredentialCookie)
	if !ok || token == "" {
		return false
	}

	info, _ := DecodeToken(token)
	expiresAt, ok := l.cookies.Expiry(ctx, CredentialCookie)
	if !ok {
		expiresAt = info.ExpiresAt
	}
	if expiresAt.IsZero() || !l.clock.Now().Before(expiresAt) {
		return false
	}

	l.startLocked(ctx, info.Username, token, expiresAt)
	l.logger.Info(ctx, "session restored", "username", info.Username, "expiresAt", expiresAt)
	return true
}

// ExtendSession trades the stored credential for a new one. Any failure,
// including a missing credential, ends the session as Expired and returns an
// error wrapping common.ErrRefreshFailed. From LoggedOut or Expired it returns
// common.ErrNotLoggedIn without side effects.
func (l *Lifecycle) ExtendSession(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Active && l.state != WarningShown {
		l.mu.Unlock()
		return common.ErrNotLoggedIn
	}

	// Callbacks already fired but waiting on the lock see a stale generation.
	l.generation++
	l.timers.stopAll()

	token, ok := l.cookies.Read(ctx, CredentialCookie)
	if !ok || token == "" {
		snap := l.endLocked(ctx)
		l.mu.Unlock()
		l.afterExpired(snap)
		return fmt.Errorf("%w: no stored credential", common.ErrRefreshFailed)
	}
	gen := l.generation
	l.mu.Unlock()

	rctx, cancel := context.WithTimeout(ctx, l.refreshTimeout)
	newToken, newExpiry, err := l.refresher.Refresh(rctx, token)
	cancel()

	l.mu.Lock()
	if gen != l.generation {
		l.mu.Unlock()
		return fmt.Errorf("%w: session changed during refresh", common.ErrRefreshFailed)
	}

	if err == nil {
		err = l.writeCredential(ctx, newToken, newExpiry)
	}
	if err != nil {
		l.logger.Warn(ctx, "session refresh failed", "error", err)
		snap := l.endLocked(ctx)
		l.mu.Unlock()
		l.afterExpired(snap)
		return fmt.Errorf("%w: %w", common.ErrRefreshFailed, err)
	}

	l.startLocked(ctx, l.username, newToken, newExpiry)
	l.logger.Info(ctx, "session extended", "username", l.username, "expiresAt", newExpiry)
	l.mu.Unlock()
	return nil
}

// EndSession forces the session into Expired and navigates to the login view.
// It is a no-op when nobody is logged in.
func (l *Lifecycle) EndSession(ctx context.Context) {
	l.mu.Lock()
	if l.state != Active && l.state != WarningShown {
		l.mu.Unlock()
		return
	}
	snap := l.endLocked(ctx)
	l.mu.Unlock()
	l.afterExpired(snap)
}

// LogOut clears the session and navigates home.
func (l *Lifecycle) LogOut(ctx context.Context) {
	l.mu.Lock()
	l.generation++
	l.timers.stopAll()
	l.clearLocked(ctx)
	l.state = LoggedOut
	l.mu.Unlock()

	l.logger.Info(ctx, "logged out")
	l.navigator.Navigate(PathHome)
}

// Close cancels pending timers. The credential cookie is left in place so
// the next Restore can pick the session up again.
func (l *Lifecycle) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	l.timers.stopAll()
}

func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lifecycle) snapshotLocked() Snapshot {
	return Snapshot{
		State:          l.state,
		Username:       l.username,
		Token:          l.token,
		ExpiresAt:      l.expiresAt,
		IsLoggedIn:     l.state == Active || l.state == WarningShown,
		IsExpired:      l.state == Expired,
		WarningVisible: l.warningVisible,
	}
}

func (l *Lifecycle) writeCredential(ctx context.Context, token string, expiresAt time.Time) error {
	return l.cookies.Write(ctx, CredentialCookie, token, cookies.Options{
		Expires:  expiresAt,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// startLocked enters Active under a fresh generation and schedules the
// warning relative to expiresAt.
func (l *Lifecycle) startLocked(ctx context.Context, username, token string, expiresAt time.Time) {
	l.generation++
	l.timers.stopAll()

	l.state = Active
	l.username = username
	l.token = token
	l.expiresAt = expiresAt
	l.warningVisible = false

	delay := expiresAt.Sub(l.clock.Now()) - l.warningLead
	if delay <= 0 {
		l.logger.Debug(ctx, "session is inside the warning lead, no warning scheduled", "expiresAt", expiresAt)
		return
	}

	gen := l.generation
	l.timers.startWarning(delay, func() { l.onWarning(gen) })
}

func (l *Lifecycle) onWarning(gen uint64) {
	l.mu.Lock()
	if gen != l.generation || l.state != Active {
		l.mu.Unlock()
		return
	}

	l.timers.warning = nil
	l.state = WarningShown
	l.warningVisible = true
	l.timers.startClose(l.closeWindow, func() { l.onClose(gen) })

	snap := l.snapshotLocked()
	closeIn := l.closeWindow
	l.mu.Unlock()

	l.logger.Info(context.Background(), "session expiry warning shown", "expiresAt", snap.ExpiresAt)
	l.notifier.SessionWarning(snap, closeIn)
}

func (l *Lifecycle) onClose(gen uint64) {
	l.mu.Lock()
	if gen != l.generation || l.state != WarningShown {
		l.mu.Unlock()
		return
	}
	snap := l.endLocked(context.Background())
	l.mu.Unlock()
	l.afterExpired(snap)
}

// endLocked cancels timers, clears the credential and enters Expired.
func (l *Lifecycle) endLocked(ctx context.Context) Snapshot {
	l.generation++
	l.timers.stopAll()
	l.clearLocked(ctx)
	l.state = Expired
	return l.snapshotLocked()
}

func (l *Lifecycle) clearLocked(ctx context.Context) {
	l.username = ""
	l.token = ""
	l.expiresAt = time.Time{}
	l.warningVisible = false
	if err := l.cookies.Delete(ctx, CredentialCookie); err != nil {
		l.logger.Error(ctx, "failed to clear credential cookie", "error", err)
	}
}

func (l *Lifecycle) afterExpired(snap Snapshot) {
	l.logger.Info(context.Background(), "session expired")
	l.notifier.SessionExpired(snap)
	l.navigator.Navigate(PathSessionExpiry)
}
