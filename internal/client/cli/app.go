package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/client/client"
	"github.com/dmitrijs2005/trackmeta/internal/client/config"
	"github.com/dmitrijs2005/trackmeta/internal/client/cookies"
	"github.com/dmitrijs2005/trackmeta/internal/client/remotelog"
	"github.com/dmitrijs2005/trackmeta/internal/client/session"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type authAPI interface {
	Signup(ctx context.Context, username, email, password string) (*client.SignupResult, error)
	Login(ctx context.Context, username, password string) (*client.LoginResult, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type sessionManager interface {
	LogIn(ctx context.Context, username, token string, expiresAt time.Time) error
	ExtendSession(ctx context.Context) error
	LogOut(ctx context.Context)
	Restore(ctx context.Context) bool
	Snapshot() session.Snapshot
	Close()
}

type cookieReader interface {
	Read(ctx context.Context, name string) (string, bool)
}

type remoteLogger interface {
	Log(ctx context.Context, level, msg string)
	Close(ctx context.Context) error
}

type App struct {
	config  *config.Config
	api     authAPI
	health  pinger
	session sessionManager
	cookies cookieReader
	remote  remoteLogger
	logger  logging.Logger
	reader  *bufio.Reader

	mu   sync.Mutex
	out  io.Writer
	view string
	mode Mode

	closers []func() error
}

// NewApp opens the cookie database and wires the clients, the session
// lifecycle and the remote log channel.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := client.InitDatabase(ctx, c.CookieDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	store := cookies.NewStore(db, c.ServerURL, cookies.WithLogger(logger))
	if _, err := store.Purge(ctx); err != nil {
		logger.Warn(ctx, "failed to purge expired cookies", "error", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hc, err := client.NewHealthClient(c.HealthEndpointAddr)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, api, hc, store, os.Stdin, os.Stdout, logger)
	a.remote = remotelog.New(api, store, remotelog.WithLocalLogger(logger))
	a.session = session.New(store, api,
		session.WithNotifier(a),
		session.WithNavigator(a),
		session.WithLogger(logger),
		session.WithTimings(c.WarningLead, c.CloseWindow, c.RefreshTimeout),
	)
	a.closers = []func() error{hc.Close, db.Close}
	return a, nil
}

func newApp(c *config.Config, api authAPI, health pinger, store cookieReader, in io.Reader, out io.Writer, logger logging.Logger) *App {
	return &App{
		config:  c,
		api:     api,
		health:  health,
		cookies: store,
		logger:  logger,
		reader:  bufio.NewReader(in),
		out:     out,
		view:    session.PathHome,
	}
}

// Run restores a previous session, starts the connectivity watcher and
// blocks in the REPL until the user exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.println(okStyle.Render("Welcome to trackmeta CLI (type 'help' for commands)"))

	if a.session.Restore(ctx) {
		a.println(mutedStyle.Render("Restored session for " + a.session.Snapshot().Username))
		a.Navigate(session.PathDashboard)
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(wctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

// Close stops session timers, flushes queued remote logs and releases
// connections. The credential cookie stays so the next run can restore it.
func (a *App) Close() error {
	var errs []error
	if a.session != nil {
		a.session.Close()
	}
	if a.remote != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		errs = append(errs, a.remote.Close(ctx))
		cancel()
	}

	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for _, c := range closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.Snapshot().IsLoggedIn
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.println(mutedStyle.Render(fmt.Sprintf("Switched to %s mode", mode)))
	}
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) currentView() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

// StartOnlineStatusWatcher pings the health service every interval and
// flips the mode between online and offline.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.checkOnline(ctx)
	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.health.Ping(pctx)
	cancel()

	if err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

func (a *App) println(args ...any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fmt.Fprintln(a.out, args...)
}

func (a *App) logRemote(ctx context.Context, level, msg string) {
	if a.remote != nil {
		a.remote.Log(ctx, level, msg)
	}
}

func (a *App) getStatus() string {
	s := ""
	snap := a.session.Snapshot()
	if snap.IsLoggedIn {
		s = snap.Username + " "
	}
	if m := a.currentMode(); m != "" {
		s += string(m) + " "
	}
	s += a.currentView()
	return fmt.Sprintf("(%s)", s)
}
