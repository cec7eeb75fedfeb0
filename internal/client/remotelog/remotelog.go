// Package remotelog ships client log lines to the auth server's POST /log
// endpoint. Delivery is fire-and-forget: records are queued and sent by a
// single background worker, and failures are only reported locally.
package remotelog

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dmitrijs2005/trackmeta/internal/client/client"
	"github.com/dmitrijs2005/trackmeta/internal/client/cookies"
	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/google/uuid"
)

const (
	defaultQueueSize   = 128
	defaultSendTimeout = 5 * time.Second
)

// Sender delivers one record.
type Sender interface {
	SendLog(ctx context.Context, rec client.LogRecord) error
}

type CookieStore interface {
	Read(ctx context.Context, name string) (string, bool)
	Write(ctx context.Context, name, value string, opts cookies.Options) error
	Delete(ctx context.Context, name string) error
}

type Logger struct {
	sender      Sender
	cookies     CookieStore
	clock       clock.Clock
	local       logging.Logger
	sendTimeout time.Duration

	sidMu sync.Mutex
	sid   string

	mu     sync.RWMutex
	closed bool
	queue  chan client.LogRecord
	done   chan struct{}

	dropped atomic.Int64
}

type Option func(*Logger)

func WithClock(c clock.Clock) Option {
	return func(l *Logger) { l.clock = c }
}

// WithLocalLogger sets where delivery problems are reported.
func WithLocalLogger(lg logging.Logger) Option {
	return func(l *Logger) { l.local = lg }
}

func WithQueueSize(n int) Option {
	return func(l *Logger) {
		if n > 0 {
			l.queue = make(chan client.LogRecord, n)
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.sendTimeout = d
		}
	}
}

// New starts the delivery worker. Call Close to stop it.
func New(sender Sender, store CookieStore, opts ...Option) *Logger {
	l := &Logger{
		sender:      sender,
		cookies:     store,
		clock:       clock.New(),
		local:       logging.NewDiscardLogger(),
		sendTimeout: defaultSendTimeout,
		queue:       make(chan client.LogRecord, defaultQueueSize),
		done:        make(chan struct{}),
	}
	for _, o := range opts {
		o(l)
	}
	go l.run()
	return l
}

func (l *Logger) Debug(ctx context.Context, msg string) { l.Log(ctx, common.LogLevelDebug, msg) }
func (l *Logger) Info(ctx context.Context, msg string)  { l.Log(ctx, common.LogLevelInfo, msg) }
func (l *Logger) Warn(ctx context.Context, msg string)  { l.Log(ctx, common.LogLevelWarn, msg) }
func (l *Logger) Error(ctx context.Context, msg string) { l.Log(ctx, common.LogLevelError, msg) }

// Log queues a record and returns immediately. When the queue is full or the
// logger is closed the record is dropped.
func (l *Logger) Log(ctx context.Context, level, msg string) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}

	rec := client.LogRecord{
		Level:     level,
		Message:   msg,
		SessionID: l.SessionID(ctx),
		Timestamp: l.clock.Now(),
	}

	select {
	case l.queue <- rec:
	default:
		l.dropped.Add(1)
		l.local.Warn(ctx, "log queue full, record dropped", "level", level)
	}
}

// SessionID returns the client's log correlation id. The id is read from the
// sessionId cookie, or created there, on first use and then kept for the
// lifetime of the Logger; Close removes the cookie.
func (l *Logger) SessionID(ctx context.Context) string {
	l.sidMu.Lock()
	defer l.sidMu.Unlock()

	if l.sid != "" {
		return l.sid
	}

	if id, ok := l.cookies.Read(ctx, common.SessionIDCookieName); ok && id != "" {
		l.sid = id
		return id
	}

	id := uuid.NewString()
	err := l.cookies.Write(ctx, common.SessionIDCookieName, id, cookies.Options{
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	if err != nil {
		l.local.Warn(ctx, "failed to store session id", "error", err)
	}
	l.sid = id
	return id
}

// Dropped reports how many records were discarded without a send attempt.
func (l *Logger) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting records, ends the log session and waits for queued
// records to be sent, or for ctx to end.
func (l *Logger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	l.endSession(ctx)

	select {
	case <-l.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Logger) endSession(ctx context.Context) {
	l.sidMu.Lock()
	defer l.sidMu.Unlock()

	if l.sid == "" {
		return
	}
	if err := l.cookies.Delete(ctx, common.SessionIDCookieName); err != nil {
		l.local.Warn(ctx, "failed to remove session id", "error", err)
	}
	l.sid = ""
}

func (l *Logger) run() {
	defer close(l.done)
	for rec := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), l.sendTimeout)
		err := l.sender.SendLog(ctx, rec)
		cancel()
		if err != nil {
			l.local.Warn(context.Background(), "Failed to send log to server", "level", rec.Level, "error", err)
		}
	}
}
