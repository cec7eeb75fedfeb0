package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// FileHandler is a slog.Handler that renders records as
//
//	2024-05-01T10:00:00.000Z [INFO] message key=value
//
// Every record goes to the application writer; records at slog.LevelError
// and above are also written to the error writer.
type FileHandler struct {
	mu     *sync.Mutex
	app    io.Writer
	errs   io.Writer
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

var _ slog.Handler = (*FileHandler)(nil)

// NewFileHandler builds a FileHandler. errs may be nil.
func NewFileHandler(app, errs io.Writer, level slog.Leveler) *FileHandler {
	if level == nil {
		level = slog.LevelDebug
	}
	return &FileHandler{mu: &sync.Mutex{}, app: app, errs: errs, level: level}
}

func (h *FileHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *FileHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ts.UTC().Format("2006-01-02T15:04:05.000Z07:00"))
	buf.WriteString(" [")
	buf.WriteString(strings.ToUpper(r.Level.String()))
	buf.WriteString("] ")
	buf.WriteString(escapeMessage(r.Message))

	for _, a := range h.attrs {
		writeAttr(&buf, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.app.Write(buf.Bytes()); err != nil {
		return err
	}
	if h.errs != nil && r.Level >= slog.LevelError {
		if _, err := h.errs.Write(buf.Bytes()); err != nil {
			return err
		}
	}
	return nil
}

func (h *FileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	nh.attrs = append(nh.attrs, h.attrs...)
	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		nh.attrs = append(nh.attrs, a)
	}
	return &nh
}

func (h *FileHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(buf, prefix+a.Key+".", ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \"=") || hasControl(val) {
		val = strconv.Quote(val)
	}
	buf.WriteByte(' ')
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteByte('=')
	buf.WriteString(val)
}

// escapeMessage keeps a record on one line: a message carrying control
// characters is written quoted.
func escapeMessage(msg string) string {
	if hasControl(msg) {
		return strconv.Quote(msg)
	}
	return msg
}

func hasControl(s string) bool {
	for _, r := range s {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return true
		}
	}
	return false
}

// LogFiles owns the two append-only log files behind a FileHandler.
type LogFiles struct {
	App   *os.File
	Error *os.File
}

// OpenLogFiles opens (creating parent directories as needed) the
// application and error log files in append mode.
func OpenLogFiles(appPath, errorPath string) (*LogFiles, error) {
	app, err := openAppend(appPath)
	if err != nil {
		return nil, err
	}
	errs, err := openAppend(errorPath)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	return &LogFiles{App: app, Error: errs}, nil
}

// Handler returns a FileHandler writing to both files.
func (f *LogFiles) Handler(level slog.Leveler) *FileHandler {
	return NewFileHandler(f.App, f.Error, level)
}

// Close closes both files.
func (f *LogFiles) Close() error {
	errApp := f.App.Close()
	errErr := f.Error.Close()
	if errApp != nil {
		return errApp
	}
	return errErr
}

func openAppend(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return f, nil
}

// FanoutHandler sends each record to every wrapped handler that is enabled
// for its level.
type FanoutHandler struct {
	handlers []slog.Handler
}

var _ slog.Handler = (*FanoutHandler)(nil)

func NewFanoutHandler(handlers ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{handlers: handlers}
}

func (f *FanoutHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *FanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithAttrs(attrs)
	}
	return &FanoutHandler{handlers: hs}
}

func (f *FanoutHandler) WithGroup(name string) slog.Handler {
	hs := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		hs[i] = h.WithGroup(name)
	}
	return &FanoutHandler{handlers: hs}
}
