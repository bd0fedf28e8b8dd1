package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// Manager holds the terminal log configuration for a single CLI run. It is
// not safe for concurrent reconfiguration; it is configured from the main
// goroutine before any work starts.
type Manager struct {
	out          io.Writer
	level        slog.LevelVar
	terminal     bool
	unstructured bool
	color        bool
	target       slog.Handler
}

// NewManager creates a manager writing to out. Color is only used when out
// is a terminal.
func NewManager(out io.Writer) *Manager {
	m := &Manager{out: out, target: slog.DiscardHandler}
	if f, ok := out.(*os.File); ok {
		m.color = term.IsTerminal(int(f.Fd()))
	}
	return m
}

// AddTerminalLogging starts emitting records at or above level to the
// manager's writer.
func (m *Manager) AddTerminalLogging(level slog.Level) {
	m.level.Set(level)
	m.terminal = true
	m.rebuild()
}

// EnableUnstructured switches terminal output to plain human-readable lines.
func (m *Manager) EnableUnstructured() {
	m.unstructured = true
	m.rebuild()
}

// Logger returns a logger bound to this manager. It reflects configuration
// changes made after it was handed out.
func (m *Manager) Logger() *slog.Logger {
	return slog.New(&managedHandler{m: m})
}

// Level reports the current terminal level.
func (m *Manager) Level() slog.Level {
	return m.level.Level()
}

func (m *Manager) rebuild() {
	switch {
	case !m.terminal:
		m.target = slog.DiscardHandler
	case m.unstructured:
		m.target = newTerminalHandler(m.out, &m.level, m.color)
	default:
		m.target = slog.NewJSONHandler(m.out, &slog.HandlerOptions{Level: &m.level})
	}
}

// managedHandler defers to whatever handler the manager currently targets,
// replaying attributes and groups added through With/WithGroup.
type managedHandler struct {
	m   *Manager
	ops []func(slog.Handler) slog.Handler
}

func (h *managedHandler) current() slog.Handler {
	target := h.m.target
	for _, op := range h.ops {
		target = op(target)
	}
	return target
}

func (h *managedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.m.target.Enabled(ctx, level)
}

func (h *managedHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.current().Handle(ctx, r)
}

func (h *managedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithAttrs(attrs) })
}

func (h *managedHandler) WithGroup(name string) slog.Handler {
	return h.with(func(next slog.Handler) slog.Handler { return next.WithGroup(name) })
}

func (h *managedHandler) with(op func(slog.Handler) slog.Handler) slog.Handler {
	ops := make([]func(slog.Handler) slog.Handler, len(h.ops), len(h.ops)+1)
	copy(ops, h.ops)
	return &managedHandler{m: h.m, ops: append(ops, op)}
}

// ParseLevel maps the CLI level names onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", s)
}

// New creates a standalone logger in the given format ("json" or "text").
// It does not set the global logger.
func New(level slog.Level, format string, outW io.Writer) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(outW, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(outW, handlerOpts))
}
