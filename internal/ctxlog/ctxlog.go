// Package ctxlog carries the run's slog.Logger through context.Context so
// the reader, emitter and backend log through the logger the entry point
// configured instead of the process default.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type to prevent collisions with context keys from other packages.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. Collaborators are
// always invoked by an entry point that installed a logger, so a missing one
// is a programming error.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}

// WithComponent returns a context whose logger tags every record with the
// given component name.
func WithComponent(ctx context.Context, component string) context.Context {
	return WithLogger(ctx, FromContext(ctx).With("component", component))
}
