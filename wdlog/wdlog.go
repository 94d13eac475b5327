// Package wdlog threads a zerolog.Logger through the client constructors
// instead of relying on the package-global logger, following the
// context-carried-logger convention used elsewhere in the ecosystem (see
// tzrikka-timpani/internal/logger) adapted here from slog to zerolog to
// match the rest of this module's logging stack.
package wdlog

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

var ctxLoggerKey = ctxKey{}

// New builds a logger writing to w at level, human-readable when pretty is
// set (mirroring zerolog.ConsoleWriter usage for local/dev runs) and plain
// JSON otherwise (for production/log-aggregator consumption).
func New(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default is the fallback logger used when no logger has been threaded
// through a constructor or stashed in a context: JSON to stderr at info
// level.
func Default() zerolog.Logger {
	return New(os.Stderr, zerolog.InfoLevel, false)
}

// InContext returns a copy of ctx carrying l, retrievable via FromContext.
func InContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, l)
}

// FromContext returns the logger stashed in ctx by InContext, or Default
// if none was stashed.
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxLoggerKey).(zerolog.Logger); ok {
		return l
	}
	return Default()
}
