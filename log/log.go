package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// NewHandler sets up a new slog.Handler writing to stdout with the
// service name as an attribute
func NewHandler(name string, debug bool) slog.Handler {
	return newHandler(os.Stdout, name, debug)
}

func newHandler(w io.Writer, name string, debug bool) slog.Handler {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return handler.WithAttrs([]slog.Attr{slog.String("service", name)})
}

func New(name string, debug bool) *slog.Logger {
	return slog.New(NewHandler(name, debug))
}

// NewWriter is New for programs whose stdout is their output.
func NewWriter(w io.Writer, name string, debug bool) *slog.Logger {
	return slog.New(newHandler(w, name, debug))
}

func NewContext(ctx context.Context, name string, debug bool) context.Context {
	return IntoContext(ctx, New(name, debug))
}

type ctxKey struct{}

// IntoContext adds a logger to a context. Use FromContext to
// pull the logger out.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns a logger from a context.Context;
// if the passed context is nil or carries no logger, we return
// the default slog logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}
