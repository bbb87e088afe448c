package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{ name string }

var (
	loggerKey = ctxKey{"logger"}
	runKey    = ctxKey{"run"}
)

// WithLogger stores logger in ctx. A nil logger stores the default one.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, falling back to Default.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && l != nil {
			return l
		}
	}
	return Default()
}

// Ctx is shorthand for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger { return FromContext(ctx) }

// WithFields derives a logger carrying fields and stores it in ctx.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	c := FromContext(ctx).With()
	for k, v := range fields {
		c = addField(c, k, v)
	}
	l := c.Logger()
	return WithLogger(ctx, &l)
}

// WithField is WithFields for a single key.
func WithField(ctx context.Context, key string, value any) context.Context {
	l := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &l)
}

// WithRun records the sync run ID in ctx and tags the logger with it.
func WithRun(ctx context.Context, id string) context.Context {
	return WithField(context.WithValue(ctx, runKey, id), "run_id", id)
}

// RunID returns the ID set by WithRun, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runKey).(string)
	return id
}

func WithCategory(ctx context.Context, key string) context.Context {
	return WithField(ctx, "category", key)
}

func WithProduct(ctx context.Context, name string) context.Context {
	return WithField(ctx, "product", name)
}

// WithSource tags the logger with the page or file being read.
func WithSource(ctx context.Context, source string) context.Context {
	return WithField(ctx, "source", source)
}

// WithError tags the logger with err. A nil err leaves ctx unchanged.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
