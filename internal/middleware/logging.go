package middleware

import (
	"log/slog"
	"time"

	"github.com/MrWong99/guildmcp/internal/mcperr"
)

// Logging is the outermost built-in middleware. On entry it stamps
// method/event/timestamp into a per-invocation slog.Logger attached to
// the context (so anything nested logs with the same fields); on exit
// it logs duration and outcome; on a handler error it classifies the
// error into a typed MCP error via mcperr.Classify before re-raising, so
// every downstream caller sees the taxonomy rather than a raw error.
type Logging struct {
	Logger *slog.Logger
}

// NewLogging returns a Logging middleware writing to logger, or
// slog.Default() if nil.
func NewLogging(logger *slog.Logger) *Logging {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{Logger: logger}
}

func (l *Logging) Wrap(next Next) Next {
	return func(ctx *Context) (any, error) {
		logger := l.Logger.With(
			slog.String("method", ctx.Method),
			slog.String("event_type", ctx.EventType.String()),
			slog.Time("timestamp", ctx.Timestamp),
		)
		logger.Debug("dispatch started")
		start := time.Now()

		result, err := next(ctx)

		duration := time.Since(start)
		if err != nil {
			classified := mcperr.Classify(err)
			logger.Error("dispatch failed", slog.Duration("duration", duration), slog.String("kind", classified.Kind.String()), slog.Any("error", classified))
			return nil, classified
		}
		logger.Debug("dispatch completed", slog.Duration("duration", duration))
		return result, nil
	}
}
