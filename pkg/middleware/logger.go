package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/sweetstate/pkg/store"
)

// LoggerConfig configures the logging middleware.
type LoggerConfig struct {
	// Logger receives the records (default: slog.Default()).
	Logger *slog.Logger

	// Level is the level updates are logged at (default: slog.LevelDebug).
	Level slog.Level

	// IncludeState adds the post-update state snapshot to each record.
	IncludeState bool
}

// LoggerOption configures the logging middleware.
type LoggerOption func(*LoggerConfig)

// WithLogger sets the destination logger.
func WithLogger(l *slog.Logger) LoggerOption {
	return func(c *LoggerConfig) {
		c.Logger = l
	}
}

// WithLevel sets the level updates are logged at.
func WithLevel(level slog.Level) LoggerOption {
	return func(c *LoggerConfig) {
		c.Level = level
	}
}

// WithState includes the state snapshot in each record.
func WithState(include bool) LoggerOption {
	return func(c *LoggerConfig) {
		c.IncludeState = include
	}
}

// Logger creates middleware that logs every update with its store,
// scope, action and duration.
func Logger(opts ...LoggerOption) store.Middleware {
	config := LoggerConfig{Level: slog.LevelDebug}
	for _, opt := range opts {
		opt(&config)
	}
	base := config.Logger
	if base == nil {
		base = slog.Default()
	}
	base = base.With("component", "store")

	return func(s store.Inspector) func(store.Next) store.Next {
		logger := base.With("store", s.ID())
		return func(next store.Next) store.Next {
			return func(u store.Update) any {
				start := time.Now()
				before := s.Version()
				res := next(u)

				attrs := []any{
					"action", actionLabel(u.Action),
					"changed", s.Version() != before,
					"duration", time.Since(start),
				}
				if config.IncludeState {
					attrs = append(attrs, "state", s.Snapshot())
				}
				logger.Log(context.Background(), config.Level, "state update", attrs...)
				return res
			}
		}
	}
}

// actionLabel returns a stable label for anonymous updates.
func actionLabel(action string) string {
	if action == "" {
		return "anonymous"
	}
	return action
}
