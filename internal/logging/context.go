package logging

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type contextKey int

const requestIDKey contextKey = iota

// GenerateRequestID returns a short random id for correlating the log lines
// of one CLI invocation or one daemon work unit.
func GenerateRequestID() string {
	id := uuid.New()
	return id.String()[:8]
}

// WithRequestID returns a new context carrying requestID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// NewRequestContext derives a context with a generated request id.
func NewRequestContext(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return WithRequestID(parent, GenerateRequestID())
}

// RequestIDFromContext extracts the request id, or "" when none is set.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggerFromContext returns the global logger tagged with the request id from ctx.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		logger = logger.With(KeyRequestID, id)
	}
	return logger
}
