// Package logging provides structured logging for violet.
// It wraps log/slog with a swappable package-level logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex

	// Debug indicates if debug mode is enabled.
	Debug bool
)

func init() {
	defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	JSON      bool
	Output    io.Writer // default: stderr
	AddSource bool
}

// DefaultConfig returns the configuration used by ordinary CLI invocations.
// Only warnings reach the terminal so command output stays clean.
func DefaultConfig() Config {
	return Config{
		Level:  slog.LevelWarn,
		Output: os.Stderr,
	}
}

// DebugConfig returns the configuration used with --debug.
func DebugConfig() Config {
	return Config{
		Level:     slog.LevelDebug,
		JSON:      true,
		Output:    os.Stderr,
		AddSource: true,
	}
}

// DaemonConfig returns the configuration used by the background daemon,
// which writes to its own log file.
func DaemonConfig(w io.Writer) Config {
	return Config{
		Level:  slog.LevelInfo,
		Output: w,
	}
}

// Init replaces the global logger.
func Init(cfg Config) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	Debug = cfg.Level <= slog.LevelDebug
}

// Logger returns the current logger instance.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

// With returns a logger with additional attributes.
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Info logs at INFO level.
func Info(msg string, args ...any) {
	Logger().Info(msg, MaskArgs(args)...)
}

// DebugLog logs at DEBUG level.
func DebugLog(msg string, args ...any) {
	Logger().Debug(msg, MaskArgs(args)...)
}

// Warn logs at WARN level.
func Warn(msg string, args ...any) {
	Logger().Warn(msg, MaskArgs(args)...)
}

// Error logs at ERROR level.
func Error(msg string, args ...any) {
	Logger().Error(msg, MaskArgs(args)...)
}

// InfoContext logs at INFO level with the request id from ctx.
func InfoContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).InfoContext(ctx, msg, MaskArgs(args)...)
}

// DebugContext logs at DEBUG level with the request id from ctx.
func DebugContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).DebugContext(ctx, msg, MaskArgs(args)...)
}

// WarnContext logs at WARN level with the request id from ctx.
func WarnContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).WarnContext(ctx, msg, MaskArgs(args)...)
}

// ErrorContext logs at ERROR level with the request id from ctx.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).ErrorContext(ctx, msg, MaskArgs(args)...)
}

// Common structured logging fields.
const (
	KeyRequestID    = "request_id"
	KeyOperation    = "op"
	KeyError        = "error"
	KeyTask         = "task"
	KeyRegion       = "region"
	KeyEvent        = "event"
	KeyReminderType = "reminder_type"
	KeyScope        = "scope"
	KeyWebhook      = "webhook"
	KeyURL          = "url"
	KeyStatus       = "status"
	KeyCount        = "count"
	KeyAttempt      = "attempt"
	KeyTopic        = "topic"
)
