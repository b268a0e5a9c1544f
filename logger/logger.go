package logger

import (
	"context"
	"log/slog"
)

// Logger is the global logger instance
var Logger *slog.Logger

func init() {
	// Load configuration and create logger
	config := LoadConfig()
	Logger = NewLogger(config)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// DebugContext logs a debug message with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	Logger.Debug(msg, appendContextArgs(ctx, args...)...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// InfoContext logs an info message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	Logger.Info(msg, appendContextArgs(ctx, args...)...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// WarnContext logs a warning message with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	Logger.Warn(msg, appendContextArgs(ctx, args...)...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// ErrorContext logs an error message with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	Logger.Error(msg, appendContextArgs(ctx, args...)...)
}

// With returns a new Logger that includes the given attributes in each output operation
func With(args ...any) *slog.Logger {
	return Logger.With(args...)
}

// WithContext returns a new Logger that includes context information
func WithContext(ctx context.Context) *slog.Logger {
	return Logger.With(appendContextArgs(ctx)...)
}

// SetLogLevel programmatically sets the log level
func SetLogLevel(level slog.Level) {
	config := LoadConfig()
	config.Level = level
	Logger = NewLogger(config)
}

// appendContextArgs extracts context values and appends them to the args
func appendContextArgs(ctx context.Context, args ...any) []any {
	return append(args, ExtractContextValues(ctx)...)
}
