package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// RequestIDKey carries the HTTP request id
	RequestIDKey ContextKey = "request_id"
	// ScanIDKey carries the id of one watcher scan
	ScanIDKey ContextKey = "scan_id"
)

// Fields is re-exported so callers need not import logrus.
type Fields = logrus.Fields

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, text
	Output io.Writer
}

var std = logrus.New()

// Init configures the package logger. Unknown levels fall back to info.
func Init(cfg *Config) {
	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	std.SetLevel(level)

	if cfg.Format == "json" {
		std.SetFormatter(&logrus.JSONFormatter{})
	} else {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.Output != nil {
		std.SetOutput(cfg.Output)
	} else {
		std.SetOutput(os.Stdout)
	}
}

// Logger returns the underlying logrus logger, e.g. for Fatalf in commands.
func Logger() *logrus.Logger {
	return std
}

// WithRequestID stores id for WithContext.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// WithScanID stores id for WithContext.
func WithScanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ScanIDKey, id)
}

// WithContext returns an entry carrying the ids stored in ctx
func WithContext(ctx context.Context) *logrus.Entry {
	entry := logrus.NewEntry(std)
	if ctx == nil {
		return entry
	}
	if id, ok := ctx.Value(RequestIDKey).(string); ok && id != "" {
		entry = entry.WithField(string(RequestIDKey), id)
	}
	if id, ok := ctx.Value(ScanIDKey).(string); ok && id != "" {
		entry = entry.WithField(string(ScanIDKey), id)
	}
	return entry
}

func Info(ctx context.Context, msg string, fields Fields) {
	WithContext(ctx).WithFields(fields).Info(msg)
}

func Debug(ctx context.Context, msg string, fields Fields) {
	WithContext(ctx).WithFields(fields).Debug(msg)
}

func Warn(ctx context.Context, msg string, fields Fields) {
	WithContext(ctx).WithFields(fields).Warn(msg)
}

func Error(ctx context.Context, msg string, fields Fields) {
	WithContext(ctx).WithFields(fields).Error(msg)
}
