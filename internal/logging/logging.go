// Package logging provides structured logging on zap, with helpers for
// carrying session and turn identifiers through contexts so every log
// line in a turn is correlatable.
package logging

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidConfig indicates invalid logging configuration.
var ErrInvalidConfig = errors.New("invalid logging configuration")

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level to emit: debug, info, warn, error.
	// Empty means info.
	Level string `koanf:"level"`

	// Format is the encoder: json or console. Empty means json.
	Format string `koanf:"format"`
}

// Validate validates the configuration.
func (c Config) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown level %q", ErrInvalidConfig, c.Level)
	}
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, c.Format)
	}
	return nil
}

// Logger wraps zap with context-aware methods that append the session
// and turn fields carried by the context.
type Logger struct {
	zl *zap.Logger
}

// NewLogger builds a logger writing to stderr.
func NewLogger(config Config) (*Logger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	switch config.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, stderr(), level)
	return &Logger{zl: zap.New(core)}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

// Zap exposes the underlying zap logger for libraries that want one.
func (l *Logger) Zap() *zap.Logger {
	return l.zl
}

// Sync flushes buffered log entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

// Debug logs at debug level with context fields appended.
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Debug(msg, append(fields, ContextFields(ctx)...)...)
}

// Info logs at info level with context fields appended.
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Info(msg, append(fields, ContextFields(ctx)...)...)
}

// Warn logs at warn level with context fields appended.
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Warn(msg, append(fields, ContextFields(ctx)...)...)
}

// Error logs at error level with context fields appended.
func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.zl.Error(msg, append(fields, ContextFields(ctx)...)...)
}
