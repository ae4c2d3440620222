package logging

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ctxKey is the private type for context keys in this package.
type ctxKey int

const (
	sessionIDKey ctxKey = iota
	turnIDKey
)

// WithSessionID returns a context carrying the session identifier.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// WithTurnID returns a context carrying the turn identifier.
func WithTurnID(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnIDKey, turnID)
}

// SessionID returns the session identifier from ctx, or "".
func SessionID(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

// ContextFields extracts log fields from a context.
// Returns nil when the context carries no identifiers.
func ContextFields(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	var fields []zap.Field
	if v, ok := ctx.Value(sessionIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("session_id", v))
	}
	if v, ok := ctx.Value(turnIDKey).(string); ok && v != "" {
		fields = append(fields, zap.String("turn_id", v))
	}
	return fields
}

func stderr() zapcore.WriteSyncer {
	return os.Stderr
}
