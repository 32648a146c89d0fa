// Package context carries session and request identifiers through triage
// operations so log lines can be correlated.
package context

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const (
	sessionIDKey ctxKey = iota
	requestIDKey
	operationKey
	startTimeKey
)

// WithSessionID tags ctx with a session ID, generating one when empty
func WithSessionID(parent context.Context, id string) context.Context {
	if id == "" {
		id = NewSessionID()
	}
	return context.WithValue(parent, sessionIDKey, id)
}

// SessionID returns the session ID carried by ctx
func SessionID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionIDKey).(string)
	return id, ok && id != ""
}

// WithRequestID tags ctx with a request ID, generating one when empty
func WithRequestID(parent context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(parent, requestIDKey, id)
}

// RequestID returns the request ID carried by ctx
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// WithOperation names the operation in progress
func WithOperation(parent context.Context, op string) context.Context {
	return context.WithValue(parent, operationKey, op)
}

// Operation returns the operation name carried by ctx
func Operation(ctx context.Context) (string, bool) {
	op, ok := ctx.Value(operationKey).(string)
	return op, ok && op != ""
}

// WithStartTime records when the operation started
func WithStartTime(parent context.Context, t time.Time) context.Context {
	return context.WithValue(parent, startTimeKey, t)
}

// StartTime returns the recorded operation start
func StartTime(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(startTimeKey).(time.Time)
	return t, ok
}

// Elapsed returns the time since the recorded start, or 0 when none is set
func Elapsed(ctx context.Context) time.Duration {
	t, ok := StartTime(ctx)
	if !ok {
		return 0
	}
	return time.Since(t)
}

// NewSessionID creates a new unique session ID
func NewSessionID() string {
	return "ses_" + uuid.NewString()
}

// NewRequestID creates a new unique request ID
func NewRequestID() string {
	return "req_" + uuid.NewString()
}

// ForOperation derives a request-scoped context for op
func ForOperation(parent context.Context, op string) context.Context {
	ctx := WithRequestID(parent, "")
	ctx = WithOperation(ctx, op)
	return WithStartTime(ctx, time.Now())
}
