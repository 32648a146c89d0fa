package logger

import (
	"context"
	"time"

	tcontext "github.com/triagekit/triage/pkg/context"
)

// LoggerContext extends Logger with variants that pull tracing fields out
// of a context.
type LoggerContext interface {
	Logger
	InfoContext(ctx context.Context, message string, fields ...Field)
	ErrorContext(ctx context.Context, message string, fields ...Field)
	WarnContext(ctx context.Context, message string, fields ...Field)
	DebugContext(ctx context.Context, message string, fields ...Field)
}

var _ LoggerContext = (*ComponentLogger)(nil)

// InfoContext logs an info message with context tracing
func (l *ComponentLogger) InfoContext(ctx context.Context, message string, fields ...Field) {
	l.Info(message, append(ContextFields(ctx), fields...)...)
}

// ErrorContext logs an error message with context tracing
func (l *ComponentLogger) ErrorContext(ctx context.Context, message string, fields ...Field) {
	l.Error(message, append(ContextFields(ctx), fields...)...)
}

// WarnContext logs a warning message with context tracing
func (l *ComponentLogger) WarnContext(ctx context.Context, message string, fields ...Field) {
	l.Warn(message, append(ContextFields(ctx), fields...)...)
}

// DebugContext logs a debug message with context tracing
func (l *ComponentLogger) DebugContext(ctx context.Context, message string, fields ...Field) {
	l.Debug(message, append(ContextFields(ctx), fields...)...)
}

// ContextFields extracts the tracing fields present in ctx
func ContextFields(ctx context.Context) []Field {
	if ctx == nil {
		return nil
	}

	var fields []Field
	if id, ok := tcontext.SessionID(ctx); ok {
		fields = append(fields, WithField("session", id))
	}
	if id, ok := tcontext.RequestID(ctx); ok {
		fields = append(fields, WithField("request", id))
	}
	if op, ok := tcontext.Operation(ctx); ok {
		fields = append(fields, WithField("op", op))
	}
	if _, ok := tcontext.StartTime(ctx); ok {
		fields = append(fields, WithField("elapsed", tcontext.Elapsed(ctx).Round(time.Microsecond)))
	}
	return fields
}

// WithContext returns a logger that adds ctx's tracing fields to every line
func WithContext(ctx context.Context, log Logger) Logger {
	if ctx == nil {
		return log
	}
	return &contextualLogger{ctx: ctx, logger: log}
}

type contextualLogger struct {
	ctx    context.Context
	logger Logger
}

func (cl *contextualLogger) Info(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.InfoContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Info(message, cl.withContextFields(fields)...)
	}
}

func (cl *contextualLogger) Error(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.ErrorContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Error(message, cl.withContextFields(fields)...)
	}
}

func (cl *contextualLogger) Warn(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.WarnContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Warn(message, cl.withContextFields(fields)...)
	}
}

func (cl *contextualLogger) Debug(message string, fields ...Field) {
	if lc, ok := cl.logger.(LoggerContext); ok {
		lc.DebugContext(cl.ctx, message, fields...)
	} else {
		cl.logger.Debug(message, cl.withContextFields(fields)...)
	}
}

// Success has no context variant
func (cl *contextualLogger) Success(message string, fields ...Field) {
	cl.logger.Success(message, cl.withContextFields(fields)...)
}

func (cl *contextualLogger) WithComponent(component string) Logger {
	return &contextualLogger{ctx: cl.ctx, logger: cl.logger.WithComponent(component)}
}

func (cl *contextualLogger) withContextFields(fields []Field) []Field {
	return append(ContextFields(cl.ctx), fields...)
}
