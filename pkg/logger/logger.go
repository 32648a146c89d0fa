// Package logger provides structured, component-aware logging on top of logrus
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// Logger interface for abstracted logging
type Logger interface {
	Info(message string, fields ...Field)
	Error(message string, fields ...Field)
	Warn(message string, fields ...Field)
	Debug(message string, fields ...Field)
	Success(message string, fields ...Field)
	WithComponent(component string) Logger
}

// Field represents a structured logging field
type Field struct {
	Key   string
	Value interface{}
}

// WithField creates a new field
func WithField(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// WithError creates an error field
func WithError(err error) Field {
	return Field{Key: "error", Value: err}
}

// ComponentLogger implements Logger, tagging every line with the component
// that emitted it.
type ComponentLogger struct {
	logger    *logrus.Logger
	component string
}

// CustomFormatter renders a compact, optionally coloured line per entry
type CustomFormatter struct {
	TimestampFormat string
	DisableColors   bool
}

// Format implements logrus.Formatter
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format(f.TimestampFormat)

	var levelColor *color.Color
	var levelText string

	switch entry.Level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = color.New(color.FgRed, color.Bold)
		levelText = "ERROR"
	case logrus.WarnLevel:
		levelColor = color.New(color.FgYellow, color.Bold)
		levelText = "WARN"
	case logrus.InfoLevel:
		levelColor = color.New(color.FgCyan)
		levelText = "INFO"
	default:
		levelColor = color.New(color.FgWhite, color.Faint)
		levelText = "DEBUG"
	}

	data := make(logrus.Fields, len(entry.Data))
	for k, v := range entry.Data {
		data[k] = v
	}

	prefix := ""
	if component, ok := data["component"]; ok {
		if f.DisableColors {
			prefix = fmt.Sprintf("[%v] ", component)
		} else {
			prefix = fmt.Sprintf("[%s] ", color.New(color.FgBlue).Sprint(component))
		}
		delete(data, "component")
	}

	var b strings.Builder
	if f.DisableColors {
		fmt.Fprintf(&b, "[%s] %s: %s%s", timestamp, levelText, prefix, entry.Message)
	} else {
		fmt.Fprintf(&b, "[%s] %s: %s%s", timestamp, levelColor.Sprint(levelText), prefix, entry.Message)
	}

	if len(data) > 0 {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, data[k])
		}
		fields := " {" + strings.Join(pairs, ", ") + "}"
		if f.DisableColors {
			b.WriteString(fields)
		} else {
			b.WriteString(color.New(color.FgWhite, color.Faint).Sprint(fields))
		}
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// CreateLogger creates a logger writing to stderr, and to logFile when set
func CreateLogger(logFile string, logLevel string) Logger {
	log := logrus.New()
	log.SetLevel(parseLevel(logLevel))
	log.SetFormatter(&CustomFormatter{TimestampFormat: "15:04:05"})
	log.SetOutput(os.Stderr)

	l := &ComponentLogger{logger: log}
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Warn("Logging to stderr only, cannot open log file",
				WithField("file", logFile), WithError(err))
		} else {
			log.SetOutput(io.MultiWriter(os.Stderr, file))
		}
	}

	return l
}

// CreateLoggerWithOutput creates a logger with custom output (for testing)
func CreateLoggerWithOutput(logLevel string, output io.Writer) Logger {
	log := logrus.New()
	log.SetLevel(parseLevel(logLevel))
	log.SetFormatter(&CustomFormatter{
		TimestampFormat: "15:04:05",
		DisableColors:   true,
	})
	log.SetOutput(output)

	return &ComponentLogger{logger: log}
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() Logger {
	return CreateLoggerWithOutput("error", io.Discard)
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// SetLevel changes the verbosity of this logger and every logger derived
// from it.
func (l *ComponentLogger) SetLevel(level string) error {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.logger.SetLevel(parsed)
	return nil
}

// WithComponent creates a new logger tagged with component
func (l *ComponentLogger) WithComponent(component string) Logger {
	return &ComponentLogger{
		logger:    l.logger,
		component: component,
	}
}

func (l *ComponentLogger) entry(fields []Field) *logrus.Entry {
	result := make(logrus.Fields, len(fields)+1)
	if l.component != "" {
		result["component"] = l.component
	}
	for _, f := range fields {
		result[f.Key] = f.Value
	}
	return l.logger.WithFields(result)
}

// Info logs an info message
func (l *ComponentLogger) Info(message string, fields ...Field) {
	l.entry(fields).Info(message)
}

// Error logs an error message
func (l *ComponentLogger) Error(message string, fields ...Field) {
	l.entry(fields).Error(message)
}

// Warn logs a warning message
func (l *ComponentLogger) Warn(message string, fields ...Field) {
	l.entry(fields).Warn(message)
}

// Debug logs a debug message
func (l *ComponentLogger) Debug(message string, fields ...Field) {
	l.entry(fields).Debug(message)
}

// Success logs at info level with a check mark
func (l *ComponentLogger) Success(message string, fields ...Field) {
	l.entry(fields).Info("✅ " + message)
}
