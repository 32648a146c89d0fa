// Package mocks provides recording implementations of the desk's
// collaborators for tests.
package mocks

import (
	"sync"
	"time"

	"github.com/triagekit/triage/pkg/logger"
)

// Alert is one notification received by MockNotifier
type Alert struct {
	Kind     string
	Name     string
	Severity int
	Waiting  int
	Capacity int
	Waited   time.Duration
}

// Alert kinds
const (
	AlertCritical  = "critical"
	AlertEscalated = "escalated"
	AlertPressure  = "pressure"
	AlertTreated   = "treated"
)

// MockNotifier records every alert it is asked to raise
type MockNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

// NewMockNotifier creates an empty notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyCritical records a critical admission
func (m *MockNotifier) NotifyCritical(name string, severity int) {
	m.record(Alert{Kind: AlertCritical, Name: name, Severity: severity})
}

// NotifyEscalated records a critical re-grade
func (m *MockNotifier) NotifyEscalated(name string, severity int) {
	m.record(Alert{Kind: AlertEscalated, Name: name, Severity: severity})
}

// NotifyQueuePressure records a near-full queue
func (m *MockNotifier) NotifyQueuePressure(waiting, capacity int) {
	m.record(Alert{Kind: AlertPressure, Waiting: waiting, Capacity: capacity})
}

// NotifyTreated records a treated patient
func (m *MockNotifier) NotifyTreated(name string, severity int, waited time.Duration) {
	m.record(Alert{Kind: AlertTreated, Name: name, Severity: severity, Waited: waited})
}

// Alerts returns a copy of the recorded alerts
func (m *MockNotifier) Alerts() []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Names returns the patient names of alerts of the given kind, in order
func (m *MockNotifier) Names(kind string) []string {
	var names []string
	for _, a := range m.Alerts() {
		if a.Kind == kind {
			names = append(names, a.Name)
		}
	}
	return names
}

// Count returns how many alerts of the given kind were raised
func (m *MockNotifier) Count(kind string) int {
	n := 0
	for _, a := range m.Alerts() {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func (m *MockNotifier) record(a Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
}

// LogEntry is one message received by MockLogger
type LogEntry struct {
	Level     string
	Component string
	Message   string
	Fields    map[string]interface{}
}

// MockLogger records log calls. Loggers derived with WithComponent share
// the same record.
type MockLogger struct {
	component string
	sink      *logSink
}

type logSink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMockLogger creates a recording logger
func NewMockLogger() *MockLogger {
	return &MockLogger{sink: &logSink{}}
}

// Info records an info message
func (l *MockLogger) Info(message string, fields ...logger.Field) {
	l.record("info", message, fields)
}

// Error records an error message
func (l *MockLogger) Error(message string, fields ...logger.Field) {
	l.record("error", message, fields)
}

// Warn records a warning
func (l *MockLogger) Warn(message string, fields ...logger.Field) {
	l.record("warn", message, fields)
}

// Debug records a debug message
func (l *MockLogger) Debug(message string, fields ...logger.Field) {
	l.record("debug", message, fields)
}

// Success records a success message
func (l *MockLogger) Success(message string, fields ...logger.Field) {
	l.record("success", message, fields)
}

// WithComponent returns a logger tagging entries with component
func (l *MockLogger) WithComponent(component string) logger.Logger {
	return &MockLogger{component: component, sink: l.sink}
}

// Entries returns a copy of every recorded entry
func (l *MockLogger) Entries() []LogEntry {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make([]LogEntry, len(l.sink.entries))
	copy(out, l.sink.entries)
	return out
}

// Find returns the first entry with the given message
func (l *MockLogger) Find(message string) (LogEntry, bool) {
	for _, e := range l.Entries() {
		if e.Message == message {
			return e, true
		}
	}
	return LogEntry{}, false
}

func (l *MockLogger) record(level, message string, fields []logger.Field) {
	entry := LogEntry{
		Level:     level,
		Component: l.component,
		Message:   message,
		Fields:    make(map[string]interface{}, len(fields)),
	}
	for _, f := range fields {
		entry.Fields[f.Key] = f.Value
	}

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.entries = append(l.sink.entries, entry)
}
