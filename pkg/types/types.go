// Package types provides the configuration types shared by triage packages
package types

import "fmt"

// ConfigVersion is the only configuration schema version understood
const ConfigVersion = "1.0"

// LogLevel represents logging verbosity levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid reports whether the level is one of the known levels
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	}
	return false
}

// TriageConfig is the root configuration document
type TriageConfig struct {
	Version       string              `json:"version" yaml:"version" toml:"version"`
	Queue         QueueConfig         `json:"queue" yaml:"queue" toml:"queue"`
	Notifications *NotificationConfig `json:"notifications,omitempty" yaml:"notifications,omitempty" toml:"notifications,omitempty"`
	Logging       *LoggingConfig      `json:"logging,omitempty" yaml:"logging,omitempty" toml:"logging,omitempty"`
}

// QueueConfig configures the admission queue
type QueueConfig struct {
	// Capacity bounds the queue; 0 lets it grow.
	Capacity         int  `json:"capacity" yaml:"capacity" toml:"capacity"`
	MinSeverity      int  `json:"minSeverity" yaml:"minSeverity" toml:"min_severity"`
	MaxSeverity      int  `json:"maxSeverity" yaml:"maxSeverity" toml:"max_severity"`
	CriticalSeverity int  `json:"criticalSeverity" yaml:"criticalSeverity" toml:"critical_severity"`
	FIFOTies         bool `json:"fifoTies" yaml:"fifoTies" toml:"fifo_ties"`
	UniqueNames      bool `json:"uniqueNames" yaml:"uniqueNames" toml:"unique_names"`
	Indexed          bool `json:"indexed" yaml:"indexed" toml:"indexed"`
}

// Validate checks the queue bounds for consistency
func (q QueueConfig) Validate() error {
	if q.Capacity < 0 {
		return fmt.Errorf("capacity must not be negative: %d", q.Capacity)
	}
	if q.MinSeverity >= q.MaxSeverity {
		return fmt.Errorf("minSeverity %d must be below maxSeverity %d", q.MinSeverity, q.MaxSeverity)
	}
	if q.CriticalSeverity < q.MinSeverity || q.CriticalSeverity > q.MaxSeverity {
		return fmt.Errorf("criticalSeverity %d outside [%d, %d]",
			q.CriticalSeverity, q.MinSeverity, q.MaxSeverity)
	}
	return nil
}

// InRange reports whether severity lies in the configured closed range
func (q QueueConfig) InRange(severity int) bool {
	return severity >= q.MinSeverity && severity <= q.MaxSeverity
}

// NotificationConfig configures desktop alerts for critical admissions
type NotificationConfig struct {
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty" toml:"enabled,omitempty"`
	Sound   bool  `json:"sound,omitempty" yaml:"sound,omitempty" toml:"sound,omitempty"`
}

// IsEnabled returns whether notifications are enabled. Unset means off.
func (n *NotificationConfig) IsEnabled() bool {
	if n == nil || n.Enabled == nil {
		return false
	}
	return *n.Enabled
}

// LoggingConfig configures log output
type LoggingConfig struct {
	Level LogLevel `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	File  string   `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
}
