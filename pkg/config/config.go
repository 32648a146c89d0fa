// Package config handles configuration loading and management
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/triagekit/triage/pkg/types"
	"gopkg.in/yaml.v3"
)

// BaseName is the configuration file name without its extension
const BaseName = "triage.config"

// DefaultFileName is the configuration file written and searched first
const DefaultFileName = BaseName + ".yaml"

// FileName returns the configuration file name for format
func FileName(format Format) string {
	return BaseName + "." + string(format)
}

// SearchNames lists the file names looked up when no path is given, in
// order of preference.
func SearchNames() []string {
	return []string{
		DefaultFileName,
		BaseName + ".yml",
		FileName(FormatJSON),
		FileName(FormatTOML),
	}
}

// Format identifies a configuration file encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the encoding from the file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads configuration from a file. Fields the file leaves out
// keep their default values.
func (m *Manager) LoadConfig(path string) (*types.TriageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := m.Parse(data, path)
	if err != nil {
		return nil, err
	}
	if err := m.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data using the encoding implied by path. Unknown
// extensions are tried as JSON, then YAML, then TOML.
func (m *Manager) Parse(data []byte, path string) (*types.TriageConfig, error) {
	if format, ok := FormatFromPath(path); ok {
		cfg := m.GetDefaultConfig()
		if err := decode(format, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s config: %w", format, err)
		}
		return cfg, nil
	}

	for _, format := range []Format{FormatJSON, FormatYAML, FormatTOML} {
		cfg := m.GetDefaultConfig()
		if err := decode(format, data, cfg); err == nil {
			return cfg, nil
		}
	}
	return nil, fmt.Errorf("failed to parse config as JSON, YAML or TOML")
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(cfg *types.TriageConfig) error {
	if cfg.Version != types.ConfigVersion {
		return fmt.Errorf("unsupported config version: %q", cfg.Version)
	}
	if err := cfg.Queue.Validate(); err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if cfg.Logging != nil && cfg.Logging.Level != "" && !cfg.Logging.Level.IsValid() {
		return fmt.Errorf("logging: unknown level %q", cfg.Logging.Level)
	}
	return nil
}

// SaveConfig writes cfg to path in the encoding implied by its extension
func (m *Manager) SaveConfig(path string, cfg *types.TriageConfig) error {
	format, ok := FormatFromPath(path)
	if !ok {
		return fmt.Errorf("unsupported config extension: %q", filepath.Ext(path))
	}

	data, err := encode(format, cfg)
	if err != nil {
		return fmt.Errorf("failed to encode %s config: %w", format, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetDefaultConfig returns the stock configuration: a 100-place queue on a
// 0..10 scale, alerts from severity 9, first come first served among equals.
func (m *Manager) GetDefaultConfig() *types.TriageConfig {
	enabled := false

	return &types.TriageConfig{
		Version: types.ConfigVersion,
		Queue: types.QueueConfig{
			Capacity:         100,
			MinSeverity:      0,
			MaxSeverity:      10,
			CriticalSeverity: 9,
			FIFOTies:         true,
		},
		Notifications: &types.NotificationConfig{
			Enabled: &enabled,
		},
		Logging: &types.LoggingConfig{
			Level: types.LogLevelWarn,
		},
	}
}

func decode(format Format, data []byte, cfg *types.TriageConfig) error {
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(cfg)
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(cfg)
	}
	return fmt.Errorf("unknown format %q", format)
}

func encode(format Format, cfg *types.TriageConfig) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}
