package cli

import (
	"context"
	"time"

	tcontext "github.com/triagekit/triage/pkg/context"
)

// Config holds the CLI settings bound to persistent flags
type Config struct {
	ConfigFile string
	Verbosity  string
	Version    string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{}
}

// RuntimeConfig carries per-invocation state for commands
type RuntimeConfig struct {
	Config    *Config
	Context   context.Context
	StartTime time.Time
}

// NewRuntimeConfig creates a runtime configuration whose context carries a
// fresh session ID.
func NewRuntimeConfig(cfg *Config, ctx context.Context) *RuntimeConfig {
	if ctx == nil {
		ctx = context.Background()
	}
	return &RuntimeConfig{
		Config:    cfg,
		Context:   tcontext.WithSessionID(ctx, ""),
		StartTime: time.Now(),
	}
}
