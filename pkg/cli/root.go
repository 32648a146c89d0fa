// Package cli provides the command-line interface for triage
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/triagekit/triage/pkg/config"
	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/notifier"
	"github.com/triagekit/triage/pkg/triage"
	"github.com/triagekit/triage/pkg/types"
)

// defaultVerbosity keeps routine desk logging off the interactive screen
const defaultVerbosity = "warn"

// CLI encapsulates the command tree and its dependencies
type CLI struct {
	config   *Config
	viper    *viper.Viper
	rootCmd  *cobra.Command
	logger   logger.Logger
	output   io.Writer
	errorOut io.Writer
	input    io.Reader
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(cfg *Config) *CLI {
	if cfg == nil {
		cfg = NewConfig()
	}

	c := &CLI{
		config:   cfg,
		viper:    viper.New(),
		output:   os.Stdout,
		errorOut: os.Stderr,
		input:    os.Stdin,
	}
	c.setupCommands()
	return c
}

// NewCLIWithIO creates a CLI with custom streams (for testing)
func NewCLIWithIO(cfg *Config, input io.Reader, output, errorOut io.Writer) *CLI {
	c := NewCLI(cfg)
	c.input = input
	c.output = output
	c.errorOut = errorOut
	c.rootCmd.SetIn(input)
	c.rootCmd.SetOut(output)
	c.rootCmd.SetErr(errorOut)
	return c
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	return c.ExecuteContext(context.Background(), args)
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "triage",
		Short: "Severity-ordered patient queue for the emergency room front desk",
		Long: `triage keeps waiting patients ordered by severity so the most urgent
one is always treated next. Severities can be revised while patients wait.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.initializeConfig,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	flags := c.rootCmd.PersistentFlags()
	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: triage.config.{yaml,json,toml} in the working directory)")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", "", "log level (debug, info, warn, error)")
	flags.Int("capacity", 0, "override the queue capacity (0 keeps the configured value)")

	c.viper.BindPFlag("config", flags.Lookup("config"))
	c.viper.BindPFlag("verbosity", flags.Lookup("verbosity"))
	c.viper.BindPFlag("queue.capacity", flags.Lookup("capacity"))

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("triage v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newSessionCmd())
	c.rootCmd.AddCommand(c.newRunCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newValidateCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper.SetEnvPrefix("TRIAGE")
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()

	c.logger = logger.CreateLoggerWithOutput(c.verbosity(nil), c.errorOut)
	return nil
}

// verbosity resolves the log level: flag or TRIAGE_VERBOSITY first, then
// the config file, then the default.
func (c *CLI) verbosity(cfg *types.TriageConfig) string {
	if v := c.viper.GetString("verbosity"); v != "" {
		return v
	}
	if cfg != nil && cfg.Logging != nil && cfg.Logging.Level != "" {
		return string(cfg.Logging.Level)
	}
	return defaultVerbosity
}

// configPath returns the config file in use, or "" when running on
// defaults.
func (c *CLI) configPath() (string, error) {
	if path := c.viper.GetString("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}

	for _, name := range config.SearchNames() {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// loadConfig reads the config file if there is one and applies
// flag and environment overrides.
func (c *CLI) loadConfig() (*types.TriageConfig, string, error) {
	manager := config.NewManager()

	path, err := c.configPath()
	if err != nil {
		return nil, "", err
	}

	cfg := manager.GetDefaultConfig()
	if path != "" {
		cfg, err = manager.LoadConfig(path)
		if err != nil {
			return nil, "", err
		}
	}

	if c.viper.IsSet("queue.capacity") {
		if capacity := c.viper.GetInt("queue.capacity"); capacity > 0 {
			cfg.Queue.Capacity = capacity
		}
	}
	if err := manager.ValidateConfig(cfg); err != nil {
		return nil, "", err
	}

	return cfg, path, nil
}

// buildDesk wires logger, notifier and desk for cfg
func (c *CLI) buildDesk(cfg *types.TriageConfig) (*triage.Desk, *notifier.AlertNotifier, logger.Logger, error) {
	logFile := ""
	if cfg.Logging != nil {
		logFile = cfg.Logging.File
	}

	var log logger.Logger
	if logFile != "" {
		log = logger.CreateLogger(logFile, c.verbosity(cfg))
	} else {
		log = logger.CreateLoggerWithOutput(c.verbosity(cfg), c.errorOut)
	}

	sound := cfg.Notifications != nil && cfg.Notifications.Sound
	n := notifier.New(notifier.Config{
		Enabled: cfg.Notifications.IsEnabled(),
		Sound:   sound,
	}, log.WithComponent("notifier"))

	desk, err := triage.NewDesk(cfg.Queue, log, n)
	if err != nil {
		return nil, nil, nil, err
	}
	return desk, n, log, nil
}

func (c *CLI) defaultInitPath(dir string, format config.Format) string {
	return filepath.Join(dir, config.FileName(format))
}

// ExecuteWithVersion runs the CLI against os.Args
func ExecuteWithVersion(ctx context.Context, version string) error {
	cfg := NewConfig()
	cfg.Version = version
	return NewCLI(cfg).ExecuteContext(ctx, os.Args[1:])
}
