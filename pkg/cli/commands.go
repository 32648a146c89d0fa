package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/triagekit/triage/internal/runner"
	"github.com/triagekit/triage/pkg/config"
	"github.com/triagekit/triage/pkg/logger"
	"github.com/triagekit/triage/pkg/notifier"
	"github.com/triagekit/triage/pkg/triage"
	"github.com/triagekit/triage/pkg/types"
)

func (c *CLI) newSessionCmd() *cobra.Command {
	var watchConfig bool
	var noBoard bool

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Run the interactive front desk",
		Long: `Start an interactive session. Admit, treat and re-grade patients by typing
commands; the queue is shown after every change. Type "help" for commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSession(cmd, watchConfig, !noBoard)
		},
	}

	cmd.Flags().BoolVarP(&watchConfig, "watch-config", "w", false, "reload the config file when it changes")
	cmd.Flags().BoolVar(&noBoard, "no-board", false, "do not print the queue after every change")
	return cmd
}

func (c *CLI) newRunCmd() *cobra.Command {
	var showBoard bool

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute front desk commands from a file",
		Long:  `Execute session commands from FILE, or from standard input when FILE is "-".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScript(cmd, args[0], showBoard)
		},
	}

	cmd.Flags().BoolVar(&showBoard, "show-board", false, "print the queue after every change")
	return cmd
}

func (c *CLI) newInitCmd() *cobra.Command {
	var format string
	var dir string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(cmd, config.Format(format), dir, force)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(config.FormatYAML), "file format (yaml, json, toml)")
	cmd.Flags().StringVar(&dir, "dir", ".", "directory to write the configuration to")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	return cmd
}

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd)
		},
	}
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of triage",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "triage v%s\n", c.config.Version)
		},
	}
}

func (c *CLI) runSession(cmd *cobra.Command, watchConfig, autoBoard bool) error {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return err
	}
	desk, alerts, log, err := c.buildDesk(cfg)
	if err != nil {
		return err
	}

	rc := NewRuntimeConfig(c.config, cmd.Context())
	in := cmd.InOrStdin()
	out := cmd.OutOrStdout()

	session := NewSession(desk, out)
	session.autoBoard = autoBoard
	session.prompt = isTerminal(in)
	session.colors = isTerminal(out)

	if session.prompt {
		fmt.Fprintln(out, "Emergency Room Patient Management System")
		fmt.Fprintln(out, sessionHelp)
	}

	if !watchConfig || path == "" {
		if watchConfig {
			log.Warn("No config file to watch, running on defaults")
		}
		return ignoreInterrupt(session.Run(rc.Context, in))
	}

	reload := config.NewReloadManager(path, log)
	reload.AddCallback(c.applyReload(desk, alerts, log))

	group, ctx := runner.NewSafeGroup(rc.Context, log)
	group.Go(func() error {
		if err := session.Run(ctx, in); err != nil {
			return err
		}
		return errSessionClosed
	})
	group.Go(func() error {
		return reload.Run(ctx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, errSessionClosed) {
		return ignoreInterrupt(err)
	}
	return nil
}

// ignoreInterrupt treats a cancelled session, such as Ctrl-C, as a normal
// exit.
func ignoreInterrupt(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyReload pushes a reloaded config into the running session
func (c *CLI) applyReload(desk *triage.Desk, alerts *notifier.AlertNotifier, log logger.Logger) func(*types.TriageConfig, error) {
	return func(cfg *types.TriageConfig, err error) {
		if err != nil {
			log.Error("Keeping previous configuration", logger.WithError(err))
			return
		}
		if err := desk.ApplyConfig(cfg.Queue); err != nil {
			log.Error("Rejected reloaded configuration", logger.WithError(err))
			return
		}
		alerts.Configure(notifier.Config{
			Enabled: cfg.Notifications.IsEnabled(),
			Sound:   cfg.Notifications != nil && cfg.Notifications.Sound,
		})
		if cl, ok := log.(*logger.ComponentLogger); ok {
			if err := cl.SetLevel(c.verbosity(cfg)); err != nil {
				log.Warn("Keeping previous log level", logger.WithError(err))
			}
		}
	}
}

func (c *CLI) runScript(cmd *cobra.Command, file string, showBoard bool) error {
	cfg, _, err := c.loadConfig()
	if err != nil {
		return err
	}
	desk, _, _, err := c.buildDesk(cfg)
	if err != nil {
		return err
	}

	var in io.Reader = cmd.InOrStdin()
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()
		in = f
	}

	rc := NewRuntimeConfig(c.config, cmd.Context())
	session := NewSession(desk, cmd.OutOrStdout())
	session.autoBoard = showBoard
	return session.Run(rc.Context, in)
}

func (c *CLI) runInit(cmd *cobra.Command, format config.Format, dir string, force bool) error {
	switch format {
	case config.FormatJSON, config.FormatYAML, config.FormatTOML:
	default:
		return fmt.Errorf("unsupported format %q (want yaml, json or toml)", format)
	}

	path := c.defaultInitPath(dir, format)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration already exists at %s. Use --force to overwrite", path)
	}

	manager := config.NewManager()
	if err := manager.SaveConfig(path, manager.GetDefaultConfig()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration at %s\n", path)
	return nil
}

func (c *CLI) runValidate(cmd *cobra.Command) error {
	cfg, path, err := c.loadConfig()
	if err != nil {
		c.logger.Error("Configuration is invalid", logger.WithError(err))
		return err
	}

	source := path
	if source == "" {
		source = "built-in defaults"
	}
	capacity := "unbounded"
	if cfg.Queue.Capacity > 0 {
		capacity = fmt.Sprintf("%d", cfg.Queue.Capacity)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration is valid (%s)\n", source)
	fmt.Fprintf(out, "  capacity: %s\n", capacity)
	fmt.Fprintf(out, "  severity: %d..%d (critical from %d)\n",
		cfg.Queue.MinSeverity, cfg.Queue.MaxSeverity, cfg.Queue.CriticalSeverity)
	fmt.Fprintf(out, "  equal severities: %s\n", tieRule(cfg.Queue.FIFOTies))
	return nil
}

func tieRule(fifo bool) string {
	if fifo {
		return "first come, first served"
	}
	return "unordered"
}

func isTerminal(stream interface{}) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
