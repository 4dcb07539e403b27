// Package cmd provides the CLI commands for shotmcp.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/shotmcp/internal/config"
	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/logging"
	"github.com/Aman-CERP/shotmcp/pkg/version"
)

// appLoggerName is the logger used for the CLI's own diagnostics.
const appLoggerName = "shotmcp"

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	root     string
	logLevel string
}

// NewRootCmd creates the root command for shotmcp CLI.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "shotmcp",
		Short: "Sequential screenshot indices and action logs for MCP hosts",
		Long: `shotmcp hands out gapless, monotonically increasing screenshot indices
to MCP clients and records every tool call in a size-bounded rotating log.

On startup the counter is seeded from the highest index already present in
the screenshots directory, so numbering continues across restarts.

Run 'shotmcp serve' to start the MCP server on stdio.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("shotmcp version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&opts.root, "root", "", "Application root (default: $SHOTMCP_ROOT or the enclosing project)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warning, error, critical")

	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newNextCmd(opts))
	cmd.AddCommand(newLogsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, shoterrors.FormatForCLI(err))
	}
	return err
}

// resolveRoot picks the application root: --root, then SHOTMCP_ROOT, then
// the project enclosing the working directory.
func (o *globalOptions) resolveRoot() (string, error) {
	if o.root != "" {
		return o.root, nil
	}
	if env := os.Getenv("SHOTMCP_ROOT"); env != "" {
		return env, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", shoterrors.New(shoterrors.ErrCodeInvalidPath, "failed to determine working directory", err)
	}
	return config.FindProjectRoot(wd)
}

// loadConfig loads configuration for the resolved root and applies flags.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	root, err := o.resolveRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// app bundles what a running command needs: configuration, the log
// registry and the CLI logger.
type app struct {
	cfg    *config.Config
	logs   *logging.Registry
	logger *logging.Logger
}

// newApp opens the log registry for cfg. stdout and stderr resolve to the
// command's streams so output can be captured. When reserveStdout is set the
// command writes machine-readable output, and a stdout console moves to stderr.
func newApp(cmd *cobra.Command, cfg *config.Config, reserveStdout bool) (*app, error) {
	logCfg := cfg.LogConfig()
	switch cfg.Logging.Console {
	case config.ConsoleStdout:
		logCfg.Console = cmd.OutOrStdout()
		if reserveStdout {
			logCfg.Console = cmd.ErrOrStderr()
		}
	case config.ConsoleStderr:
		logCfg.Console = cmd.ErrOrStderr()
	default:
		logCfg.Console = io.Discard
	}

	logs := logging.NewRegistry(logCfg)
	logger, err := logs.ConfigureLogger(appLoggerName, logging.LevelFromString(cfg.Logging.Level))
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logs: logs, logger: logger}, nil
}

// Close flushes the log file.
func (a *app) Close() error {
	return a.logs.Close()
}
