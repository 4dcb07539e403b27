package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/mcp"
	"github.com/Aman-CERP/shotmcp/internal/screenshot"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server on stdio.

The screenshot counter is seeded from the screenshots directory before the
first request is accepted. stdout carries JSON-RPC only; console logs go to
stderr and every tool call is recorded in logs/mcp_actions.log.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, opts, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport type (default from config: stdio)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *globalOptions, transport string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if transport != "" {
		cfg.Server.Transport = transport
	}
	// stdout belongs to JSON-RPC.
	a, err := newApp(cmd, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	counter := screenshot.NewCounter(screenshot.WithLogger(a.logger.Logger))
	dir := cfg.ScreenshotsDir()
	highest, err := counter.InitializeFromExisting(dir)
	if err != nil {
		a.logger.Error("counter initialization failed", shoterrors.FormatForLog(err)...)
		return err
	}
	a.logger.Info("counter initialized",
		slog.String("dir", dir),
		slog.Uint64("highest", highest))

	srv, err := mcp.NewServer(counter, a.logs, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := srv.Serve(ctx, cfg.Server.Transport); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
