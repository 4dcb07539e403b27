package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/logging"
	"github.com/Aman-CERP/shotmcp/internal/ui"
)

type logsOptions struct {
	follow  bool
	lines   int
	level   string
	filter  string
	logger  string
	noColor bool
	logFile string
}

func newLogsCmd(global *globalOptions) *cobra.Command {
	opts := logsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the MCP action log",
		Long: `View and tail the MCP action log (<root>/logs/mcp_actions.log).

By default, shows the last 50 lines. Use -f to follow new entries in
real-time (like 'tail -f'); rotation is followed automatically.

Examples:
  shotmcp logs                          # Show last 50 lines
  shotmcp logs -n 200                   # Show last 200 lines
  shotmcp logs -f                       # Follow logs in real-time
  shotmcp logs --level warning          # Warnings and above
  shotmcp logs --logger shotmcp.next    # One action's entries
  shotmcp logs --filter "count=5"       # Filter by pattern`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.logFile
			if path == "" {
				root, err := global.resolveRoot()
				if err != nil {
					return err
				}
				path = logging.LogPath(root)
			}
			return runLogs(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), path, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.follow, "follow", "f", false, "Follow log output (like tail -f)")
	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Minimum level (debug|info|warning|error|critical)")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "Filter by keyword/pattern (regex)")
	cmd.Flags().StringVar(&opts.logger, "logger", "", "Filter by logger name prefix")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file")

	return cmd
}

func runLogs(ctx context.Context, out, status io.Writer, path string, opts logsOptions) error {
	if opts.level != "" && !logging.ValidLevel(opts.level) {
		return shoterrors.New(shoterrors.ErrCodeInvalidLevel,
			fmt.Sprintf("unknown level %q", opts.level), nil).
			WithSuggestion("Use one of debug, info, warning, error, critical.")
	}

	var pattern *regexp.Regexp
	if opts.filter != "" {
		var err error
		pattern, err = regexp.Compile(opts.filter)
		if err != nil {
			return shoterrors.ValidationError("invalid filter pattern", err)
		}
	}

	path, err := logging.FindLogFile(path, "")
	if err != nil {
		return shoterrors.New(shoterrors.ErrCodeFileNotFound, err.Error(), err).
			WithSuggestion("Run 'shotmcp serve' first, or pass --file.")
	}

	viewer := logging.NewViewer(logging.ViewerConfig{
		Level:   opts.level,
		Pattern: pattern,
		Logger:  opts.logger,
		NoColor: !ui.UseColor(out, opts.noColor),
	}, out)

	fmt.Fprintf(status, "Log file: %s\n", path)
	if opts.follow {
		fmt.Fprintf(status, "Following... (Ctrl+C to stop)\n")
	}
	fmt.Fprintln(status, "---")

	if opts.follow {
		return runFollow(ctx, viewer, out, status, path)
	}

	entries, err := viewer.Tail(path, opts.lines)
	if err != nil {
		return err
	}
	viewer.Print(entries)
	return nil
}

func runFollow(ctx context.Context, viewer *logging.Viewer, out, status io.Writer, path string) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries := make(chan logging.LogEntry, 100)
	errCh := make(chan error, 1)

	go func() {
		errCh <- viewer.Follow(ctx, path, entries)
	}()

	for {
		select {
		case entry := <-entries:
			fmt.Fprintln(out, viewer.FormatEntry(entry))
		case err := <-errCh:
			return err
		case <-ctx.Done():
			fmt.Fprintln(status, "\n---")
			fmt.Fprintln(status, "Stopped.")
			return nil
		}
	}
}
