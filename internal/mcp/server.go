package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/shotmcp/internal/config"
	"github.com/Aman-CERP/shotmcp/internal/logging"
	"github.com/Aman-CERP/shotmcp/internal/screenshot"
	"github.com/Aman-CERP/shotmcp/pkg/version"
)

// Server is the MCP server for shotmcp.
// It hands out screenshot indices to MCP clients and records every call in
// the action log.
type Server struct {
	mcp     *mcp.Server
	counter *screenshot.Counter
	logs    *logging.Registry
	config  *config.Config
	logger  *slog.Logger

	// now is replaced in tests.
	now func() time.Time
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server around counter. Tool calls are logged
// through action loggers of logs.
func NewServer(counter *screenshot.Counter, logs *logging.Registry, cfg *config.Config) (*Server, error) {
	if counter == nil {
		return nil, errors.New("screenshot counter is required")
	}
	if logs == nil {
		return nil, errors.New("log registry is required")
	}
	if cfg == nil {
		cfg = config.NewConfig(".")
	}

	s := &Server{
		counter: counter,
		logs:    logs,
		config:  cfg,
		logger:  logs.Logger(cfg.Server.Name).Logger,
		now:     time.Now,
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    cfg.Server.Name,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return s.config.Server.Name, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        ToolNextIndex,
			Description: "Allocate the next sequential screenshot index (or a batch of up to 100). Indices are unique and gapless for the lifetime of the server. Returns each index with a suggested PNG file name.",
		},
		{
			Name:        ToolCounterStatus,
			Description: "Report the last allocated screenshot index and the directory it was seeded from. Does not allocate.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolNextIndex:
		input, err := nextIndexInputFromArgs(args)
		if err != nil {
			return nil, err
		}
		return s.handleNextIndex(ctx, input)
	case ToolCounterStatus:
		return s.handleCounterStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleNextIndex allocates input.Count indices.
func (s *Server) handleNextIndex(ctx context.Context, input NextIndexInput) (*NextIndexOutput, error) {
	count := input.Count
	// Omitted and zero are indistinguishable after schema decoding.
	if count == 0 {
		count = 1
	}
	if count < 1 || count > MaxBatch {
		return nil, NewInvalidParamsError(fmt.Sprintf("count must be between 1 and %d, got %d", MaxBatch, input.Count))
	}
	if err := ctx.Err(); err != nil {
		return nil, MapError(err)
	}

	requestID := generateRequestID()
	log := s.actionLogger(ToolNextIndex)

	out := &NextIndexOutput{
		Indices:   make([]uint64, 0, count),
		Filenames: make([]string, 0, count),
	}
	for range count {
		index, name := s.counter.NextFilename(s.now())
		out.Indices = append(out.Indices, index)
		out.Filenames = append(out.Filenames, name)
	}

	log.Info("allocated screenshot indices",
		slog.String("request_id", requestID),
		slog.Int("count", count),
		slog.Uint64("first", out.Indices[0]),
		slog.Uint64("last", out.Indices[len(out.Indices)-1]))

	return out, nil
}

// handleCounterStatus reports the counter without mutating it.
func (s *Server) handleCounterStatus(ctx context.Context) (*CounterStatusOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, MapError(err)
	}

	out := &CounterStatusOutput{
		Current:        s.counter.Current(),
		ScreenshotsDir: s.config.ScreenshotsDir(),
	}
	s.actionLogger(ToolCounterStatus).Debug("counter status",
		slog.Uint64("current", out.Current))

	return out, nil
}

// actionLogger returns the action logger for tool, falling back to the
// server logger when the log file cannot be opened.
func (s *Server) actionLogger(tool string) *slog.Logger {
	l, err := s.logs.ActionLogger(tool, s.config.Server.Name)
	if err != nil {
		s.logger.Warn("action logger unavailable",
			slog.String("tool", tool),
			slog.String("error", err.Error()))
		return s.logger
	}
	return l.Logger
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	tools := s.ListTools()

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tools[0].Name,
		Description: tools[0].Description,
	}, s.mcpNextIndexHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tools[1].Name,
		Description: tools[1].Description,
	}, s.mcpCounterStatusHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// mcpNextIndexHandler is the MCP SDK handler for the next_screenshot_index tool.
func (s *Server) mcpNextIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, input NextIndexInput) (
	*mcp.CallToolResult,
	*NextIndexOutput,
	error,
) {
	output, err := s.handleNextIndex(ctx, input)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, output, nil
}

// mcpCounterStatusHandler is the MCP SDK handler for the screenshot_counter_status tool.
func (s *Server) mcpCounterStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ CounterStatusInput) (
	*mcp.CallToolResult,
	*CounterStatusOutput,
	error,
) {
	output, err := s.handleCounterStatus(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, output, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server",
		slog.String("transport", transport),
		slog.Uint64("current_index", s.counter.Current()))

	switch strings.ToLower(transport) {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// nextIndexInputFromArgs decodes loosely typed JSON arguments.
func nextIndexInputFromArgs(args map[string]any) (NextIndexInput, error) {
	var input NextIndexInput

	raw, ok := args["count"]
	if !ok || raw == nil {
		return input, nil
	}

	switch v := raw.(type) {
	case int:
		input.Count = v
	case int64:
		input.Count = int(v)
	case float64:
		if v != math.Trunc(v) {
			return input, NewInvalidParamsError("count must be an integer")
		}
		input.Count = int(v)
	default:
		return input, NewInvalidParamsError("count must be an integer")
	}
	return input, nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
