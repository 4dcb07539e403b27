package logging

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
)

// DefaultActionNamespace prefixes action loggers that have no parent.
const DefaultActionNamespace = "mcp_action"

// Config contains registry configuration.
type Config struct {
	// FilePath is the shared log file. Required.
	FilePath string
	// MaxBytes is the size that triggers rotation (default: 10 MiB).
	MaxBytes int64
	// MaxFiles is the number of rotated files to keep (default: 5).
	MaxFiles int
	// Console is the console stream (default: os.Stdout).
	Console io.Writer
}

// DefaultConfig returns the standard configuration for appRoot:
// <appRoot>/logs/mcp_actions.log, 10 MiB, 5 backups, stdout console.
func DefaultConfig(appRoot string) Config {
	return Config{
		FilePath: LogPath(appRoot),
		MaxBytes: DefaultMaxBytes,
		MaxFiles: DefaultMaxFiles,
		Console:  os.Stdout,
	}
}

// Registry owns named loggers and the writers they share.
type Registry struct {
	cfg     Config
	console io.Writer

	mu      sync.RWMutex
	loggers map[string]*Logger

	fileMu sync.Mutex
	file   *RotatingWriter
}

// NewRegistry creates a registry. The log file is opened on first use so
// that setup failures surface from ConfigureLogger or ActionLogger.
func NewRegistry(cfg Config) *Registry {
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	console := cfg.Console
	if console == nil {
		console = os.Stdout
	}

	return &Registry{
		cfg:     cfg,
		console: &lockedWriter{w: console},
		loggers: make(map[string]*Logger),
	}
}

// FilePath returns the shared log file path.
func (r *Registry) FilePath() string {
	return r.cfg.FilePath
}

// Logger returns the handle for name, creating it without sinks if needed.
func (r *Registry) Logger(name string) *Logger {
	r.mu.RLock()
	l, ok := r.loggers[name]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[name]; ok {
		return l
	}
	l = newLogger(name, r)
	r.loggers[name] = l
	return l
}

// ConfigureLogger sets the level of logger name and replaces its sinks with
// one console sink and one file sink, both filtered at level. Calling it
// again for the same name leaves exactly those two sinks attached.
func (r *Registry) ConfigureLogger(name string, level slog.Level) (*Logger, error) {
	if name == "" {
		return nil, shoterrors.ValidationError("logger name is required", nil)
	}

	if _, err := r.fileWriter(); err != nil {
		return nil, err
	}

	l := r.Logger(name)
	l.mu.Lock()
	l.level = level
	l.hasLevel = true
	l.sinks = []Sink{
		{Kind: SinkConsole, Level: level, Format: FormatStandard, out: r.console},
		{Kind: SinkFile, Level: level, Format: FormatStandard, out: sharedFile{r}},
	}
	l.mu.Unlock()

	return l, nil
}

// ActionLogger returns the logger for an MCP action, named parent.action or
// mcp_action.action when parent is empty. A debug-level file sink using the
// ACTION[...] format is attached only if the logger has no sinks yet.
func (r *Registry) ActionLogger(action, parent string) (*Logger, error) {
	if action == "" {
		return nil, shoterrors.ValidationError("action name is required", nil)
	}

	name := DefaultActionNamespace + "." + action
	if parent != "" {
		name = parent + "." + action
	}

	l := r.Logger(name)
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.sinks) > 0 {
		return l, nil
	}

	if _, err := r.fileWriter(); err != nil {
		return nil, err
	}
	l.sinks = []Sink{
		{Kind: SinkFile, Level: slog.LevelDebug, Format: FormatAction, out: sharedFile{r}},
	}

	return l, nil
}

// Close flushes and closes the shared log file. The next record written by
// any file sink reopens it, so handles obtained before Close keep working.
func (r *Registry) Close() error {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	if r.file == nil {
		return nil
	}
	syncErr := r.file.Sync()
	closeErr := r.file.Close()
	r.file = nil
	return errors.Join(syncErr, closeErr)
}

// parentOf returns the nearest registered ancestor of name.
func (r *Registry) parentOf(name string) *Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for {
		i := strings.LastIndexByte(name, '.')
		if i < 0 {
			return nil
		}
		name = name[:i]
		if l, ok := r.loggers[name]; ok {
			return l
		}
	}
}

func (r *Registry) fileWriter() (*RotatingWriter, error) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()
	return r.openFileLocked()
}

// writeFile writes p to the shared log file, opening it if Close released it.
func (r *Registry) writeFile(p []byte) (int, error) {
	r.fileMu.Lock()
	defer r.fileMu.Unlock()

	w, err := r.openFileLocked()
	if err != nil {
		return 0, err
	}
	return w.Write(p)
}

// openFileLocked requires fileMu.
func (r *Registry) openFileLocked() (*RotatingWriter, error) {
	if r.file != nil {
		return r.file, nil
	}

	if r.cfg.FilePath == "" {
		return nil, shoterrors.New(shoterrors.ErrCodeLogSetupFailed, "log file path is empty", nil)
	}

	w, err := NewRotatingWriter(r.cfg.FilePath, r.cfg.MaxBytes, r.cfg.MaxFiles)
	if err != nil {
		return nil, shoterrors.New(shoterrors.ErrCodeLogSetupFailed, "failed to open log file", err).
			WithDetail("path", r.cfg.FilePath)
	}
	r.file = w
	return w, nil
}

// sharedFile is the io.Writer behind every file sink.
type sharedFile struct {
	r *Registry
}

func (f sharedFile) Write(p []byte) (int, error) {
	return f.r.writeFile(p)
}

// lockedWriter serializes whole-line writes to a shared stream.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
