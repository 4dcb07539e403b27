package logging

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// LogEntry represents a parsed log line.
type LogEntry struct {
	Time    time.Time
	Logger  string
	Action  bool // written by an action logger (ACTION[...] format)
	Level   string
	Msg     string
	Raw     string // Original line
	IsValid bool   // Whether the line matched the log format
}

// lineRE matches both the standard and the ACTION[...] line formats.
var lineRE = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}) - (.+?) - ([A-Z]+(?:[+-]\d+)?) - (.*)$`)

// ViewerConfig configures the log viewer.
type ViewerConfig struct {
	Level   string         // Filter by minimum level (debug, info, warning, error, critical)
	Pattern *regexp.Regexp // Filter by pattern
	Logger  string         // Filter by logger name prefix
	NoColor bool           // Disable colors
}

// Viewer provides log viewing and filtering capabilities.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
	styles map[string]lipgloss.Style
	name   lipgloss.Style
}

// NewViewer creates a new log viewer.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		out:    out,
		styles: map[string]lipgloss.Style{
			"DEBUG":    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
			"INFO":     lipgloss.NewStyle().Foreground(lipgloss.Color("154")),
			"WARNING":  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
			"ERROR":    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
			"CRITICAL": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		},
		name: lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
	}
}

// Tail reads the last n lines from a log file and returns matching entries.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var lines []string
	scanner := bufio.NewScanner(file)
	const maxCapacity = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, maxCapacity), maxCapacity)

	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var entries []LogEntry
	for _, line := range lines {
		entry := ParseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

// Follow sends entries appended to path until ctx is cancelled. It starts
// at the current end of file and follows rotation by reopening path when
// it is recreated.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	t := &tailer{path: path}
	if err := t.open(true); err != nil {
		return err
	}
	defer t.close()

	emit := func(line string) bool {
		entry := ParseLine(line)
		if !v.matchesFilter(entry) {
			return true
		}
		select {
		case entries <- entry:
			return true
		case <-ctx.Done():
			return false
		}
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			switch {
			case event.Has(fsnotify.Write):
				if !t.drain(emit) {
					return nil
				}
			case event.Has(fsnotify.Create):
				// Rotated: finish the old file, then start the new one from the top.
				if !t.drain(emit) {
					return nil
				}
				t.close()
				if err := t.open(false); err != nil {
					return err
				}
				if !t.drain(emit) {
					return nil
				}
			}
		}
	}
}

// tailer reads complete lines appended to a file.
type tailer struct {
	path    string
	file    *os.File
	reader  *bufio.Reader
	pending string
}

func (t *tailer) open(atEnd bool) error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if atEnd {
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to seek to end: %w", err)
		}
	}
	t.file = f
	t.reader = bufio.NewReader(f)
	t.pending = ""
	return nil
}

func (t *tailer) close() {
	if t.file != nil {
		_ = t.file.Close()
		t.file = nil
	}
}

// drain emits every complete line available; a trailing partial line is
// held until its newline arrives.
func (t *tailer) drain(emit func(string) bool) bool {
	if t.reader == nil {
		return true
	}
	for {
		chunk, err := t.reader.ReadString('\n')
		if err != nil {
			t.pending += chunk
			return true
		}
		line := strings.TrimRight(t.pending+chunk, "\r\n")
		t.pending = ""
		if line == "" {
			continue
		}
		if !emit(line) {
			return false
		}
	}
}

// FormatEntry formats a log entry for display.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	timestamp := entry.Time.Format("15:04:05.000")
	level := v.formatLevel(entry.Level)

	name := entry.Logger
	if entry.Action {
		name = "ACTION[" + name + "]"
	}
	if !v.config.NoColor {
		name = v.name.Render(name)
	}

	return fmt.Sprintf("%s %s %s %s", timestamp, level, name, entry.Msg)
}

// Print prints entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

// ParseLine parses a log line written by a Registry logger.
func ParseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return entry
	}

	ts, err := time.ParseInLocation(TimestampLayout, m[1], time.Local)
	if err != nil {
		return entry
	}

	entry.IsValid = true
	entry.Time = ts
	entry.Logger = m[2]
	if strings.HasPrefix(m[2], "ACTION[") && strings.HasSuffix(m[2], "]") {
		entry.Action = true
		entry.Logger = m[2][len("ACTION[") : len(m[2])-1]
	}
	entry.Level = m[3]
	entry.Msg = m[4]

	return entry
}

// matchesFilter checks if an entry matches the configured filters.
func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" && entry.IsValid {
		if entryLevel(entry.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}

	if v.config.Logger != "" {
		if !entry.IsValid || !strings.HasPrefix(entry.Logger, v.config.Logger) {
			return false
		}
	}

	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}

	return true
}

// entryLevel maps a written level name back to slog.Level.
func entryLevel(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err == nil {
		return l
	}
	return LevelFromString(name)
}

// formatLevel pads the level name and colors it unless disabled.
func (v *Viewer) formatLevel(level string) string {
	padded := fmt.Sprintf("%-8s", level)
	if v.config.NoColor {
		return padded
	}
	if style, ok := v.styles[level]; ok {
		return style.Render(padded)
	}
	return padded
}
