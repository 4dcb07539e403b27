package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
)

// newTestRegistry returns a registry writing to a temp log file and a buffer.
func newTestRegistry(t *testing.T) (*Registry, *bytes.Buffer, string) {
	t.Helper()
	console := &bytes.Buffer{}
	path := filepath.Join(t.TempDir(), "logs", LogFileName)
	r := NewRegistry(Config{
		FilePath: path,
		MaxBytes: DefaultMaxBytes,
		MaxFiles: DefaultMaxFiles,
		Console:  console,
	})
	t.Cleanup(func() { _ = r.Close() })
	return r, console, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	return string(data)
}

func countKinds(sinks []Sink) map[SinkKind]int {
	counts := make(map[SinkKind]int)
	for _, s := range sinks {
		counts[s.Kind]++
	}
	return counts
}

var standardLineRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - [^ ]+ - [A-Z]+ - .*$`)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/srv/app")

	if cfg.FilePath != filepath.Join("/srv/app", "logs", "mcp_actions.log") {
		t.Errorf("unexpected FilePath: %s", cfg.FilePath)
	}
	if cfg.MaxBytes != 10*1024*1024 {
		t.Errorf("expected MaxBytes 10 MiB, got: %d", cfg.MaxBytes)
	}
	if cfg.MaxFiles != 5 {
		t.Errorf("expected MaxFiles 5, got: %d", cfg.MaxFiles)
	}
	if cfg.Console != os.Stdout {
		t.Error("expected stdout console")
	}
}

func TestConfigureLogger_WritesConsoleAndFile(t *testing.T) {
	r, console, path := newTestRegistry(t)

	logger, err := r.ConfigureLogger("server", slog.LevelInfo)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}

	logger.Info("hello world")
	logger.Debug("filtered out")

	for _, out := range []string{console.String(), readLog(t, path)} {
		if !strings.Contains(out, " - server - INFO - hello world\n") {
			t.Errorf("expected formatted line, got: %q", out)
		}
		if strings.Contains(out, "filtered out") {
			t.Errorf("debug record should be filtered at info: %q", out)
		}
		line := strings.TrimSuffix(out, "\n")
		if !standardLineRE.MatchString(line) {
			t.Errorf("line does not match format: %q", line)
		}
	}
}

func TestConfigureLogger_Idempotent(t *testing.T) {
	r, console, path := newTestRegistry(t)

	first, err := r.ConfigureLogger("x", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	second, err := r.ConfigureLogger("x", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}

	if first != second {
		t.Error("expected the same handle for the same name")
	}
	counts := countKinds(second.Sinks())
	if counts[SinkConsole] != 1 || counts[SinkFile] != 1 || len(second.Sinks()) != 2 {
		t.Errorf("expected one console and one file sink, got: %v", counts)
	}

	second.Debug("once")
	if n := strings.Count(console.String(), "once"); n != 1 {
		t.Errorf("expected 1 console line, got %d", n)
	}
	if n := strings.Count(readLog(t, path), "once"); n != 1 {
		t.Errorf("expected 1 file line, got %d", n)
	}
}

func TestConfigureLogger_ReconfigureChangesLevelInPlace(t *testing.T) {
	r, console, _ := newTestRegistry(t)

	logger, err := r.ConfigureLogger("svc", slog.LevelError)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger.Info("before")

	if _, err := r.ConfigureLogger("svc", slog.LevelInfo); err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger.Info("after")

	out := console.String()
	if strings.Contains(out, "before") {
		t.Errorf("info should be filtered at error level: %q", out)
	}
	if !strings.Contains(out, "after") {
		t.Errorf("existing handle should see the new level: %q", out)
	}
	for _, s := range logger.Sinks() {
		if s.Level != slog.LevelInfo {
			t.Errorf("sink %s level = %v, want INFO", s.Kind, s.Level)
		}
	}
}

func TestConfigureLogger_EmptyName(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	if _, err := r.ConfigureLogger("", slog.LevelInfo); err == nil {
		t.Error("expected error for empty logger name")
	}
}

func TestConfigureLogger_SetupFailureSurfaces(t *testing.T) {
	// A regular file where the log directory should be.
	root := t.TempDir()
	blocker := filepath.Join(root, "logs")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create blocker: %v", err)
	}

	r := NewRegistry(Config{FilePath: filepath.Join(blocker, LogFileName), Console: &bytes.Buffer{}})
	_, err := r.ConfigureLogger("x", slog.LevelInfo)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !strings.Contains(err.Error(), "ERR_208_LOG_SETUP_FAILED") {
		t.Errorf("expected log setup error code, got: %v", err)
	}
}

func TestActionLogger_DefaultNamespace(t *testing.T) {
	r, console, path := newTestRegistry(t)

	logger, err := r.ActionLogger("take_screenshot", "")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}
	if logger.Name() != "mcp_action.take_screenshot" {
		t.Errorf("unexpected name: %s", logger.Name())
	}

	logger.Debug("capturing", "index", 3)

	out := readLog(t, path)
	if !strings.Contains(out, " - ACTION[mcp_action.take_screenshot] - DEBUG - capturing index=3\n") {
		t.Errorf("expected action line, got: %q", out)
	}
	if console.Len() != 0 {
		t.Errorf("action logger must not write to console: %q", console.String())
	}
}

func TestActionLogger_IdempotentByConstruction(t *testing.T) {
	r, _, path := newTestRegistry(t)

	first, err := r.ActionLogger("click", "server")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}
	second, err := r.ActionLogger("click", "server")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}

	if first != second {
		t.Error("expected the same handle")
	}
	if first.Name() != "server.click" {
		t.Errorf("unexpected name: %s", first.Name())
	}
	sinks := second.Sinks()
	if len(sinks) != 1 || sinks[0].Kind != SinkFile || sinks[0].Format != FormatAction {
		t.Errorf("expected a single action file sink, got: %+v", sinks)
	}

	second.Info("clicked")
	if n := strings.Count(readLog(t, path), "clicked"); n != 1 {
		t.Errorf("expected 1 line, got %d", n)
	}
}

func TestActionLogger_KeepsConfiguredSinks(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	if _, err := r.ConfigureLogger("mcp_action.scan", slog.LevelWarn); err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger, err := r.ActionLogger("scan", "")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}

	if counts := countKinds(logger.Sinks()); counts[SinkConsole] != 1 || counts[SinkFile] != 1 {
		t.Errorf("existing sinks should be untouched, got: %v", counts)
	}
}

func TestActionLogger_EmptyAction(t *testing.T) {
	r, _, _ := newTestRegistry(t)
	if _, err := r.ActionLogger("", "server"); err == nil {
		t.Error("expected error for empty action name")
	}
}

func TestPropagation_ReachesParentSinks(t *testing.T) {
	r, console, path := newTestRegistry(t)

	if _, err := r.ConfigureLogger("server", slog.LevelInfo); err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	action, err := r.ActionLogger("next_index", "server")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}

	action.Info("allocated")
	action.Debug("detail")

	// Own action sink plus the parent's file sink.
	out := readLog(t, path)
	if !strings.Contains(out, " - ACTION[server.next_index] - INFO - allocated") {
		t.Errorf("missing action line: %q", out)
	}
	if !strings.Contains(out, " - server.next_index - INFO - allocated") {
		t.Errorf("missing propagated line: %q", out)
	}
	if !strings.Contains(console.String(), " - server.next_index - INFO - allocated") {
		t.Errorf("missing propagated console line: %q", console.String())
	}

	// The action logger inherits the parent's info level, so debug is dropped
	// before reaching any sink.
	if strings.Contains(out, "detail") || strings.Contains(console.String(), "detail") {
		t.Errorf("debug should be filtered by the inherited level: %q", out)
	}
}

func TestPropagation_Disabled(t *testing.T) {
	r, console, _ := newTestRegistry(t)

	if _, err := r.ConfigureLogger("server", slog.LevelDebug); err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	action, err := r.ActionLogger("quiet", "server")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}
	action.SetPropagate(false)

	action.Info("private")
	if strings.Contains(console.String(), "private") {
		t.Errorf("record should not propagate: %q", console.String())
	}
}

func TestLogger_LevelInheritance(t *testing.T) {
	r, _, _ := newTestRegistry(t)

	child := r.Logger("a.b.c")
	if child.Level() != slog.LevelDebug {
		t.Errorf("unconfigured logger should default to debug, got %v", child.Level())
	}

	if _, err := r.ConfigureLogger("a", slog.LevelWarn); err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	if child.Level() != slog.LevelWarn {
		t.Errorf("expected inherited warn level, got %v", child.Level())
	}
}

func TestLogger_AttrsAndGroups(t *testing.T) {
	r, console, _ := newTestRegistry(t)

	logger, err := r.ConfigureLogger("svc", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}

	logger.With("tool", "next").WithGroup("req").Info("done", "count", 2, "note", "two words")

	want := " - svc - INFO - done tool=next req.count=2 req.note=\"two words\"\n"
	if !strings.HasSuffix(console.String(), want) {
		t.Errorf("got %q, want suffix %q", console.String(), want)
	}
}

func TestLogger_CriticalAndWarningNames(t *testing.T) {
	r, console, _ := newTestRegistry(t)

	logger, err := r.ConfigureLogger("svc", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger.Warn("careful")
	logger.Critical("down")

	out := console.String()
	if !strings.Contains(out, " - svc - WARNING - careful") {
		t.Errorf("expected WARNING level name: %q", out)
	}
	if !strings.Contains(out, " - svc - CRITICAL - down") {
		t.Errorf("expected CRITICAL level name: %q", out)
	}
}

func TestLogger_InvalidUTF8Replaced(t *testing.T) {
	r, console, _ := newTestRegistry(t)

	logger, err := r.ConfigureLogger("svc", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger.Info("bad \xff byte")

	if !strings.Contains(console.String(), "bad \uFFFD byte") {
		t.Errorf("expected replacement character: %q", console.String())
	}
}

func TestRegistry_ConcurrentLoggersDoNotInterleave(t *testing.T) {
	r, _, path := newTestRegistry(t)

	const loggers = 8
	const lines = 200
	var wg sync.WaitGroup
	for i := 0; i < loggers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger, err := r.ActionLogger("worker", "pool"+string(rune('a'+i)))
			if err != nil {
				t.Errorf("ActionLogger failed: %v", err)
				return
			}
			for j := 0; j < lines; j++ {
				logger.Info("payload", "seq", j)
			}
		}()
	}
	wg.Wait()

	out := strings.TrimSuffix(readLog(t, path), "\n")
	got := strings.Split(out, "\n")
	if len(got) != loggers*lines {
		t.Fatalf("expected %d lines, got %d", loggers*lines, len(got))
	}
	for _, line := range got {
		entry := ParseLine(line)
		if !entry.IsValid || !entry.Action || entry.Level != "INFO" {
			t.Fatalf("corrupted line: %q", line)
		}
	}
}

func TestRegistry_CloseThenReconfigure(t *testing.T) {
	r, _, path := newTestRegistry(t)

	logger, err := r.ConfigureLogger("svc", slog.LevelInfo)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	logger.Info("one")
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	logger, err = r.ConfigureLogger("svc", slog.LevelInfo)
	if err != nil {
		t.Fatalf("ConfigureLogger after Close failed: %v", err)
	}
	logger.Info("two")

	out := readLog(t, path)
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Errorf("expected both lines: %q", out)
	}
}

func TestRegistry_HandlesSurviveClose(t *testing.T) {
	r, _, path := newTestRegistry(t)

	action, err := r.ActionLogger("shot", "")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}
	other, err := r.ConfigureLogger("other", slog.LevelDebug)
	if err != nil {
		t.Fatalf("ConfigureLogger failed: %v", err)
	}
	action.Info("before-close")

	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := r.ConfigureLogger("svc", slog.LevelInfo); err != nil {
		t.Fatalf("ConfigureLogger after Close failed: %v", err)
	}

	again, err := r.ActionLogger("shot", "")
	if err != nil {
		t.Fatalf("ActionLogger after Close failed: %v", err)
	}
	if again != action {
		t.Fatal("expected the same action logger handle")
	}
	action.Info("after-action")
	other.Info("after-other")

	out := readLog(t, path)
	for _, want := range []string{"before-close", "after-action", "after-other"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %q", want, out)
		}
	}
}

func TestRegistry_CloseWithoutConfigureWritesOnNextRecord(t *testing.T) {
	r, _, path := newTestRegistry(t)

	action, err := r.ActionLogger("shot", "")
	if err != nil {
		t.Fatalf("ActionLogger failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	action.Info("reopened")

	if out := readLog(t, path); !strings.Contains(out, "reopened") {
		t.Errorf("expected reopened line: %q", out)
	}
}
