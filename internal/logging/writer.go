package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// RotatingWriter implements io.Writer with size-based rotation.
// Writes are serialized, so concurrent loggers never interleave lines.
type RotatingWriter struct {
	path     string
	maxBytes int64
	backups  int

	mu            sync.Mutex
	file          *os.File
	written       int64
	immediateSync bool // Sync after each write for real-time visibility
}

// NewRotatingWriter creates a rotating writer for path, creating its
// directory. When a write would push the file past maxBytes, the file is
// rotated to path.1, older rotations shift up, and anything beyond
// path.<backups> is removed. maxBytes <= 0 or backups <= 0 disables rotation.
func NewRotatingWriter(path string, maxBytes int64, backups int) (*RotatingWriter, error) {
	w := &RotatingWriter{
		path:          path,
		maxBytes:      maxBytes,
		backups:       backups,
		immediateSync: true, // Enable by default for `shotmcp logs -f` visibility
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if err := w.openFile(); err != nil {
		return nil, err
	}

	return w, nil
}

// Path returns the active log file path.
func (w *RotatingWriter) Path() string {
	return w.path
}

// SetImmediateSync enables or disables immediate sync after each write.
func (w *RotatingWriter) SetImmediateSync(enabled bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.immediateSync = enabled
}

// Write implements io.Writer with automatic rotation.
func (w *RotatingWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}

	if w.shouldRotate(len(p)) {
		if err := w.rotate(); err != nil {
			// Keep logging to whatever file is open
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
			if w.file == nil {
				if err := w.openFile(); err != nil {
					return 0, err
				}
			}
		}
	}

	n, err = w.file.Write(p)
	w.written += int64(n)

	if w.immediateSync && err == nil {
		_ = w.file.Sync()
	}

	return n, err
}

// Close closes the underlying file.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Sync flushes the file to disk.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return w.file.Sync()
	}
	return nil
}

func (w *RotatingWriter) shouldRotate(next int) bool {
	if w.maxBytes <= 0 || w.backups <= 0 {
		return false
	}
	// A single oversized record still goes into an empty file.
	return w.written > 0 && w.written+int64(next) > w.maxBytes
}

// openFile opens or creates the log file in append mode.
func (w *RotatingWriter) openFile() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}

	w.file = f
	w.written = info.Size()
	return nil
}

// rotate shifts mcp_actions.log -> .1 -> .2 ... and drops anything
// numbered backups or higher before the shift.
func (w *RotatingWriter) rotate() error {
	if w.file != nil {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		w.file = nil
	}

	rotated, err := w.rotatedFiles()
	if err != nil {
		return err
	}

	// Highest first so renames never overwrite a file still to be moved.
	sort.Slice(rotated, func(i, j int) bool {
		return rotated[i].num > rotated[j].num
	})

	for _, f := range rotated {
		if f.num >= w.backups {
			_ = os.Remove(f.path)
			continue
		}
		_ = os.Rename(f.path, fmt.Sprintf("%s.%d", w.path, f.num+1))
	}

	if _, err := os.Stat(w.path); err == nil {
		if err := os.Rename(w.path, w.path+".1"); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	w.written = 0
	return w.openFile()
}

type rotatedFile struct {
	path string
	num  int
}

func (w *RotatingWriter) rotatedFiles() ([]rotatedFile, error) {
	base := filepath.Base(w.path)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(w.path), base+".*"))
	if err != nil {
		return nil, fmt.Errorf("failed to find rotated files: %w", err)
	}

	var files []rotatedFile
	for _, m := range matches {
		suffix := strings.TrimPrefix(filepath.Base(m), base+".")
		num, err := strconv.Atoi(suffix)
		if err != nil || num < 1 {
			continue
		}
		files = append(files, rotatedFile{path: m, num: num})
	}
	return files, nil
}
