// Package ui decides how CLI output is rendered on the current terminal.
package ui

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}

	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// UseColor reports whether colored output should be written to w. The
// explicit flag wins, then NO_COLOR, then terminal detection.
func UseColor(w io.Writer, noColorFlag bool) bool {
	if noColorFlag || DetectNoColor() {
		return false
	}
	return IsTTY(w)
}
