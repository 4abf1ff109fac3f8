// Package tui renders load progress on an interactive terminal.
package tui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Mode represents whether the terminal supports live rendering.
type Mode int

const (
	ModeNonInteractive Mode = iota
	ModeInteractive
)

// DetectMode checks the environment and out to decide whether a live
// progress display can be rendered to out.
// Returns ModeNonInteractive when:
//   - INGEST_NON_INTERACTIVE=1
//   - CI is set
//   - NO_COLOR is set
//   - out is not a terminal
func DetectMode(out io.Writer) Mode {
	if os.Getenv("INGEST_NON_INTERACTIVE") == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}
	f, ok := out.(interface{ Fd() uintptr })
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return ModeNonInteractive
	}
	return ModeInteractive
}

// IsInteractive returns true if DetectMode returns ModeInteractive for out.
func IsInteractive(out io.Writer) bool {
	return DetectMode(out) == ModeInteractive
}
