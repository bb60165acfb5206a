package shared

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Package-level color variables
var (
	ColorInfo    = color.New(color.FgCyan)
	ColorSuccess = color.New(color.FgGreen)
	ColorWarning = color.New(color.FgYellow)
	ColorError   = color.New(color.FgRed)
	ColorSkipped = color.New(color.FgMagenta)
	ColorHeader  = color.New(color.FgBlue, color.Bold)
)

// InitializeColors initializes color output based on TTY detection
func InitializeColors() {
	color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// OutcomeColor returns the color used for an entry outcome line
func OutcomeColor(kind OutcomeKind) *color.Color {
	switch kind {
	case OutcomeSucceeded:
		return ColorSuccess
	case OutcomeSkipped:
		return ColorSkipped
	default:
		return ColorError
	}
}
