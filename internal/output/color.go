package output

import (
	"os"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Status words colored by ColorizeCell.
const (
	StatusOK          = "ok"
	StatusAvailable   = "available"
	StatusError       = "error"
	StatusUnavailable = "unavailable"
	StatusMissing     = "missing"
	StatusSkipped     = "-"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts "auto", "always" or "never" to a ColorMode,
// defaulting to auto.
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// ColorizeCell colors status words; other text is returned unchanged.
func ColorizeCell(cell string, colorize bool) string {
	if !colorize {
		return cell
	}
	switch cell {
	case StatusOK, StatusAvailable:
		return colorGreen + cell + colorReset
	case StatusError, StatusUnavailable:
		return colorRed + cell + colorReset
	case StatusMissing:
		return colorYellow + cell + colorReset
	case StatusSkipped:
		return colorGray + cell + colorReset
	default:
		return cell
	}
}
