package display

import (
	"os"
	"strings"

	"github.com/arthur-debert/nmm/pkg/errors"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Format decides whether a Printer styles its output.
type Format int

const (
	// FormatAuto styles output only when it goes to a color terminal.
	FormatAuto Format = iota
	// FormatTerminal always styles.
	FormatTerminal
	// FormatText never styles.
	FormatText
)

// ColorModes lists the --color values in the order help shows them.
var ColorModes = []string{"auto", "always", "never"}

func (f Format) String() string {
	switch f {
	case FormatAuto:
		return "auto"
	case FormatTerminal:
		return "always"
	case FormatText:
		return "never"
	default:
		return "unknown"
	}
}

// ParseFormat maps a --color value to a Format. The older term/text
// spellings are still accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "always", "term", "terminal":
		return FormatTerminal, nil
	case "never", "text", "plain":
		return FormatText, nil
	}
	return FormatAuto, errors.Newf(errors.ErrInvalidInput, "unknown color mode %q", s).
		WithDetail("known", ColorModes)
}

// DetectFormat resolves FormatAuto for f. NO_COLOR wins over everything.
func DetectFormat(f *os.File) Format {
	fd := f.Fd()
	tty := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	return resolveFormat(tty, os.Getenv("NO_COLOR") != "", termenv.ColorProfile())
}

func resolveFormat(tty, noColor bool, profile termenv.Profile) Format {
	if noColor || !tty || profile == termenv.Ascii {
		return FormatText
	}
	return FormatTerminal
}
