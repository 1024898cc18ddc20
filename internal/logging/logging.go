// Package logging builds the zerolog loggers used by the parser, the binder
// and the command line tool.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New returns a logger writing to w at the named level. An empty level
// disables logging.
func New(w io.Writer, format, level string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch strings.ToLower(format) {
	case "", FormatJSON:
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.Nop(), fmt.Errorf("unsupported log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Str("module", "odataq").Logger(), nil
}

// Stderr is New writing to os.Stderr in console format.
func Stderr(level string) (zerolog.Logger, error) {
	return New(os.Stderr, FormatConsole, level)
}

// ParseLevel maps a level name to a zerolog level. The empty string maps to
// zerolog.Disabled.
func ParseLevel(level string) (zerolog.Level, error) {
	if level == "" {
		return zerolog.Disabled, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Disabled, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		return zerolog.Disabled, nil
	}
	return lvl, nil
}
