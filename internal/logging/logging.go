// Package logging builds the process logger. Diagnostics go to stderr so
// they never mix with command output.
package logging

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable that overrides the log level.
const EnvLevel = "COFFEE_LOG_LEVEL"

// New returns a console logger on w. verbose forces debug; otherwise level
// ("debug", "info", "warn", ...) applies, defaulting to warn.
func New(w io.Writer, verbose bool, level string) zerolog.Logger {
	lvl := zerolog.WarnLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil && level != "" {
		lvl = parsed
	}
	if verbose {
		lvl = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
