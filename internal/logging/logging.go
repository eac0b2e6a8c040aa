// Package logging configures the zerolog loggers used by the command-line tools.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is the log level used when none is given.
const DefaultLevel = "info"

// New returns a human-readable logger writing to w at the named level
// (trace, debug, info, warn, error, fatal, panic or disabled).
func New(w io.Writer, level string) (zerolog.Logger, error) {
	if level == "" {
		level = DefaultLevel
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level %q: %w", level, err)
	}

	out := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		TimeFormat: time.Kitchen,
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}
