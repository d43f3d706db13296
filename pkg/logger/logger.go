// Package logger builds the zerolog loggers shared by the bot and CLI tools.
package logger

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger at the given level writing to out. The console
// format is for humans; anything else emits JSON lines. Unknown levels
// fall back to info.
func New(out io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
