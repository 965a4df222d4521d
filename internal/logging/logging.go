package logging

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New builds the process logger. Level strings follow zerolog naming;
// unknown levels fall back to warn so a typo never silences errors.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

func Nop() zerolog.Logger {
	return zerolog.Nop()
}
