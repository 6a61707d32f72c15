package logging

import (
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// NewLogger creates the installer's structured logger. When stderr is a
// terminal the operator gets the human console format; otherwise plain JSON
// so the run can be captured and inspected later.
func NewLogger(level, runID string) zerolog.Logger {
	var logger zerolog.Logger
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if runID != "" {
		logger = logger.With().Str("run_id", runID).Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}
