// Package logging provides the shared zerolog setup for crashboard.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	// JSON at info level until main configures otherwise.
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Init configures the global logger. debug lowers the level; human swaps
// the JSON output for a console writer.
func Init(debug, human bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	out := os.Stderr
	if human {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
		return
	}
	logger = zerolog.New(out).With().Timestamp().Logger()
}

// L returns the base logger.
func L() *zerolog.Logger {
	return &logger
}

// With returns a logger scoped to one component.
func With(component string) zerolog.Logger {
	return logger.With().Str("component", component).Logger()
}
