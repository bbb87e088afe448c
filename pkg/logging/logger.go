// Package logging provides structured logging for gearsync using zerolog.
// Console output is used when stderr is a terminal, JSON otherwise.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("category", "iems").Msg("Reconciling category")
//
//	ctx := logging.WithLogger(context.Background(), log)
//	ctx = logging.WithProduct(ctx, "Moondrop Aria")
//	logging.FromContext(ctx).Debug().Msg("Queued image download")
package logging

import (
	"os"

	goisatty "github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	defaultLogger = NewLoggerFromConfig(ConfigFromEnv())

	// Nop discards everything.
	Nop = zerolog.Nop()
)

// Default returns the process-wide logger.
func Default() *zerolog.Logger {
	return &defaultLogger
}

// SetDefault replaces the process-wide logger, including zerolog's global
// log.Logger.
func SetDefault(logger zerolog.Logger) {
	defaultLogger = logger
	log.Logger = logger
}

// Debug starts a debug event on the default logger.
func Debug() *zerolog.Event { return defaultLogger.Debug() }

// Info starts an info event on the default logger.
func Info() *zerolog.Event { return defaultLogger.Info() }

// Warn starts a warning event on the default logger.
func Warn() *zerolog.Event { return defaultLogger.Warn() }

// Error starts an error event on the default logger.
func Error() *zerolog.Event { return defaultLogger.Error() }

// Err starts an error event carrying err on the default logger.
func Err(err error) *zerolog.Event { return defaultLogger.Err(err) }

func isatty() bool {
	fd := os.Stderr.Fd()
	return goisatty.IsTerminal(fd) || goisatty.IsCygwinTerminal(fd)
}
