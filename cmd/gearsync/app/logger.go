package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/pkg/logging"
)

// NewLogger builds the CLI logger. The level is taken from, in order:
// --log-level, -q (warn), -v (debug), LOG_LEVEL, and finally info.
// -q wins when both -q and -v are given.
func NewLogger(config *Config) zerolog.Logger {
	level := determineLogLevel(config)
	return logging.NewLoggerFromConfig(&logging.Config{
		Level:     level,
		Format:    config.LogFormat,
		Output:    config.LogOutput,
		NoColor:   config.NoColor,
		AddCaller: level == "debug" || level == "trace",
	})
}

func determineLogLevel(config *Config) string {
	switch {
	case config.LogLevel != "":
		level := validateLogLevel(config.LogLevel)
		if level != config.LogLevel {
			fmt.Fprintf(os.Stderr, "Warning: invalid log level %q, using %q\n", config.LogLevel, level)
		}
		return level
	case config.Verbose && config.Quiet:
		fmt.Fprintln(os.Stderr, "Warning: both --verbose and --quiet specified, using --quiet")
		return "warn"
	case config.Quiet:
		return "warn"
	case config.Verbose:
		return "debug"
	case config.EnvLogLevel != "":
		return validateLogLevel(config.EnvLogLevel)
	}
	return "info"
}

var logLevels = map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}

// validateLogLevel returns level when it is one the CLI accepts, info otherwise.
func validateLogLevel(level string) string {
	if logLevels[level] {
		return level
	}
	return "info"
}
