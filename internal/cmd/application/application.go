// Package application provides the application interface for gearsync commands.
//
// Commands accept an Application rather than the concrete app so they can be
// tested with a Mock:
//
//	mock := &application.Mock{
//	    ClientFunc: func(opts ...gearsync.Option) (gearsync.Client, error) {
//	        return gearsync.New(append(opts, gearsync.WithSiteRoot(dir))...)
//	    },
//	}
//	cmd := list.NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync"
)

// Application is what a command needs from the CLI application.
type Application interface {
	// Client returns a gearsync client configured from the application
	// config. Extra options are applied after the configured ones.
	Client(opts ...gearsync.Option) (gearsync.Client, error)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml).
	OutputFormat() string

	// Threshold returns the configured match threshold.
	Threshold() float64

	// HistoryPath returns the run journal path, empty when disabled.
	HistoryPath() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
