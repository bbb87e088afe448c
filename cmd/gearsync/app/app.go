// Package app provides the application context and dependency management
// for the gearsync CLI: configuration, logging, and the lazily created
// gearsync client shared by commands.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync"
	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/download"
	"github.com/bmedia/gearsync/internal/scrape"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// App represents the gearsync application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// flags holds the parsed persistent flags until setupCommand applies them.
	flags globalFlags

	// Client instance (lazy-initialized, singleton)
	mu     sync.RWMutex
	client gearsync.Client
}

type globalFlags struct {
	configFile string
	verbose    bool
	quiet      bool
	noColor    bool
	format     string
	logLevel   string
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Threshold returns the configured match threshold.
func (a *App) Threshold() float64 {
	return a.config.Threshold
}

// HistoryPath returns the run journal path resolved against the site root.
func (a *App) HistoryPath() string {
	return a.config.SitePath(a.config.HistoryPath)
}

// Client returns a gearsync client. Without options it is created once and
// shared; with options a new client is built from the config plus opts.
func (a *App) Client(opts ...gearsync.Option) (gearsync.Client, error) {
	if len(opts) > 0 {
		c, err := gearsync.New(append(a.clientOptions(), opts...)...)
		if err != nil {
			return nil, errors.WrapResource("create", "client", "with custom options", err)
		}
		return c, nil
	}

	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	c, err := gearsync.New(a.clientOptions()...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	a.client = c
	return c, nil
}

// Shutdown stops background syncs.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()

	if c != nil {
		if err := c.AutoSyncOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop auto-sync during shutdown")
			return err
		}
	}
	return nil
}

// clientOptions constructs gearsync options from the app configuration.
func (a *App) clientOptions() []gearsync.Option {
	cfg := a.config
	opts := []gearsync.Option{
		gearsync.WithSourceURL(cfg.SourceURL),
		gearsync.WithSiteRoot(cfg.SiteRoot),
		gearsync.WithCatalogPath(cfg.CatalogPath),
		gearsync.WithCatalogFormat(cfg.CatalogFormat),
		gearsync.WithImagesDir(cfg.ImagesDir),
		gearsync.WithExtrasPath(cfg.ExtrasPath),
		gearsync.WithHistoryPath(cfg.HistoryPath),
		gearsync.WithThreshold(cfg.Threshold),
		gearsync.WithMatchStrategy(cfg.MatchStrategy),
		gearsync.WithExclusions(cfg.Exclusions),
		gearsync.WithPickMarker(cfg.PickMarker),
		gearsync.WithFetcher(a.browserFetcher()),
		gearsync.WithDownloadConfig(download.Config{
			Workers:   cfg.Download.Workers,
			Timeout:   cfg.Download.Timeout,
			Rate:      cfg.Download.Rate,
			UserAgent: cfg.Download.UserAgent,
		}),
		gearsync.WithLogger(a.logger),
	}
	if len(cfg.CanonicalOrder) > 0 {
		opts = append(opts, gearsync.WithCanonicalOrder(cfg.CanonicalOrder...))
	}
	return opts
}

func (a *App) browserFetcher() *scrape.BrowserFetcher {
	f := scrape.NewBrowserFetcher()
	f.Bin = a.config.Browser.Bin
	f.Headless = a.config.Browser.Headless
	if a.config.Browser.Settle > 0 {
		f.Settle = a.config.Browser.Settle
	}
	if a.config.Download.UserAgent != "" {
		f.UserAgent = a.config.Download.UserAgent
	} else {
		f.UserAgent = constants.UserAgent
	}
	return f
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client instance (useful for testing).
func WithClient(c gearsync.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}
