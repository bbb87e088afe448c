package gearsync

import (
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/internal/download"
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/internal/scrape"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// options holds the client configuration.
type options struct {
	sourceURL     string
	siteRoot      string
	catalogPath   string
	catalogFormat persistence.Format
	extrasPath    string
	imagesDir     string
	historyPath   string

	threshold  float64
	strategy   matcher.Strategy
	canonical  []string
	exclusions catalog.Exclusions
	pickMarker string

	fetcher  scrape.Fetcher
	download download.Config

	autoSyncEnabled  bool
	autoSyncInterval time.Duration

	logger *zerolog.Logger
}

func defaults() *options {
	return &options{
		sourceURL:        constants.DefaultSourceURL,
		siteRoot:         ".",
		catalogPath:      constants.DefaultCatalogPath,
		extrasPath:       constants.DefaultExtrasPath,
		imagesDir:        constants.DefaultImagesDir,
		threshold:        matcher.DefaultThreshold,
		strategy:         matcher.StrategyBest,
		exclusions:       catalog.DefaultExclusions(),
		pickMarker:       constants.PickMarker,
		autoSyncInterval: constants.DefaultSyncInterval,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// sitePath resolves p against the site root unless it is absolute.
func (o *options) sitePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.siteRoot, p)
}

func (o *options) catalogFile() string {
	return o.sitePath(o.catalogPath)
}

func (o *options) format() persistence.Format {
	if o.catalogFormat != "" {
		return o.catalogFormat
	}
	return persistence.DetectFormat(o.catalogPath)
}

func (o *options) fetcherOrDefault() scrape.Fetcher {
	if o.fetcher != nil {
		return o.fetcher
	}
	return scrape.NewBrowserFetcher()
}

// Option is a function that configures a Client.
type Option func(*options) error

// WithSourceURL sets the link page to scrape.
func WithSourceURL(url string) Option {
	return func(o *options) error {
		if url == "" {
			return errors.NewValidationError("source_url", url, "must not be empty")
		}
		o.sourceURL = url
		return nil
	}
}

// WithSiteRoot sets the directory that relative catalog, extras, and image
// paths are resolved against.
func WithSiteRoot(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			dir = "."
		}
		o.siteRoot = dir
		return nil
	}
}

// WithCatalogPath sets the catalog file, relative to the site root.
func WithCatalogPath(path string) Option {
	return func(o *options) error {
		if path == "" {
			return errors.NewValidationError("catalog_path", path, "must not be empty")
		}
		o.catalogPath = path
		return nil
	}
}

// WithCatalogFormat forces the catalog file format instead of detecting it
// from the extension.
func WithCatalogFormat(format string) Option {
	return func(o *options) error {
		if format == "" {
			o.catalogFormat = ""
			return nil
		}
		f, err := persistence.ParseFormat(format)
		if err != nil {
			return err
		}
		o.catalogFormat = f
		return nil
	}
}

// WithExtrasPath sets the extra-data file, relative to the site root.
func WithExtrasPath(path string) Option {
	return func(o *options) error {
		o.extrasPath = path
		return nil
	}
}

// WithImagesDir sets the image directory, relative to the site root.
func WithImagesDir(dir string) Option {
	return func(o *options) error {
		if dir == "" {
			return errors.NewValidationError("images_dir", dir, "must not be empty")
		}
		o.imagesDir = filepath.ToSlash(dir)
		return nil
	}
}

// WithHistoryPath enables the run journal at path. Empty disables it.
func WithHistoryPath(path string) Option {
	return func(o *options) error {
		o.historyPath = path
		return nil
	}
}

// WithThreshold sets the minimum name similarity for two products to match.
func WithThreshold(threshold float64) Option {
	return func(o *options) error {
		if threshold <= 0 || threshold > 1 {
			return errors.NewValidationError("threshold", threshold, "must be in (0, 1]")
		}
		o.threshold = threshold
		return nil
	}
}

// WithMatchStrategy sets how a persisted product picks among scraped candidates.
func WithMatchStrategy(strategy string) Option {
	return func(o *options) error {
		s, err := matcher.ParseStrategy(strategy)
		if err != nil {
			return err
		}
		o.strategy = s
		return nil
	}
}

// WithCanonicalOrder sets the category keys written first, in order.
func WithCanonicalOrder(keys ...string) Option {
	return func(o *options) error {
		o.canonical = keys
		return nil
	}
}

// WithExclusions replaces the default excluded categories and items.
func WithExclusions(e catalog.Exclusions) Option {
	return func(o *options) error {
		o.exclusions = e
		return nil
	}
}

// WithPickMarker sets the link text that flags a featured pick.
func WithPickMarker(marker string) Option {
	return func(o *options) error {
		if marker != "" {
			o.pickMarker = marker
		}
		return nil
	}
}

// WithFetcher sets how the link page is retrieved. The default renders it in
// a headless browser.
func WithFetcher(f scrape.Fetcher) Option {
	return func(o *options) error {
		o.fetcher = f
		return nil
	}
}

// WithDownloadConfig configures image downloads.
func WithDownloadConfig(cfg download.Config) Option {
	return func(o *options) error {
		o.download = cfg
		return nil
	}
}

// WithAutoSync configures whether periodic syncs start with the client.
func WithAutoSync(enabled bool) Option {
	return func(o *options) error {
		o.autoSyncEnabled = enabled
		return nil
	}
}

// WithAutoSyncInterval configures how often periodic syncs run.
func WithAutoSyncInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoSyncInterval = interval
		return nil
	}
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		o.logger = logger
		return nil
	}
}
