// Package constants provides shared constants used throughout gearsync.
// This includes timeouts, limits, file permissions, and the defaults that
// describe the catalog site layout.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for plain HTTP page fetches
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultDownloadTimeout bounds a single image download
	DefaultDownloadTimeout = 10 * time.Second

	// DefaultRenderTimeout bounds launching the browser and rendering the link page
	DefaultRenderTimeout = 90 * time.Second

	// DefaultSettleDelay is how long the rendered page is left to run scripts before scrolling
	DefaultSettleDelay = 5 * time.Second

	// ScrollPause is the pause after each scroll used to trigger lazy content
	ScrollPause = 2 * time.Second

	// SyncTimeout is the timeout for a whole sync run
	SyncTimeout = 10 * time.Minute

	// DefaultSyncInterval is the default interval between periodic syncs
	DefaultSyncInterval = 24 * time.Hour
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// DefaultDownloadWorkers is the number of concurrent image downloads
	DefaultDownloadWorkers = 4

	// DefaultDownloadRate is the steady-state image requests per second
	DefaultDownloadRate = 4.0

	// DownloadBurst is the token bucket burst size for image downloads
	DownloadBurst = 2

	// MaxImageBytes caps the size of a downloaded image
	MaxImageBytes = 20 * 1024 * 1024

	// MaxPageBytes caps the size of a fetched link page
	MaxPageBytes = 10 * 1024 * 1024

	// DefaultHistoryLimit is the default number of runs listed by the history command
	DefaultHistoryLimit = 20
)

// Browser constants used when rendering the link page
const (
	// ViewportWidth is the rendering window width
	ViewportWidth = 1920

	// ViewportHeight is the rendering window height
	ViewportHeight = 1080

	// UserAgent is the browser-like agent sent with page and image requests
	UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Catalog layout defaults
const (
	// DefaultSourceURL is the link page scraped when none is configured
	DefaultSourceURL = "https://linktr.ee/BostromMediaStrategies"

	// DefaultCatalogPath is the catalog file relative to the site root
	DefaultCatalogPath = "js/data.js"

	// DefaultExtrasPath is the extra-data file relative to the site root
	DefaultExtrasPath = "js/extraData.js"

	// DefaultImagesDir is the image directory, relative to the site root
	DefaultImagesDir = "images"

	// DefaultMatchThreshold is the minimum name similarity for two products to be the same
	DefaultMatchThreshold = 0.90

	// PickMarker flags a featured pick in link text
	PickMarker = "B_Media Pick"
)
