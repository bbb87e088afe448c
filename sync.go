package gearsync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/agentstation/utc"

	"github.com/bmedia/gearsync/internal/download"
	"github.com/bmedia/gearsync/internal/history"
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/internal/report"
	"github.com/bmedia/gearsync/internal/scrape"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/images"
	"github.com/bmedia/gearsync/pkg/logging"
	"github.com/bmedia/gearsync/pkg/reconciler"
)

// Syncer runs syncs.
type Syncer interface {
	// Sync scrapes the link page and reconciles it into the catalog file.
	Sync(ctx context.Context, opts ...SyncOption) (*SyncResult, error)

	// LastSync returns the result of the most recent sync, or nil.
	LastSync() *SyncResult
}

// SyncOptions configures a single sync.
type SyncOptions struct {
	DryRun     bool          // Reconcile and report without writing anything
	ForceWrite bool          // Rewrite the catalog even when nothing changed
	NoImages   bool          // Skip image downloads
	ReportPath string        // Write a change report (.md or .xlsx) here
	Timeout    time.Duration // Bound for the whole run

	// Fetcher overrides the client's fetcher for this run.
	Fetcher scrape.Fetcher
}

// SyncOption is a function that configures sync options.
type SyncOption func(*SyncOptions)

// SyncWithDryRun enables dry run mode.
func SyncWithDryRun(enabled bool) SyncOption {
	return func(opts *SyncOptions) {
		opts.DryRun = enabled
	}
}

// SyncWithForceWrite rewrites the catalog even without changes.
func SyncWithForceWrite(enabled bool) SyncOption {
	return func(opts *SyncOptions) {
		opts.ForceWrite = enabled
	}
}

// SyncWithNoImages skips image downloads.
func SyncWithNoImages(enabled bool) SyncOption {
	return func(opts *SyncOptions) {
		opts.NoImages = enabled
	}
}

// SyncWithReport writes a change report to path.
func SyncWithReport(path string) SyncOption {
	return func(opts *SyncOptions) {
		opts.ReportPath = path
	}
}

// SyncWithTimeout bounds the whole run.
func SyncWithTimeout(timeout time.Duration) SyncOption {
	return func(opts *SyncOptions) {
		opts.Timeout = timeout
	}
}

// SyncWithFetcher overrides how the link page is retrieved for this run.
func SyncWithFetcher(f scrape.Fetcher) SyncOption {
	return func(opts *SyncOptions) {
		opts.Fetcher = f
	}
}

// NewSyncOptions creates SyncOptions with defaults.
func NewSyncOptions(opts ...SyncOption) *SyncOptions {
	options := &SyncOptions{
		Timeout: constants.SyncTimeout,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// SyncResult describes what a sync did.
type SyncResult struct {
	RunID       string        `json:"run_id" yaml:"run_id"`
	StartedAt   utc.Time      `json:"started_at" yaml:"started_at"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	SourceURL   string        `json:"source_url" yaml:"source_url"`
	CatalogPath string        `json:"catalog_path" yaml:"catalog_path"`
	DryRun      bool          `json:"dry_run" yaml:"dry_run"`

	// Wrote is set when the catalog file was rewritten.
	Wrote bool `json:"wrote" yaml:"wrote"`

	// SourceError is set when the link page could not be read; the run then
	// kept every persisted category.
	SourceError string `json:"source_error,omitempty" yaml:"source_error,omitempty"`

	// CatalogError is set when the persisted file was unreadable and the run
	// started from an empty catalog.
	CatalogError string `json:"catalog_error,omitempty" yaml:"catalog_error,omitempty"`

	Summary  changelog.Summary `json:"summary" yaml:"summary"`
	Products int               `json:"products" yaml:"products"`

	ImagesDownloaded int          `json:"images_downloaded" yaml:"images_downloaded"`
	ImagesFailed     []images.Job `json:"images_failed,omitempty" yaml:"images_failed,omitempty"`

	// HistoryID is the journal row of this run, zero when not recorded.
	HistoryID  int64  `json:"history_id,omitempty" yaml:"history_id,omitempty"`
	ReportPath string `json:"report_path,omitempty" yaml:"report_path,omitempty"`

	Log     *changelog.Log   `json:"changes" yaml:"changes"`
	Catalog *catalog.Catalog `json:"-" yaml:"-"`
}

// HasChanges reports whether the run found anything to write.
func (r *SyncResult) HasChanges() bool {
	return r.Summary.Changes() > 0
}

// String returns a one-line description of the run.
func (r *SyncResult) String() string {
	state := "dry run"
	switch {
	case r.Wrote:
		state = "catalog written"
	case !r.DryRun:
		state = "catalog unchanged"
	}
	return fmt.Sprintf("%s: %s (%d products)", state, r.Summary, r.Products)
}

// Sync scrapes the link page, reconciles it with the persisted catalog,
// and writes the merged catalog.
//
// An unreadable link page or catalog file does not fail the run: the page
// counts as empty, so every persisted category is kept, and the catalog file
// counts as empty, so every scraped product is added. The file is rewritten
// only when the run changed something, the file was missing or empty, or
// ForceWrite is set; DryRun never writes. Image download failures are logged
// and listed in the result.
func (c *client) Sync(ctx context.Context, opts ...SyncOption) (*SyncResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	options := NewSyncOptions(opts...)

	var cancel context.CancelFunc
	if options.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
	} else {
		cancel = func() {}
	}
	defer cancel()

	c.syncMu.Lock()
	defer c.syncMu.Unlock()

	if c.options.logger != nil && logging.FromContext(ctx) == logging.Default() {
		ctx = logging.WithLogger(ctx, c.options.logger)
	}
	started := utc.Now()
	runID := newRunID(started.Time)
	ctx = logging.WithRun(ctx, runID)
	logger := logging.FromContext(ctx)

	o := c.options
	path := o.catalogFile()
	result := &SyncResult{
		RunID:       runID,
		StartedAt:   started,
		SourceURL:   o.sourceURL,
		CatalogPath: path,
		DryRun:      options.DryRun,
	}

	// Step 1: load the persisted catalog
	persisted, err := persistence.Load(path, o.format())
	switch {
	case err == nil:
	case errors.IsNotFound(err):
		logger.Warn().Str("path", path).Msg("Catalog file not found, starting empty")
	case errors.IsMalformedCatalog(err):
		result.CatalogError = err.Error()
		logger.Warn().Err(err).Str("path", path).Msg("Catalog file unreadable, starting empty")
	default:
		return nil, errors.WrapResource("load", "catalog", path, err)
	}
	emptyFile := persisted.Len() == 0

	// Step 2: scrape the link page
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = o.fetcherOrDefault()
	}
	s := scrape.New(fetcher,
		scrape.WithExclusions(o.exclusions),
		scrape.WithPickMarker(o.pickMarker),
	)
	scraped, srcErr := s.Scrape(ctx, o.sourceURL)
	if srcErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(errors.ErrCanceled, ctxErr)
		}
		result.SourceError = srcErr.Error()
		logger.Error().Err(srcErr).Msg("Link page unavailable, keeping persisted catalog")
	}

	// Step 3: reconcile
	rec, err := reconciler.New(
		reconciler.WithThreshold(o.threshold),
		reconciler.WithStrategy(o.strategy),
		reconciler.WithCanonicalOrder(o.canonical...),
		reconciler.WithAssets(images.DirAssets{Root: o.siteRoot}),
		reconciler.WithImagePolicy(images.Policy{Dir: o.imagesDir}),
		reconciler.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}
	merged := rec.Reconcile(ctx, scraped, persisted)
	result.Log = merged.Log
	result.Summary = merged.Log.Summary()
	result.Products = merged.Catalog.ProductCount()
	result.Catalog = merged.Catalog

	if merged.HasChanges() {
		logger.Info().
			Int("added", result.Summary.Added).
			Int("updated", result.Summary.Updated).
			Int("collapsed", result.Summary.Collapsed).
			Int("kept", result.Summary.Kept).
			Msg("Changes detected")
	} else {
		logger.Info().Msg("No changes detected")
	}

	// Step 4: write the catalog
	shouldWrite := merged.HasChanges() || options.ForceWrite || (emptyFile && srcErr == nil)
	switch {
	case options.DryRun:
		logger.Info().Bool("dry_run", true).Msg("Dry run completed - catalog not written")
	case shouldWrite:
		if err := persistence.Save(path, merged.Catalog, o.format()); err != nil {
			return nil, err
		}
		result.Wrote = true
		logger.Info().
			Str("path", path).
			Int("categories", merged.Catalog.Len()).
			Int("products", result.Products).
			Msg("Catalog written")
	default:
		logger.Info().Str("path", path).Msg("No changes needed, catalog left as is")
	}

	// Step 5: download images
	if !options.DryRun && !options.NoImages && len(merged.Jobs) > 0 {
		dl := download.New(o.siteRoot, o.download).Run(ctx, merged.Jobs)
		result.ImagesDownloaded = dl.Succeeded()
		for _, f := range dl.Failed() {
			result.ImagesFailed = append(result.ImagesFailed, f.Job)
		}
	}
	result.Duration = time.Since(started.Time)

	if !options.DryRun {
		c.hooks.trigger(merged.Log, merged.Catalog, persisted)
		c.store(merged.Catalog, result)
	} else {
		c.store(nil, result)
	}

	// Step 6: journal and report
	if o.historyPath != "" {
		id, err := c.record(ctx, result)
		if err != nil {
			logger.Warn().Err(err).Str("path", o.historyPath).Msg("Could not record run history")
		} else {
			result.HistoryID = id
		}
	}
	if options.ReportPath != "" {
		if err := report.Write(options.ReportPath, reportData(result)); err != nil {
			return result, errors.WrapResource("write", "report", options.ReportPath, err)
		}
		result.ReportPath = options.ReportPath
		logger.Info().Str("path", options.ReportPath).Msg("Report written")
	}

	return result, nil
}

func (c *client) record(ctx context.Context, r *SyncResult) (int64, error) {
	store, err := history.Open(c.options.sitePath(c.options.historyPath))
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()

	return store.Record(ctx, history.Run{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt,
		Duration:     r.Duration,
		SourceURL:    r.SourceURL,
		CatalogPath:  r.CatalogPath,
		Strategy:     c.options.strategy.String(),
		DryRun:       r.DryRun,
		Wrote:        r.Wrote,
		SourceError:  r.SourceError,
		Summary:      r.Summary,
		Products:     r.Products,
		ImagesFailed: len(r.ImagesFailed),
	}, r.Log)
}

func reportData(r *SyncResult) report.Data {
	return report.Data{
		RunID:        r.RunID,
		StartedAt:    r.StartedAt.Time,
		Duration:     r.Duration,
		SourceURL:    r.SourceURL,
		CatalogPath:  r.CatalogPath,
		DryRun:       r.DryRun,
		Wrote:        r.Wrote,
		SourceError:  r.SourceError,
		Log:          r.Log,
		FailedImages: r.ImagesFailed,
	}
}

// newRunID derives a sortable run id from the start time.
func newRunID(t time.Time) string {
	return t.UTC().Format("20060102T150405") + "-" + strconv.FormatInt(int64(t.Nanosecond()/1000), 36)
}
