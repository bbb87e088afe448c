// Package gearsync keeps a site's gear catalog in step with a Linktree page.
//
// A sync scrapes the link page, reconciles the scraped products against the
// catalog file the site already serves, rewrites that file when something
// changed, and downloads the images new products need. Persisted products
// the page no longer shows are kept, so hand edits survive.
//
// Example usage:
//
//	client, err := gearsync.New(
//	    gearsync.WithSiteRoot("./site"),
//	    gearsync.WithHistoryPath("./site/.gearsync/history.db"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.AutoSyncOff()
//
//	client.OnProductAdded(func(category string, p catalog.Product) {
//	    log.Printf("new in %s: %s", category, p.Name)
//	})
//
//	result, err := client.Sync(ctx, gearsync.SyncWithDryRun(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary)
package gearsync

import (
	"sync"
	"time"

	"github.com/bmedia/gearsync/internal/extras"
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Catalog provides copy-on-read access to the catalog.
type Catalog interface {
	// Catalog returns a copy of the latest catalog: the merged result of the
	// last sync, or the persisted file when no sync has run yet.
	Catalog() (*catalog.Catalog, error)
}

// Auditor compares the catalog with the extra-data file.
type Auditor interface {
	Audit() (*extras.Audit, error)
}

// Client manages a gear catalog with syncs, periodic syncs, and event hooks.
type Client interface {
	Catalog
	Syncer
	Auditor
	AutoSyncer
	Hooks
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options

	// syncMu serializes syncs; a second caller waits for the first.
	syncMu sync.Mutex

	mu      sync.RWMutex
	catalog *catalog.Catalog
	last    *SyncResult

	autoMu     sync.Mutex
	autoCancel func()
	autoDone   chan struct{}

	hooks *hooks
}

// New creates a new Client with the given options. The persisted catalog is
// read right away; a missing or unreadable file leaves the client with an
// empty catalog.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		catalog: catalog.New(),
		hooks:   newHooks(),
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Default()
	}

	path := o.catalogFile()
	cat, err := persistence.Load(path, o.format())
	switch {
	case err == nil:
		c.catalog = cat
		logger.Debug().
			Str("path", path).
			Int("categories", cat.Len()).
			Int("products", cat.ProductCount()).
			Msg("Catalog loaded")
	case errors.IsNotFound(err):
		logger.Debug().Str("path", path).Msg("No catalog file yet")
	case errors.IsMalformedCatalog(err):
		logger.Warn().Err(err).Str("path", path).Msg("Catalog file unreadable, starting empty")
	default:
		return nil, errors.WrapResource("load", "catalog", path, err)
	}

	if o.autoSyncEnabled {
		if err := c.AutoSyncOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-sync", "", err)
		}
	}

	return c, nil
}

// Catalog returns a copy of the current catalog.
func (c *client) Catalog() (*catalog.Catalog, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog.Copy(), nil
}

// LastSync returns the result of the most recent sync, or nil.
func (c *client) LastSync() *SyncResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Audit compares the current catalog with the extra-data file.
func (c *client) Audit() (*extras.Audit, error) {
	if c.options.extrasPath == "" {
		return nil, errors.NewConfigError("extras", "no extra-data path configured", nil)
	}
	path := c.options.sitePath(c.options.extrasPath)
	x, err := persistence.LoadExtras(path)
	if err != nil {
		return nil, err
	}
	cat, _ := c.Catalog()
	return extras.Run(cat, x, c.options.threshold), nil
}

func (c *client) store(cat *catalog.Catalog, result *SyncResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cat != nil {
		c.catalog = cat
	}
	c.last = result
}

// interval returns the configured periodic sync interval.
func (c *client) interval() time.Duration {
	return c.options.autoSyncInterval
}
