package gearsync

import (
	"sync"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
)

// Hook function types for product events
type (
	// ProductAddedHook is called for a scraped product new to the catalog
	ProductAddedHook func(category string, product catalog.Product)

	// ProductUpdatedHook is called for a matched product whose fields changed
	ProductUpdatedHook func(category string, old, new catalog.Product, changes []changelog.FieldChange)

	// ProductKeptHook is called for a persisted product the page no longer lists
	ProductKeptHook func(category string, product catalog.Product)
)

// Hooks registers callbacks fired after each sync that is not a dry run.
type Hooks interface {
	OnProductAdded(fn ProductAddedHook)
	OnProductUpdated(fn ProductUpdatedHook)
	OnProductKept(fn ProductKeptHook)
}

// hooks manages event callbacks for catalog changes
type hooks struct {
	mu               sync.RWMutex
	onProductAdded   []ProductAddedHook
	onProductUpdated []ProductUpdatedHook
	onProductKept    []ProductKeptHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnProductAdded registers a callback for added products.
func (c *client) OnProductAdded(fn ProductAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductAdded = append(c.hooks.onProductAdded, fn)
}

// OnProductUpdated registers a callback for updated products.
func (c *client) OnProductUpdated(fn ProductUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductUpdated = append(c.hooks.onProductUpdated, fn)
}

// OnProductKept registers a callback for kept products.
func (c *client) OnProductKept(fn ProductKeptHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onProductKept = append(c.hooks.onProductKept, fn)
}

// trigger walks the change log in order and fires the matching hooks with
// products looked up in the merged and persisted catalogs.
func (h *hooks) trigger(log *changelog.Log, merged, persisted *catalog.Catalog) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, e := range log.Entries {
		switch e.Kind {
		case changelog.KindAdded:
			p, ok := find(merged, e.Category, e.Name)
			if !ok {
				continue
			}
			for _, hook := range h.onProductAdded {
				hook(e.Category, p)
			}
		case changelog.KindUpdated:
			cur, ok := find(merged, e.Category, e.Name)
			if !ok {
				continue
			}
			prevName := e.PreviousName
			if prevName == "" {
				prevName = e.Name
			}
			old, _ := find(persisted, e.Category, prevName)
			for _, hook := range h.onProductUpdated {
				hook(e.Category, old, cur, e.Changes)
			}
		case changelog.KindKept:
			p, ok := find(merged, e.Category, e.Name)
			if !ok {
				continue
			}
			for _, hook := range h.onProductKept {
				hook(e.Category, p)
			}
		}
	}
}

func find(cat *catalog.Catalog, key, name string) (catalog.Product, bool) {
	c, ok := cat.Category(key)
	if !ok {
		return catalog.Product{}, false
	}
	for _, p := range c.Items {
		if p.Name == name {
			return p.Clone(), true
		}
	}
	return catalog.Product{}, false
}
