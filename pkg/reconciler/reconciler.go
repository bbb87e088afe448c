// Package reconciler merges a freshly scraped catalog into the persisted one.
//
// Products are paired by fuzzy name matching within a category. Scraped data
// wins for name, price, url, and pick; the persisted image path is kept while
// the file exists. Products and categories that vanished from the source are
// carried over untouched, since the source may simply be incomplete.
// Reconcile is a pure function of its inputs and the injected image check.
package reconciler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/bmedia/gearsync/internal/utils/ptr"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/images"
	"github.com/bmedia/gearsync/pkg/logging"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// Reconciler merges scraped and persisted catalogs.
type Reconciler interface {
	// Reconcile never fails: nil catalogs are treated as empty, and every
	// decision is reported through the result's change log.
	Reconcile(ctx context.Context, scraped, persisted *catalog.Catalog) *Result
}

// reconciler is the default implementation of Reconciler.
type reconciler struct {
	*options
}

// New creates a new Reconciler with options.
func New(opts ...Option) (Reconciler, error) {
	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &reconciler{options: options}, nil
}

// run holds the state of one Reconcile call.
type run struct {
	*reconciler
	logger *zerolog.Logger
	result *Result
	queued map[string]bool
}

// Reconcile implements Reconciler.
func (r *reconciler) Reconcile(ctx context.Context, scraped, persisted *catalog.Catalog) *Result {
	if scraped == nil {
		scraped = catalog.New()
	}
	if persisted == nil {
		persisted = catalog.New()
	}

	logger := r.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	result := NewResult()
	result.Metadata.Strategy = r.strategy
	result.Metadata.Threshold = r.threshold
	result.Metadata.Stats.ScrapedProducts = scraped.ProductCount()
	result.Metadata.Stats.PersistedProducts = persisted.ProductCount()

	rn := &run{reconciler: r, logger: logger, result: result, queued: map[string]bool{}}

	for _, key := range r.order(scraped, persisted) {
		result.Metadata.Stats.CategoriesProcessed++

		pcat, _ := persisted.Category(key)
		scat, onSource := scraped.Category(key)
		if !onSource {
			result.Catalog.Set(pcat.Clone())
			result.Log.Add(changelog.Entry{
				Kind:     changelog.KindCategoryKept,
				Category: key,
				Items:    len(pcat.Items),
			})
			logger.Info().
				Str("category", key).
				Int("items", len(pcat.Items)).
				Msg("Category not on source, keeping")
			continue
		}

		items := rn.category(key, scat, pcat)
		result.Catalog.Set(catalog.Category{Key: key, Items: items})
	}

	result.Finalize()
	logger.Debug().
		Dur("duration", result.Metadata.Duration).
		Str("summary", result.Log.Summary().String()).
		Msg("Reconciliation complete")
	return result
}

// order returns the category keys of the merged catalog: canonical keys that
// occur in either input, then scraped order, then persisted-only keys.
func (r *reconciler) order(scraped, persisted *catalog.Catalog) []string {
	seen := make(map[string]bool)
	keys := make([]string, 0, scraped.Len()+persisted.Len())
	push := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	for _, k := range r.canonical {
		if scraped.Has(k) || persisted.Has(k) {
			push(k)
		}
	}
	for _, k := range scraped.Keys() {
		push(k)
	}
	for _, k := range persisted.Keys() {
		push(k)
	}
	return keys
}

// category merges one category present on the source.
func (rn *run) category(key string, scraped, persisted catalog.Category) []catalog.Product {
	src := newIndex(scraped.Items)
	old := newIndex(persisted.Items)
	rn.result.Metadata.Stats.DuplicatesDropped += src.dupes + old.dupes

	consumed := make([]bool, old.len())
	items := make([]catalog.Product, 0, src.len()+old.len())

	// A persisted product pairs with at most one scraped product.
	for _, s := range src.products {
		names, back := old.available(consumed)
		i, score, ok := rn.strategy.Find(s.Name, names, rn.threshold)
		if !ok {
			items = append(items, rn.add(key, s))
			continue
		}
		pi := back[i]
		consumed[pi] = true
		items = append(items, rn.merge(key, s, old.products[pi], score))
	}

	for pi, p := range old.products {
		if consumed[pi] {
			continue
		}
		if j, score, ok := rn.matchScraped(p.Name, src.names); ok {
			rn.result.Log.Add(changelog.Entry{
				Kind:         changelog.KindCollapsed,
				Category:     key,
				Name:         src.names[j],
				PreviousName: p.Name,
				Score:        score,
			})
			rn.logger.Warn().
				Str("category", key).
				Str("product", p.Name).
				Str("into", src.names[j]).
				Msg("Persisted product duplicates a scraped product, collapsing")
			continue
		}

		items = append(items, p.Clone())
		rn.result.Log.Add(changelog.Entry{
			Kind:      changelog.KindKept,
			Category:  key,
			Name:      p.Name,
			ImagePath: p.Image,
		})
		rn.logger.Debug().Str("category", key).Str("product", p.Name).Msg("Product not on source, keeping")
	}

	return items
}

// matchScraped is the second check for a persisted product left unpaired.
// Scores are computed in the same argument order as the first pass.
func (rn *run) matchScraped(name string, scraped []string) (int, float64, bool) {
	best, bestScore := -1, 0.0
	for j, s := range scraped {
		score := matcher.Similarity(s, name)
		if score < rn.threshold {
			continue
		}
		if rn.strategy == matcher.StrategyFirst {
			return j, score, true
		}
		if score > bestScore {
			best, bestScore = j, score
		}
	}
	return best, bestScore, best >= 0
}

// add handles a scraped product with no persisted counterpart.
func (rn *run) add(key string, s catalog.Product) catalog.Product {
	res := rn.policy.Resolve(s, rn.assets)

	p := s.Clone()
	p.Image = res.Path

	entry := changelog.Entry{
		Kind:      changelog.KindAdded,
		Category:  key,
		Name:      s.Name,
		ImagePath: res.Path,
	}
	switch {
	case res.Job != nil:
		entry.Image = changelog.ImageQueued
		rn.queue(key, *res.Job)
	case res.NeedsAttention:
		entry.Image = changelog.ImageManual
	default:
		entry.Image = changelog.ImagePresent
	}
	rn.result.Log.Add(entry)

	rn.logger.Info().
		Str("category", key).
		Str("product", s.Name).
		Str("price", s.PriceString()).
		Str("image", string(entry.Image)).
		Msg("New product")
	return p
}

// merge combines a scraped product with its persisted match.
func (rn *run) merge(key string, s, p catalog.Product, score float64) catalog.Product {
	changes := diff(p, s)
	imagePresent := p.Image != "" && rn.assets.Exists(p.Image)

	merged := p.Clone()
	merged.Name = s.Name
	merged.ImageSourceURL = s.ImageSourceURL

	entry := changelog.Entry{
		Category:     key,
		Name:         s.Name,
		PreviousName: p.Name,
		Score:        score,
		ImagePath:    p.Image,
	}

	if imagePresent && len(changes) == 0 {
		entry.Kind = changelog.KindUnchanged
		entry.Image = changelog.ImagePresent
		rn.result.Log.Add(entry)
		return merged
	}

	merged.Price = ptr.Clone(s.Price)
	merged.URL = s.URL
	merged.Pick = s.Pick

	switch {
	case imagePresent:
		entry.Image = changelog.ImagePresent
	case s.ImageSourceURL != "":
		res := rn.policy.Resolve(catalog.Product{Name: s.Name, ImageSourceURL: s.ImageSourceURL}, rn.assets)
		merged.Image = res.Path
		entry.Image = changelog.ImagePresent
		if res.Job != nil {
			entry.Image = changelog.ImageQueued
			rn.queue(key, *res.Job)
		}
	case p.Image == "":
		merged.Image = rn.policy.Path(s.Name, "")
		entry.Image = changelog.ImageManual
	default:
		entry.Image = changelog.ImageMissing
	}
	switch {
	case merged.Image != p.Image:
		changes = append(changes, changelog.FieldChange{
			Field:    changelog.FieldImage,
			OldValue: p.Image,
			NewValue: merged.Image,
		})
	case !imagePresent:
		// same path, file absent
		changes = append(changes, changelog.FieldChange{
			Field:    changelog.FieldImage,
			OldValue: p.Image,
			NewValue: string(changelog.ImageMissing),
		})
	}
	entry.ImagePath = merged.Image
	entry.Kind = changelog.KindUpdated
	entry.Changes = changes
	rn.result.Log.Add(entry)

	ev := rn.logger.Info().
		Str("category", key).
		Str("product", s.Name).
		Strs("fields", fieldNames(changes)).
		Str("image", string(entry.Image))
	if p.Name != s.Name {
		ev = ev.Str("previous_name", p.Name).Float64("score", score)
	}
	ev.Msg("Updated product")
	return merged
}

// queue records an image job once per destination path.
func (rn *run) queue(key string, job images.Job) {
	if rn.queued[job.DestPath] {
		return
	}
	rn.queued[job.DestPath] = true
	job.Category = key
	rn.result.Jobs = append(rn.result.Jobs, job)
}

// diff lists the scraped fields that differ from the persisted product.
func diff(old, cur catalog.Product) []changelog.FieldChange {
	var changes []changelog.FieldChange
	if !old.SamePrice(cur) {
		changes = append(changes, changelog.FieldChange{
			Field:    changelog.FieldPrice,
			OldValue: formatPrice(old.Price),
			NewValue: formatPrice(cur.Price),
		})
	}
	if old.URL != cur.URL {
		changes = append(changes, changelog.FieldChange{Field: changelog.FieldURL, OldValue: old.URL, NewValue: cur.URL})
	}
	if old.Pick != cur.Pick {
		changes = append(changes, changelog.FieldChange{
			Field:    changelog.FieldPick,
			OldValue: strconv.FormatBool(old.Pick),
			NewValue: strconv.FormatBool(cur.Pick),
		})
	}
	if old.Name != cur.Name {
		changes = append(changes, changelog.FieldChange{Field: changelog.FieldName, OldValue: old.Name, NewValue: cur.Name})
	}
	return changes
}

func formatPrice(p *int) string {
	if p == nil {
		return "null"
	}
	return strconv.Itoa(*p)
}

func fieldNames(changes []changelog.FieldChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = string(c.Field)
	}
	return out
}
