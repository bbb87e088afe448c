package reconciler

import (
	"fmt"
	"time"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/images"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// Result represents the outcome of a reconciliation.
type Result struct {
	// Catalog is the merged catalog to be written.
	Catalog *catalog.Catalog

	// Log holds one entry per product or category decision.
	Log *changelog.Log

	// Jobs are the image downloads the merged catalog depends on.
	Jobs []images.Job

	Metadata ResultMetadata
}

// ResultMetadata contains metadata about the reconciliation process.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Strategy  matcher.Strategy
	Threshold float64

	Stats ResultStatistics
}

// ResultStatistics contains statistics about the reconciliation.
type ResultStatistics struct {
	CategoriesProcessed int
	ScrapedProducts     int
	PersistedProducts   int
	MergedProducts      int
	// DuplicatesDropped counts exact-name repeats within one input category.
	DuplicatesDropped int
}

// NewResult creates a new result with defaults.
func NewResult() *Result {
	return &Result{
		Catalog: catalog.New(),
		Log:     changelog.New(),
		Jobs:    []images.Job{},
		Metadata: ResultMetadata{
			StartTime: time.Now(),
		},
	}
}

// HasChanges reports whether the merged catalog differs from the persisted one
// in a way that warrants a rewrite.
func (r *Result) HasChanges() bool {
	return r.Log.HasChanges()
}

// Summary returns a human-readable summary of the result.
func (r *Result) Summary() string {
	return fmt.Sprintf("%d categories, %d products: %s",
		r.Catalog.Len(), r.Catalog.ProductCount(), r.Log.Summary())
}

// Finalize calculates duration and marks completion.
func (r *Result) Finalize() {
	r.Metadata.EndTime = time.Now()
	r.Metadata.Duration = r.Metadata.EndTime.Sub(r.Metadata.StartTime)
	r.Metadata.Stats.MergedProducts = r.Catalog.ProductCount()
}
