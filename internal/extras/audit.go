// Package extras audits the per-product media file against the catalog.
package extras

import (
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// Missing is a catalog product with no media entry.
type Missing struct {
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name" yaml:"name"`
}

// Orphan is a media entry whose product is no longer in the catalog.
// Suggestion is the closest catalog name, typically the product after a rename.
type Orphan struct {
	Name       string  `json:"name" yaml:"name"`
	Suggestion string  `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Score      float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Audit is the result of comparing the catalog with the media file.
type Audit struct {
	Missing  []Missing `json:"missing" yaml:"missing"`
	Orphaned []Orphan  `json:"orphaned" yaml:"orphaned"`
}

// Clean reports whether every product has media and every entry has a product.
func (a *Audit) Clean() bool {
	return len(a.Missing) == 0 && len(a.Orphaned) == 0
}

// Run compares cat with x. Missing products are listed in catalog order,
// orphans in file order. Orphans get a rename suggestion when some catalog
// name scores at least threshold.
func Run(cat *catalog.Catalog, x *persistence.Extras, threshold float64) *Audit {
	audit := &Audit{Missing: []Missing{}, Orphaned: []Orphan{}}

	var names []string
	inCatalog := map[string]bool{}
	for _, c := range cat.Categories() {
		for _, p := range c.Items {
			if !inCatalog[p.Name] {
				names = append(names, p.Name)
			}
			inCatalog[p.Name] = true
			if !x.Has(p.Name) {
				audit.Missing = append(audit.Missing, Missing{Category: c.Key, Name: p.Name})
			}
		}
	}

	if x == nil {
		return audit
	}
	for _, name := range x.Names {
		if inCatalog[name] {
			continue
		}
		o := Orphan{Name: name}
		if i, score, ok := matcher.FindBestMatch(name, names, threshold); ok {
			o.Suggestion, o.Score = names[i], score
		}
		audit.Orphaned = append(audit.Orphaned, o)
	}
	return audit
}
