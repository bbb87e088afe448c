package catalog

import (
	"fmt"
	"strings"

	"github.com/bmedia/gearsync/internal/utils/ptr"
)

// Product is one recommendation entry in the catalog.
type Product struct {
	Name  string `json:"name" yaml:"name"`
	Price *int   `json:"price" yaml:"price"` // nil when the price is unknown
	URL   string `json:"url" yaml:"url"`
	Pick  bool   `json:"pick" yaml:"pick"`
	Image string `json:"image" yaml:"image"` // relative path, empty when none

	// ImageSourceURL is the remote image seen while scraping. It is never persisted.
	ImageSourceURL string `json:"-" yaml:"-"`
}

// PriceValue returns the price and whether it is known.
func (p Product) PriceValue() (int, bool) {
	if p.Price == nil {
		return 0, false
	}
	return *p.Price, true
}

// PriceString renders the price for display; unknown prices render as "-".
func (p Product) PriceString() string {
	if p.Price == nil {
		return "-"
	}
	return fmt.Sprintf("$%d", *p.Price)
}

// SamePrice reports whether both products carry the same price, treating two
// unknown prices as equal.
func (p Product) SamePrice(other Product) bool {
	return ptr.Equal(p.Price, other.Price)
}

// Equal compares the persisted fields of two products.
func (p Product) Equal(other Product) bool {
	return p.Name == other.Name &&
		p.SamePrice(other) &&
		p.URL == other.URL &&
		p.Pick == other.Pick &&
		p.Image == other.Image
}

// Clone returns a deep copy of the product.
func (p Product) Clone() Product {
	p.Price = ptr.Clone(p.Price)
	return p
}

// Persisted returns a copy without transient scrape-only fields.
func (p Product) Persisted() Product {
	c := p.Clone()
	c.ImageSourceURL = ""
	return c
}

// Category is an ordered list of products under a key such as "iems".
type Category struct {
	Key   string    `json:"key" yaml:"key"`
	Items []Product `json:"items" yaml:"items"`
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := Category{Key: c.Key}
	if c.Items != nil {
		out.Items = make([]Product, len(c.Items))
		for i, p := range c.Items {
			out.Items[i] = p.Clone()
		}
	}
	return out
}

// Names returns the product names in display order.
func (c Category) Names() []string {
	names := make([]string, len(c.Items))
	for i, p := range c.Items {
		names[i] = p.Name
	}
	return names
}

// CategoryKey turns a section heading into a catalog key:
// lowercase, with spaces replaced by hyphens.
func CategoryKey(heading string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(heading)), " ", "-")
}
