// Package catalog holds the gear catalog data model: ordered categories of
// products, where both category order and item order are display order.
package catalog

import (
	"fmt"
	"strings"

	"github.com/bmedia/gearsync/pkg/errors"
)

// Catalog is an ordered mapping of category key to products.
// Insertion order is preserved and is the order categories are written in.
// The zero value is an empty, usable catalog.
type Catalog struct {
	keys  []string
	index map[string]int
	cats  []Category
}

// New creates a catalog holding the given categories in order.
// A repeated key replaces the earlier category's items but keeps its position.
func New(categories ...Category) *Catalog {
	c := &Catalog{}
	for _, cat := range categories {
		c.Set(cat)
	}
	return c
}

// Set inserts or replaces a category. Replacing keeps the original position.
func (c *Catalog) Set(cat Category) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[cat.Key]; ok {
		c.cats[i] = cat
		return
	}
	c.index[cat.Key] = len(c.cats)
	c.keys = append(c.keys, cat.Key)
	c.cats = append(c.cats, cat)
}

// Append adds products to a category, creating it at the end when missing.
func (c *Catalog) Append(key string, products ...Product) {
	if i, ok := c.index[key]; ok {
		c.cats[i].Items = append(c.cats[i].Items, products...)
		return
	}
	c.Set(Category{Key: key, Items: append([]Product(nil), products...)})
}

// Category returns the category for key.
func (c *Catalog) Category(key string) (Category, bool) {
	if c == nil {
		return Category{}, false
	}
	i, ok := c.index[key]
	if !ok {
		return Category{}, false
	}
	return c.cats[i], true
}

// Has reports whether key is present.
func (c *Catalog) Has(key string) bool {
	_, ok := c.Category(key)
	return ok
}

// Keys returns category keys in order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Categories returns the categories in order. The slice is a copy, the
// products are shared.
func (c *Catalog) Categories() []Category {
	if c == nil {
		return nil
	}
	return append([]Category(nil), c.cats...)
}

// Len returns the number of categories.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.cats)
}

// ProductCount returns the number of products across all categories.
func (c *Catalog) ProductCount() int {
	n := 0
	for _, cat := range c.Categories() {
		n += len(cat.Items)
	}
	return n
}

// IsEmpty reports whether the catalog has no products at all.
func (c *Catalog) IsEmpty() bool {
	return c.ProductCount() == 0
}

// Copy returns a deep copy.
func (c *Catalog) Copy() *Catalog {
	out := &Catalog{}
	for _, cat := range c.Categories() {
		out.Set(cat.Clone())
	}
	return out
}

// Equal reports whether two catalogs have the same categories, order, and
// persisted product fields.
func (c *Catalog) Equal(other *Catalog) bool {
	a, b := c.Categories(), other.Categories()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || len(a[i].Items) != len(b[i].Items) {
			return false
		}
		for j := range a[i].Items {
			if !a[i].Items[j].Equal(b[i].Items[j]) {
				return false
			}
		}
	}
	return true
}

// Filter returns a copy keeping only categories for which keep returns true.
func (c *Catalog) Filter(keep func(Category) bool) *Catalog {
	out := &Catalog{}
	for _, cat := range c.Categories() {
		if keep(cat) {
			out.Set(cat.Clone())
		}
	}
	return out
}

// Validate checks the structural invariants of a catalog: non-empty keys
// and product names, non-negative prices, and unique names per category.
func (c *Catalog) Validate() error {
	for _, cat := range c.Categories() {
		if strings.TrimSpace(cat.Key) == "" {
			return errors.NewValidationError("category", cat.Key, "empty category key")
		}
		seen := make(map[string]bool, len(cat.Items))
		for i, p := range cat.Items {
			field := fmt.Sprintf("%s[%d]", cat.Key, i)
			if strings.TrimSpace(p.Name) == "" {
				return errors.NewValidationError(field+".name", p.Name, "empty product name")
			}
			if v, ok := p.PriceValue(); ok && v < 0 {
				return errors.NewValidationError(field+".price", v, "negative price")
			}
			if seen[p.Name] {
				return errors.NewValidationError(field+".name", p.Name, "duplicate product name")
			}
			seen[p.Name] = true
		}
	}
	return nil
}
