package catalog

// Exclusions lists scraped content that is never part of the catalog:
// whole categories (for example a contact-address heading) and specific
// link texts under a category (footer links rendered inside the last section).
type Exclusions struct {
	Categories []string            `json:"categories" yaml:"categories" mapstructure:"categories"`
	Items      map[string][]string `json:"items" yaml:"items" mapstructure:"items"`
}

// DefaultExclusions returns the exclusions for the stock link page.
func DefaultExclusions() Exclusions {
	return Exclusions{
		Categories: []string{
			"bostrommediastrategies@gmail.com",
			"cookie-preferences",
		},
		Items: map[string][]string{
			"headphone-cables-and-interconnects-by-hart-audio": {
				"Report",
				"Privacy",
				"Learn more about Linktree",
				"Cookie Notice.",
				"Sign up free",
			},
		},
	}
}

// ExcludesCategory reports whether the category key is excluded.
func (e Exclusions) ExcludesCategory(key string) bool {
	for _, k := range e.Categories {
		if k == key {
			return true
		}
	}
	return false
}

// ExcludesItem reports whether the product name is excluded under the category.
func (e Exclusions) ExcludesItem(key, text string) bool {
	for _, t := range e.Items[key] {
		if t == text {
			return true
		}
	}
	return false
}
