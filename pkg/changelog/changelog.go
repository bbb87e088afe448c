// Package changelog records what a reconciliation did to each product and
// category, so that every merge decision can be audited after a run.
package changelog

import (
	"fmt"
	"strings"
)

// Kind is the outcome recorded for a product or category.
type Kind string

const (
	// KindAdded is a scraped product with no persisted counterpart.
	KindAdded Kind = "added"
	// KindUpdated is a matched product whose fields changed.
	KindUpdated Kind = "updated"
	// KindUnchanged is a matched product with no differences.
	KindUnchanged Kind = "unchanged"
	// KindKept is a persisted product absent from the scrape, carried over as is.
	KindKept Kind = "kept"
	// KindCollapsed is a persisted product that matched a scraped product
	// already claimed by another persisted product, and was folded into it.
	KindCollapsed Kind = "collapsed"
	// KindCategoryKept is a persisted category absent from the scrape.
	KindCategoryKept Kind = "category-kept"
)

// Kinds lists every kind in reporting order.
func Kinds() []Kind {
	return []Kind{KindAdded, KindUpdated, KindUnchanged, KindKept, KindCollapsed, KindCategoryKept}
}

// Field names a product attribute.
type Field string

// Product fields compared during reconciliation.
const (
	FieldName  Field = "name"
	FieldPrice Field = "price"
	FieldURL   Field = "url"
	FieldPick  Field = "pick"
	FieldImage Field = "image"
)

// FieldChange is a change to a single product field.
type FieldChange struct {
	Field    Field  `json:"field" yaml:"field"`
	OldValue string `json:"old" yaml:"old"`
	NewValue string `json:"new" yaml:"new"`
}

// String renders the change as "field: old -> new".
func (f FieldChange) String() string {
	return fmt.Sprintf("%s: %s -> %s", f.Field, quoteEmpty(f.OldValue), quoteEmpty(f.NewValue))
}

func quoteEmpty(s string) string {
	if s == "" {
		return `""`
	}
	return s
}

// ImageStatus describes a product's image after reconciliation.
type ImageStatus string

const (
	// ImageNone means the image was not examined.
	ImageNone ImageStatus = ""
	// ImagePresent means the referenced file exists.
	ImagePresent ImageStatus = "present"
	// ImageQueued means a download job was created.
	ImageQueued ImageStatus = "queued"
	// ImageManual means there is no source to download from.
	ImageManual ImageStatus = "manual"
	// ImageMissing means the file is absent and was left as is.
	ImageMissing ImageStatus = "missing"
)

// Entry is one audited decision.
type Entry struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Category string `json:"category" yaml:"category"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`

	// PreviousName is the persisted name a scraped product was matched to.
	PreviousName string `json:"previous_name,omitempty" yaml:"previous_name,omitempty"`

	// Score is the name similarity of the match, zero for unmatched entries.
	Score float64 `json:"score,omitempty" yaml:"score,omitempty"`

	Changes   []FieldChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Image     ImageStatus   `json:"image,omitempty" yaml:"image,omitempty"`
	ImagePath string        `json:"image_path,omitempty" yaml:"image_path,omitempty"`

	// Items is the number of products carried by a kept category.
	Items int `json:"items,omitempty" yaml:"items,omitempty"`
}

// ChangedFields returns the names of the changed fields.
func (e Entry) ChangedFields() []Field {
	out := make([]Field, len(e.Changes))
	for i, c := range e.Changes {
		out[i] = c.Field
	}
	return out
}

// HasField reports whether field is among the changes.
func (e Entry) HasField(field Field) bool {
	for _, c := range e.Changes {
		if c.Field == field {
			return true
		}
	}
	return false
}

// String renders a one-line description of the entry.
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Kind, e.Category)
	if e.Name != "" {
		fmt.Fprintf(&b, " / %s", e.Name)
	}
	if e.PreviousName != "" && e.PreviousName != e.Name {
		fmt.Fprintf(&b, " (was %s)", e.PreviousName)
	}
	if e.Kind == KindCategoryKept {
		fmt.Fprintf(&b, " (%d items)", e.Items)
	}
	if len(e.Changes) > 0 {
		parts := make([]string, len(e.Changes))
		for i, c := range e.Changes {
			parts[i] = c.String()
		}
		fmt.Fprintf(&b, ": %s", strings.Join(parts, "; "))
	}
	if e.Image == ImageQueued || e.Image == ImageManual || e.Image == ImageMissing {
		fmt.Fprintf(&b, " [image %s: %s]", e.Image, e.ImagePath)
	}
	return b.String()
}

// Summary counts entries per outcome.
type Summary struct {
	Added          int `json:"added" yaml:"added"`
	Updated        int `json:"updated" yaml:"updated"`
	Unchanged      int `json:"unchanged" yaml:"unchanged"`
	Kept           int `json:"kept" yaml:"kept"`
	Collapsed      int `json:"collapsed" yaml:"collapsed"`
	CategoriesKept int `json:"categories_kept" yaml:"categories_kept"`
	ImagesQueued   int `json:"images_queued" yaml:"images_queued"`
	ImagesManual   int `json:"images_manual" yaml:"images_manual"`
}

// Changes is the number of entries that alter the persisted catalog.
func (s Summary) Changes() int {
	return s.Added + s.Updated + s.Collapsed
}

// String returns a human-readable summary.
func (s Summary) String() string {
	if s.Changes() == 0 {
		return fmt.Sprintf("No changes detected (%d unchanged, %d kept, %d categories kept)",
			s.Unchanged, s.Kept, s.CategoriesKept)
	}
	parts := []string{}
	add := func(n int, label string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}
	add(s.Added, "added")
	add(s.Updated, "updated")
	add(s.Collapsed, "collapsed")
	add(s.Unchanged, "unchanged")
	add(s.Kept, "kept")
	add(s.CategoriesKept, "categories kept")
	add(s.ImagesQueued, "images queued")
	add(s.ImagesManual, "images need manual download")
	return strings.Join(parts, ", ")
}

// Log is an ordered list of entries.
type Log struct {
	Entries []Entry `json:"entries" yaml:"entries"`
}

// New returns an empty log.
func New() *Log {
	return &Log{}
}

// Add appends an entry.
func (l *Log) Add(e Entry) {
	l.Entries = append(l.Entries, e)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// ByKind returns the entries of one kind, in log order.
func (l *Log) ByKind(kind Kind) []Entry {
	if l == nil {
		return nil
	}
	var out []Entry
	for _, e := range l.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ByCategory returns the entries of one category, in log order.
func (l *Log) ByCategory(key string) []Entry {
	if l == nil {
		return nil
	}
	var out []Entry
	for _, e := range l.Entries {
		if e.Category == key {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the first entry for a product name in a category.
func (l *Log) Find(category, name string) (Entry, bool) {
	for _, e := range l.ByCategory(category) {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Summary counts the entries.
func (l *Log) Summary() Summary {
	var s Summary
	if l == nil {
		return s
	}
	for _, e := range l.Entries {
		switch e.Kind {
		case KindAdded:
			s.Added++
		case KindUpdated:
			s.Updated++
		case KindUnchanged:
			s.Unchanged++
		case KindKept:
			s.Kept++
		case KindCollapsed:
			s.Collapsed++
		case KindCategoryKept:
			s.CategoriesKept++
		}
		switch e.Image {
		case ImageQueued:
			s.ImagesQueued++
		case ImageManual:
			s.ImagesManual++
		}
	}
	return s
}

// HasChanges reports whether any entry alters the persisted catalog.
func (l *Log) HasChanges() bool {
	return l.Summary().Changes() > 0
}

// String renders every entry that is not unchanged, one per line.
func (l *Log) String() string {
	if l == nil {
		return ""
	}
	var lines []string
	for _, e := range l.Entries {
		if e.Kind == KindUnchanged {
			continue
		}
		lines = append(lines, e.String())
	}
	return strings.Join(lines, "\n")
}
