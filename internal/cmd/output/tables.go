package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bmedia/gearsync/internal/extras"
	"github.com/bmedia/gearsync/internal/history"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/changelog"
)

// ProductsTable lists every product, one row each, in catalog order.
func ProductsTable(cat *catalog.Catalog) Data {
	rows := [][]string{}
	for _, c := range cat.Categories() {
		for _, p := range c.Items {
			rows = append(rows, []string{
				c.Key,
				p.Name,
				p.PriceString(),
				check(p.Pick),
				p.Image,
				p.URL,
			})
		}
	}
	return Data{
		Headers:         []string{"Category", "Name", "Price", "Pick", "Image", "URL"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignCenter, AlignLeft, AlignLeft},
	}
}

// CategoriesTable lists categories with their product counts.
func CategoriesTable(cat *catalog.Catalog) Data {
	rows := make([][]string, 0, cat.Len())
	for _, c := range cat.Categories() {
		picks := 0
		for _, p := range c.Items {
			if p.Pick {
				picks++
			}
		}
		rows = append(rows, []string{c.Key, strconv.Itoa(len(c.Items)), strconv.Itoa(picks)})
	}
	return Data{
		Headers:         []string{"Category", "Products", "Picks"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight, AlignRight},
	}
}

// ChangesTable renders change-log entries. Unchanged entries are left out
// unless all is set.
func ChangesTable(log *changelog.Log, all bool) Data {
	rows := [][]string{}
	for _, e := range log.Entries {
		if e.Kind == changelog.KindUnchanged && !all {
			continue
		}
		rows = append(rows, []string{
			string(e.Kind),
			e.Category,
			e.Name,
			changeText(e),
			string(e.Image),
		})
	}
	return Data{
		Headers: []string{"Kind", "Category", "Product", "Changes", "Image"},
		Rows:    rows,
	}
}

func changeText(e changelog.Entry) string {
	var parts []string
	if e.PreviousName != "" && e.PreviousName != e.Name {
		parts = append(parts, fmt.Sprintf("was %q (%.2f)", e.PreviousName, e.Score))
	}
	for _, c := range e.Changes {
		if c.Field == changelog.FieldName {
			continue
		}
		parts = append(parts, c.String())
	}
	if e.Kind == changelog.KindCategoryKept {
		parts = append(parts, fmt.Sprintf("%d items", e.Items))
	}
	return strings.Join(parts, "; ")
}

// RunsTable renders recorded sync runs.
func RunsTable(runs []history.Run) Data {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := "dry-run"
		switch {
		case r.SourceError != "":
			status = "source-error"
		case r.Wrote:
			status = "written"
		case !r.DryRun:
			status = "no-op"
		}
		s := r.Summary
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Time.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(time.Millisecond).String(),
			status,
			strconv.Itoa(s.Added),
			strconv.Itoa(s.Updated),
			strconv.Itoa(s.Kept),
			strconv.Itoa(s.Collapsed),
			strconv.Itoa(r.Products),
			strconv.Itoa(r.ImagesFailed),
		})
	}
	return Data{
		Headers: []string{"ID", "Started", "Duration", "Status", "Added", "Updated", "Kept", "Collapsed", "Products", "Images Failed"},
		Rows:    rows,
		ColumnAlignment: []Align{
			AlignRight, AlignLeft, AlignRight, AlignLeft,
			AlignRight, AlignRight, AlignRight, AlignRight, AlignRight, AlignRight,
		},
	}
}

// AuditTable renders the media audit, missing entries first.
func AuditTable(a *extras.Audit) Data {
	rows := [][]string{}
	for _, m := range a.Missing {
		rows = append(rows, []string{"missing", m.Category, m.Name, ""})
	}
	for _, o := range a.Orphaned {
		suggestion := ""
		if o.Suggestion != "" {
			suggestion = fmt.Sprintf("%s (%.2f)", o.Suggestion, o.Score)
		}
		rows = append(rows, []string{"orphaned", "", o.Name, suggestion})
	}
	return Data{
		Headers: []string{"Status", "Category", "Product", "Suggestion"},
		Rows:    rows,
	}
}

func check(b bool) string {
	if b {
		return "✓"
	}
	return ""
}
