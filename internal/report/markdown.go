package report

import (
	"io"
	"strconv"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/errors"
)

// WriteMarkdown writes a Markdown report: run details, counts per kind, the
// change table, and any images that still need attention.
func WriteMarkdown(w io.Writer, d Data) error {
	doc := md.NewMarkdown(w)
	doc.H1("Gear Sync Report").LF()

	details := []string{
		"Run: " + md.Code(d.RunID),
		"Source: " + d.SourceURL,
		"Catalog: " + md.Code(d.CatalogPath),
	}
	if !d.StartedAt.IsZero() {
		details = append(details, "Started: "+d.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	if d.Duration > 0 {
		details = append(details, "Duration: "+d.Duration.Round(time.Millisecond).String())
	}
	switch {
	case d.DryRun:
		details = append(details, "Catalog: "+md.Bold("not written (dry run)"))
	case d.Wrote:
		details = append(details, "Catalog: "+md.Bold("written"))
	default:
		details = append(details, "Catalog: "+md.Bold("unchanged"))
	}
	doc.BulletList(details...)

	if d.SourceError != "" {
		doc.PlainText("> " + md.Bold("Source unavailable:") + " " + d.SourceError).LF().LF()
	}

	summary := changelog.Summary{}
	if d.Log != nil {
		summary = d.Log.Summary()
	}
	doc.H2("Summary").LF()
	doc.Table(md.TableSet{
		Header: []string{"Kind", "Count"},
		Rows: [][]string{
			{KindTitle(changelog.KindAdded), itoa(summary.Added)},
			{KindTitle(changelog.KindUpdated), itoa(summary.Updated)},
			{KindTitle(changelog.KindCollapsed), itoa(summary.Collapsed)},
			{KindTitle(changelog.KindKept), itoa(summary.Kept)},
			{KindTitle(changelog.KindCategoryKept), itoa(summary.CategoriesKept)},
			{KindTitle(changelog.KindUnchanged), itoa(summary.Unchanged)},
		},
	})

	entries := reportable(d.Log)
	doc.H2("Changes").LF()
	if len(entries) == 0 {
		doc.PlainText("No changes.").LF()
	} else {
		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = entryRow(e)
		}
		doc.Table(md.TableSet{Header: columns, Rows: rows})
	}

	var attention []string
	for _, e := range entries {
		if e.Image == changelog.ImageManual || e.Image == changelog.ImageMissing {
			attention = append(attention, e.Name+": "+md.Code(e.ImagePath))
		}
	}
	for _, j := range d.FailedImages {
		attention = append(attention, j.Product+": download failed, "+md.Code(j.DestPath))
	}
	if len(attention) > 0 {
		doc.H2("Images Needing Attention").LF()
		doc.BulletList(attention...)
	}

	if err := doc.Build(); err != nil {
		return errors.WrapIO("write", "markdown report", err)
	}
	return nil
}

func itoa(n int) string { return strconv.Itoa(n) }
