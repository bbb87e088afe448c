// Package report renders a sync's change log for human review, as Markdown
// or as an Excel workbook.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/images"
)

// Data is everything a report shows about one run.
type Data struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	SourceURL   string
	CatalogPath string
	DryRun      bool
	Wrote       bool
	SourceError string

	Log *changelog.Log

	// FailedImages are downloads that did not complete.
	FailedImages []images.Job
}

// Format is a report file format.
type Format string

// Report formats.
const (
	FormatMarkdown Format = "markdown"
	FormatXLSX     Format = "xlsx"
)

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", errors.NewValidationError("report", path, "report path must end in .md or .xlsx")
}

// Write renders d to path in the format implied by its extension.
func Write(path string, d Data) error {
	format, err := DetectFormat(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return errors.WrapIO("create", filepath.Dir(path), err)
	}

	switch format {
	case FormatXLSX:
		return WriteXLSX(path, d)
	default:
		f, err := os.Create(path)
		if err != nil {
			return errors.WrapIO("create", path, err)
		}
		if err := WriteMarkdown(f, d); err != nil {
			_ = f.Close()
			return err
		}
		return errors.WrapIO("close", path, f.Close())
	}
}

var titler = cases.Title(language.English)

// KindTitle renders a change kind for headings, e.g. "Category-Kept".
func KindTitle(k changelog.Kind) string {
	return titler.String(string(k))
}

// entryRow flattens an entry into report columns:
// kind, category, product, previous name, score, changes, image, image path.
func entryRow(e changelog.Entry) []string {
	changes := make([]string, len(e.Changes))
	for i, c := range e.Changes {
		changes[i] = c.String()
	}

	name := e.Name
	if e.Kind == changelog.KindCategoryKept {
		name = fmt.Sprintf("(%d items)", e.Items)
	}
	previous := ""
	if e.PreviousName != "" && e.PreviousName != e.Name {
		previous = e.PreviousName
	}
	score := ""
	if e.Score > 0 {
		score = strconv.FormatFloat(e.Score, 'f', 3, 64)
	}

	return []string{
		KindTitle(e.Kind),
		e.Category,
		name,
		previous,
		score,
		strings.Join(changes, "; "),
		string(e.Image),
		e.ImagePath,
	}
}

var columns = []string{"Kind", "Category", "Product", "Previous Name", "Score", "Changes", "Image", "Image Path"}

// reportable returns the entries worth reviewing; unchanged products are left out.
func reportable(log *changelog.Log) []changelog.Entry {
	if log == nil {
		return nil
	}
	var out []changelog.Entry
	for _, e := range log.Entries {
		if e.Kind != changelog.KindUnchanged {
			out = append(out, e)
		}
	}
	return out
}
