// Package list implements the list command.
package list

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/cmd/output"
	"github.com/bmedia/gearsync/internal/persistence"
	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Flags holds the list command flags.
type Flags struct {
	Categories []string
	Summary    bool
	Picks      bool
}

// NewCommand creates the list command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		GroupID: "core",
		Short:   "List products in the catalog file",
		Args:    cobra.NoArgs,
		Example: `  gearsync list                 # Every product
  gearsync list -c iems         # One category
  gearsync list --summary       # Categories with counts
  gearsync list --picks -o json # Featured picks as catalog JSON`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			cat, err := client.Catalog()
			if err != nil {
				return err
			}
			return Print(cmd.OutOrStdout(), app.OutputFormat(), Filter(cat, flags), flags)
		},
	}

	cmd.Flags().StringSliceVarP(&flags.Categories, "category", "c", nil, "only these category keys")
	cmd.Flags().BoolVar(&flags.Summary, "summary", false, "list categories with product counts")
	cmd.Flags().BoolVar(&flags.Picks, "picks", false, "only featured picks")

	return cmd
}

// Filter applies the category and pick filters. Categories left empty by
// the pick filter are dropped.
func Filter(cat *catalog.Catalog, flags *Flags) *catalog.Catalog {
	if len(flags.Categories) > 0 {
		want := map[string]bool{}
		for _, k := range flags.Categories {
			want[k] = true
		}
		cat = cat.Filter(func(c catalog.Category) bool { return want[c.Key] })
	}
	if !flags.Picks {
		return cat
	}

	out := catalog.New()
	for _, c := range cat.Categories() {
		var picks []catalog.Product
		for _, p := range c.Items {
			if p.Pick {
				picks = append(picks, p)
			}
		}
		if len(picks) > 0 {
			out.Set(catalog.Category{Key: c.Key, Items: picks})
		}
	}
	return out
}

// Print renders the catalog. json and yaml use the catalog file encodings,
// so category and product order are preserved.
func Print(w io.Writer, format string, cat *catalog.Catalog, flags *Flags) error {
	switch f := output.DetectFormat(format); f {
	case output.FormatJSON, output.FormatYAML:
		enc := persistence.FormatJSON
		if f == output.FormatYAML {
			enc = persistence.FormatYAML
		}
		data, err := persistence.Encode(cat, enc)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case output.FormatTable:
		table := output.ProductsTable(cat)
		if flags.Summary {
			table = output.CategoriesTable(cat)
		}
		return output.NewFormatter(output.FormatTable).Format(w, table)
	default:
		return errors.NewValidationError("format", format, "must be one of: table, json, yaml")
	}
}
