// Package sync implements the sync command.
package sync

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync"
	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/cmd/output"
	"github.com/bmedia/gearsync/internal/scrape"
	"github.com/bmedia/gearsync/internal/transport"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// Flags holds the sync command flags.
type Flags struct {
	DryRun     bool
	ForceWrite bool
	NoImages   bool
	NoBrowser  bool
	InputHTML  string
	Report     string
	Every      time.Duration
	All        bool
}

// NewCommand creates the sync command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Scrape the link page and update the catalog",
		Args:    cobra.NoArgs,
		Long: `Sync renders the link page, parses every category and product on it,
and reconciles the result with the catalog file:

• Products matched by name are updated with the scraped price, link, and pick
• New products are added and their images downloaded
• Products and categories missing from the page are kept as they are

The catalog is rewritten only when something changed. When the page cannot
be read, nothing is lost: every persisted category is kept.`,
		Example: `  gearsync sync                          # Sync and write the catalog
  gearsync sync --dry-run                # Show what would change
  gearsync sync --report changes.xlsx    # Also write a change report
  gearsync sync --input-html page.html   # Use a saved copy of the page
  gearsync sync --every 6h               # Keep syncing until interrupted`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Execute(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", false, "reconcile and report without writing")
	cmd.Flags().BoolVar(&flags.ForceWrite, "force-write", false, "rewrite the catalog even when nothing changed")
	cmd.Flags().BoolVar(&flags.NoImages, "no-images", false, "skip image downloads")
	cmd.Flags().BoolVar(&flags.NoBrowser, "no-browser", false, "fetch the page over plain HTTP instead of rendering it")
	cmd.Flags().StringVar(&flags.InputHTML, "input-html", "", "parse a saved HTML file instead of fetching the page")
	cmd.Flags().StringVar(&flags.Report, "report", "", "write a change report (.md or .xlsx)")
	cmd.Flags().DurationVar(&flags.Every, "every", 0, "repeat the sync at this interval until interrupted")
	cmd.Flags().BoolVar(&flags.All, "all", false, "include unchanged products in the output")
	cmd.MarkFlagsMutuallyExclusive("no-browser", "input-html")

	return cmd
}

// Execute runs a sync, or a periodic sync when flags.Every is set.
func Execute(ctx context.Context, app application.Application, flags *Flags, w io.Writer) error {
	logger := app.Logger()

	client, err := app.Client()
	if err != nil {
		return err
	}

	opts := []gearsync.SyncOption{
		gearsync.SyncWithDryRun(flags.DryRun),
		gearsync.SyncWithForceWrite(flags.ForceWrite),
		gearsync.SyncWithNoImages(flags.NoImages),
		gearsync.SyncWithReport(flags.Report),
	}
	switch {
	case flags.InputHTML != "":
		opts = append(opts, gearsync.SyncWithFetcher(&scrape.FileFetcher{Path: flags.InputHTML}))
	case flags.NoBrowser:
		opts = append(opts, gearsync.SyncWithFetcher(&scrape.HTTPFetcher{
			Client: transport.New(
				transport.WithTimeout(constants.DefaultHTTPTimeout),
				transport.WithUserAgent(constants.UserAgent),
			),
		}))
	}

	if flags.Every > 0 {
		logger.Info().Dur("interval", flags.Every).Msg("Starting periodic sync")
		err := client.SyncEvery(ctx, flags.Every, opts...)
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("Periodic sync stopped")
			return nil
		}
		return err
	}

	result, err := client.Sync(ctx, opts...)
	if result != nil {
		if printErr := Print(w, app.OutputFormat(), result, flags.All); printErr != nil && err == nil {
			err = printErr
		}
	}
	return err
}

// Print renders a sync result. Tables show the change log followed by a
// summary line; json and yaml show the whole result.
func Print(w io.Writer, format string, result *gearsync.SyncResult, all bool) error {
	f := output.DetectFormat(format)
	if f != output.FormatTable {
		return output.NewFormatter(f).Format(w, result)
	}

	table := output.ChangesTable(result.Log, all)
	if len(table.Rows) > 0 {
		if err := output.NewFormatter(output.FormatTable).Format(w, table); err != nil {
			return err
		}
	}
	if result.SourceError != "" {
		fmt.Fprintf(w, "Source unavailable: %s\n", result.SourceError)
	}
	if result.CatalogError != "" {
		fmt.Fprintf(w, "Catalog unreadable, started empty: %s\n", result.CatalogError)
	}
	for _, job := range result.ImagesFailed {
		fmt.Fprintf(w, "Image not downloaded: %s -> %s\n", job.SourceURL, job.DestPath)
	}
	fmt.Fprintf(w, "%s\n", result)
	if result.ReportPath != "" {
		fmt.Fprintf(w, "Report: %s\n", result.ReportPath)
	}
	return nil
}
