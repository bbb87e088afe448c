// Package extras implements the extras command.
package extras

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/cmd/output"
	"github.com/bmedia/gearsync/internal/extras"
	"github.com/bmedia/gearsync/pkg/errors"
)

// NewCommand creates the extras command using app context.
func NewCommand(app application.Application) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:     "extras",
		GroupID: "management",
		Short:   "Audit the per-product media file against the catalog",
		Long: `Extras lists catalog products that have no entry in the extra-data file
and entries whose product is gone, with the closest current name as a likely
rename.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			audit, err := client.Audit()
			if err != nil {
				return err
			}
			if err := Print(cmd.OutOrStdout(), app.OutputFormat(), audit); err != nil {
				return err
			}
			if strict && !audit.Clean() {
				return errors.NewValidationError("extras", len(audit.Missing)+len(audit.Orphaned), "extra-data file is out of date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when the audit finds anything")

	return cmd
}

// Print renders audit.
func Print(w io.Writer, format string, audit *extras.Audit) error {
	f := output.DetectFormat(format)
	if f != output.FormatTable {
		return output.NewFormatter(f).Format(w, audit)
	}
	if audit.Clean() {
		fmt.Fprintln(w, "Extra-data file matches the catalog")
		return nil
	}
	if err := output.NewFormatter(f).Format(w, output.AuditTable(audit)); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d missing, %d orphaned\n", len(audit.Missing), len(audit.Orphaned))
	return nil
}
