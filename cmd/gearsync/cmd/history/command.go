// Package history implements the history command.
package history

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/internal/cmd/application"
	"github.com/bmedia/gearsync/internal/cmd/output"
	"github.com/bmedia/gearsync/internal/history"
	"github.com/bmedia/gearsync/pkg/changelog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
)

// NewCommand creates the history command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		GroupID: "management",
		Short:   "Show recorded sync runs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, app, constants.DefaultHistoryLimit)
		},
	}

	cmd.AddCommand(newListCommand(app))
	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newProductCommand(app))

	return cmd
}

func newListCommand(app application.Application) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, app, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", constants.DefaultHistoryLimit, "number of runs to show")
	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one run and its changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.NewValidationError("id", args[0], "must be a run number")
			}
			store, err := open(app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			run, entries, err := store.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), app.OutputFormat(), run, entries, all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include unchanged products")
	return cmd
}

func newProductCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "product <name>",
		Short: "Show every recorded change to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(app)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.ProductHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			log := &changelog.Log{Entries: entries}
			f := output.DetectFormat(app.OutputFormat())
			if f != output.FormatTable {
				return output.NewFormatter(f).Format(cmd.OutOrStdout(), log)
			}
			return output.NewFormatter(f).Format(cmd.OutOrStdout(), output.ChangesTable(log, true))
		},
	}
}

func open(app application.Application) (*history.Store, error) {
	path := app.HistoryPath()
	if path == "" {
		return nil, errors.NewConfigError("history", "run history is disabled (history_path is empty)", nil)
	}
	return history.Open(path)
}

func runList(cmd *cobra.Command, app application.Application, limit int) error {
	store, err := open(app)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	f := output.DetectFormat(app.OutputFormat())
	if f != output.FormatTable {
		return output.NewFormatter(f).Format(cmd.OutOrStdout(), runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet")
		return nil
	}
	return output.NewFormatter(f).Format(cmd.OutOrStdout(), output.RunsTable(runs))
}

// Detail is a run with the changes it recorded.
type Detail struct {
	Run     history.Run       `json:"run" yaml:"run"`
	Changes []changelog.Entry `json:"changes" yaml:"changes"`
}

func printRun(w io.Writer, format string, run *history.Run, entries []changelog.Entry, all bool) error {
	log := &changelog.Log{Entries: entries}
	f := output.DetectFormat(format)
	if f != output.FormatTable {
		return output.NewFormatter(f).Format(w, Detail{Run: *run, Changes: entries})
	}

	if err := output.NewFormatter(f).Format(w, output.RunsTable([]history.Run{*run})); err != nil {
		return err
	}
	if run.SourceError != "" {
		fmt.Fprintf(w, "Source unavailable: %s\n", run.SourceError)
	}
	if log.Len() == 0 {
		fmt.Fprintln(w, "No changes recorded")
		return nil
	}
	return output.NewFormatter(f).Format(w, output.ChangesTable(log, all))
}
