package app

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/cmd/gearsync/cmd/completion"
	"github.com/bmedia/gearsync/cmd/gearsync/cmd/extras"
	"github.com/bmedia/gearsync/cmd/gearsync/cmd/history"
	"github.com/bmedia/gearsync/cmd/gearsync/cmd/list"
	"github.com/bmedia/gearsync/cmd/gearsync/cmd/match"
	"github.com/bmedia/gearsync/cmd/gearsync/cmd/sync"
)

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(sync.NewCommand(a))
	rootCmd.AddCommand(list.NewCommand(a))

	// Management commands
	rootCmd.AddCommand(history.NewCommand(a))
	rootCmd.AddCommand(extras.NewCommand(a))
	rootCmd.AddCommand(match.NewCommand(a))

	// Utility commands
	rootCmd.AddCommand(a.newVersionCommand())
	rootCmd.AddCommand(completion.NewCommand())
}

// newVersionCommand creates the version command.
func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("gearsync %s\n", a.version)
			if a.config.Verbose {
				cmd.Printf("  commit:     %s\n", a.commit)
				cmd.Printf("  built:      %s\n", a.date)
				cmd.Printf("  built by:   %s\n", a.builtBy)
				cmd.Printf("  go version: %s\n", runtime.Version())
				cmd.Printf("  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
		},
	}
}
