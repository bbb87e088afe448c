// Package completion implements the completion command.
package completion

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bmedia/gearsync/pkg/errors"
)

// Shells lists the shells a completion script can be generated for.
var Shells = []string{"bash", "zsh", "fish", "powershell"}

// NewCommand creates the completion command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate a shell completion script",
		Long: `Completion writes a completion script for the given shell to stdout.

  source <(gearsync completion bash)
  gearsync completion zsh > "${fpath[1]}/_gearsync"
  gearsync completion fish > ~/.config/fish/completions/gearsync.fish`,
		Args:                  cobra.ExactArgs(1),
		ValidArgs:             Shells,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Generate(cmd.Root(), args[0], cmd.OutOrStdout())
		},
	}
}

// Generate writes the completion script for shell.
func Generate(root *cobra.Command, shell string, w io.Writer) error {
	switch shell {
	case "bash":
		return root.GenBashCompletionV2(w, true)
	case "zsh":
		return root.GenZshCompletion(w)
	case "fish":
		return root.GenFishCompletion(w, true)
	case "powershell":
		return root.GenPowerShellCompletionWithDesc(w)
	}
	return errors.NewValidationError("shell", shell, "must be one of: bash, zsh, fish, powershell")
}
