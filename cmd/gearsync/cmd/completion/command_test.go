package completion

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	root := &cobra.Command{Use: "gearsync"}
	root.AddCommand(NewCommand())

	for _, shell := range Shells {
		t.Run(shell, func(t *testing.T) {
			var out bytes.Buffer
			require.NoError(t, Generate(root, shell, &out))
			assert.Contains(t, out.String(), "gearsync")
		})
	}

	assert.Error(t, Generate(root, "tcsh", &bytes.Buffer{}))
}

func TestCommand(t *testing.T) {
	root := &cobra.Command{Use: "gearsync"}
	root.AddCommand(NewCommand())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"completion", "zsh"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "#compdef gearsync")
}
