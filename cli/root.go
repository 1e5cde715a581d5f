package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the doctpl command tree: render, validate, and
// batch subcommands sharing a --config persistent flag, in the teacher's
// rootCmd/PersistentFlags/RunE style.
func NewRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "doctpl",
		Short:         "Render and validate DOCX directive templates",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newRenderCommand(&configPath),
		newValidateCommand(&configPath),
		newBatchCommand(&configPath),
	)
	return root
}

// Main is the CLI's single entry point, called from cmd/doctpl/main.go.
// It mirrors the teacher's capture-then-exit pattern: errors are printed
// to stderr and translate into a non-zero exit code rather than a panic.
func Main() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
