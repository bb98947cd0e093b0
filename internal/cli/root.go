// Package cli implements the treeline command line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/output"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treeline",
		Short: "Treeline inspects branches, notes, submodules and blobs of a git repository",
		Long: `Treeline inspects branches, notes, submodules and blobs of a git repository.

Every attribute is read lazily: a command only touches the objects it prints.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			output.ConfigureColors()
		},
	}

	rootCmd.AddCommand(newBranchCmd())
	rootCmd.AddCommand(newNotesCmd())
	rootCmd.AddCommand(newSubmoduleCmd())
	rootCmd.AddCommand(newBlobCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}
