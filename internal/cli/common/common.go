// Package common provides shared helper functions for CLI commands.
package common

import (
	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/engine"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/runtime"
)

// Run is a helper that provides a runtime context to a command's execution function
func Run(cmd *cobra.Command, fn func(ctx *runtime.Context) error) error {
	ctx, err := runtime.GetContext(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer ctx.Close()
	return fn(ctx)
}

// CompleteBranches is a helper for cobra.ValidArgsFunction and RegisterFlagCompletionFunc
// that returns all branch names in the repository.
func CompleteBranches(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	root, err := git.GetRepoRoot()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	repo, err := engine.Open(root)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	branches, err := repo.Branches().List()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name())
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
