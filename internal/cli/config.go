package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/config"
	"treeline.dev/treeline/internal/git"
	"treeline.dev/treeline/internal/output"
)

// newConfigCmd creates the config command
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository configuration",
		Long: fmt.Sprintf(`Get and set repository configuration values.

Keys: %s

Examples:
  treeline config get notes.namespace
  treeline config set notes.namespace review
  treeline config set log.file ""`, strings.Join(config.Keys(), ", ")),
	}

	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

// newConfigGetCmd creates the config get command
func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := git.GetRepoRoot()
			if err != nil {
				return fmt.Errorf("failed to get repo root: %w", err)
			}

			value, ok, err := config.Get(repoRoot, args[0])
			if err != nil {
				return err
			}
			if ok {
				fmt.Fprintln(cmd.OutOrStdout(), value)
			}
			return nil
		},
	}
}

// newConfigSetCmd creates the config set command
func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "set <key> <value>",
		Short:     "Set a configuration value; an empty value clears it",
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := git.GetRepoRoot()
			if err != nil {
				return fmt.Errorf("failed to get repo root: %w", err)
			}

			key, value := args[0], args[1]
			if err := config.Set(repoRoot, key, value); err != nil {
				return err
			}

			splog, err := output.NewSplogWithConfig(cmd.OutOrStdout(), "")
			if err != nil {
				return err
			}
			if value == "" {
				splog.Info("Cleared %s.", key)
			} else {
				splog.Info("Set %s to: %s", key, value)
			}
			return nil
		},
	}
}
