package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/cli/common"
	"treeline.dev/treeline/internal/engine"
	"treeline.dev/treeline/internal/output"
	"treeline.dev/treeline/internal/runtime"
)

// newBranchCmd creates the branch command
func newBranchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "branch",
		Short: "Inspect branches and their upstreams",
	}

	cmd.AddCommand(newBranchStatusCmd())
	cmd.AddCommand(newBranchUpstreamCmd())

	return cmd
}

func newBranchStatusCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "status [name]",
		Short: "Show the upstream and ahead/behind counts of branches",
		Long: `Show the upstream and ahead/behind counts of one branch, or of every
local branch when no name is given. Remote branches are included with --all.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				branches := ctx.Repository.Branches()

				var selected []*engine.Branch
				if len(args) == 1 {
					b, err := branches.MustGet(args[0])
					if err != nil {
						return err
					}
					selected = append(selected, b)
				} else {
					list, err := branches.List()
					if err != nil {
						return err
					}
					for _, b := range list {
						if all || !b.IsRemote() {
							selected = append(selected, b)
						}
					}
				}

				statuses := make([]output.BranchStatus, 0, len(selected))
				for _, b := range selected {
					status, err := branchStatus(b)
					if err != nil {
						return err
					}
					statuses = append(statuses, status)
				}

				for _, line := range output.RenderBranchList(statuses) {
					ctx.Splog.Info("%s", line)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include remote branches")

	return cmd
}

func branchStatus(b *engine.Branch) (output.BranchStatus, error) {
	status := output.BranchStatus{Name: b.Name(), Remote: b.IsRemote()}

	current, err := b.IsCurrentRepositoryHead()
	if err != nil {
		return status, err
	}
	status.Current = current

	tracked, err := b.TrackedBranch()
	if err != nil {
		return status, fmt.Errorf("failed to read upstream of %s: %w", b.Name(), err)
	}
	if tracked == nil {
		return status, nil
	}
	status.Upstream = tracked.Name()

	if status.Ahead, err = b.AheadBy(); err != nil {
		return status, err
	}
	if status.Behind, err = b.BehindBy(); err != nil {
		return status, err
	}
	return status, nil
}

func newBranchUpstreamCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upstream",
		Short: "Set or unset the upstream of a branch",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <branch> <upstream>",
		Short: "Track upstream from branch",
		Long: `Track upstream from branch. The upstream is a local branch (main) or a
remote branch (origin/main) whose remote must be configured.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				if err := ctx.Repository.Branches().SetUpstream(args[0], args[1]); err != nil {
					return err
				}
				ctx.Splog.Info("%s now tracks %s.", output.ColorBranchName(args[0], false), output.ColorCyan(args[1]))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:               "unset <branch>",
		Short:             "Stop tracking the upstream of branch",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: common.CompleteBranches,
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				if err := ctx.Repository.Branches().SetUpstream(args[0], ""); err != nil {
					return err
				}
				ctx.Splog.Info("%s no longer tracks an upstream.", output.ColorBranchName(args[0], false))
				return nil
			})
		},
	})

	return cmd
}
