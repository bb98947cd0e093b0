package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/cli/common"
	"treeline.dev/treeline/internal/engine"
	treelineerrors "treeline.dev/treeline/internal/errors"
	"treeline.dev/treeline/internal/output"
	"treeline.dev/treeline/internal/runtime"
)

// newSubmoduleCmd creates the submodule command
func newSubmoduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submodule",
		Short: "Inspect submodules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List submodules with their path and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				submodules, err := ctx.Repository.Submodules().List()
				if err != nil {
					return err
				}
				if len(submodules) == 0 {
					ctx.Splog.Info("No submodules.")
					return nil
				}
				for _, s := range submodules {
					path, err := s.Path()
					if err != nil {
						ctx.Splog.Warn("%s: %v", s.Name(), err)
						continue
					}
					status, err := s.Status()
					if err != nil {
						ctx.Splog.Warn("%s: %v", s.Name(), err)
						continue
					}
					ctx.Splog.Info("%s %s %s", output.ColorCyan(s.Name()), path, output.ColorDim(status.String()))
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show every attribute of a submodule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				s, err := ctx.Repository.Submodules().Get(args[0])
				if err != nil {
					return err
				}
				if s == nil {
					return fmt.Errorf("submodule %s: %w", args[0], treelineerrors.ErrNotFound)
				}
				showSubmodule(ctx, s)
				return nil
			})
		},
	})

	return cmd
}

// showSubmodule prints one line per attribute; an attribute that fails is
// reported in place without hiding the others
func showSubmodule(ctx *runtime.Context, s *engine.Submodule) {
	field := func(name string, value any, err error) {
		if err != nil {
			ctx.Splog.Info("%-24s %s", name+":", output.ColorRed(err.Error()))
			return
		}
		ctx.Splog.Info("%-24s %v", name+":", value)
	}

	ctx.Splog.Info("%-24s %s", "name:", output.ColorCyan(s.Name()))
	path, err := s.Path()
	field("path", path, err)
	url, err := s.URL()
	field("url", url, err)
	head, err := s.HeadCommitID()
	field("head", head, err)
	index, err := s.IndexCommitID()
	field("index", index, err)
	workdir, err := s.WorkDirCommitID()
	field("workdir", workdir, err)
	ignore, err := s.IgnoreRule()
	field("ignore", ignore, err)
	update, err := s.UpdateRule()
	field("update", update, err)
	fetch, err := s.FetchRecurseSubmodulesRule()
	field("fetchRecurseSubmodules", fetch, err)
	status, err := s.Status()
	field("status", status, err)
}
