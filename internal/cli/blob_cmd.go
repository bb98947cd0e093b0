package cli

import (
	"io"

	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/cli/common"
	"treeline.dev/treeline/internal/output"
	"treeline.dev/treeline/internal/runtime"
)

// newBlobCmd creates the blob command
func newBlobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blob",
		Short: "Inspect blobs",
	}

	var (
		content bool
		force   bool
	)
	showCmd := &cobra.Command{
		Use:   "show <id|commit:path>",
		Short: "Show the size and type of a blob, optionally with its content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				blob, err := ctx.Repository.LookupBlob(args[0])
				if err != nil {
					return err
				}
				size, err := blob.Size()
				if err != nil {
					return err
				}
				isBinary, err := blob.IsBinary()
				if err != nil {
					return err
				}

				kind := "text"
				if isBinary {
					kind = "binary"
				}
				ctx.Splog.Info("%s %d bytes %s", output.ColorCyan(blob.ID().String()), size, output.ColorDim(kind))

				if !content {
					return nil
				}
				if isBinary && !force {
					ctx.Splog.Tip("Use --force to print binary content.")
					return nil
				}
				r, err := blob.ContentStream()
				if err != nil {
					return err
				}
				defer r.Close()
				_, err = io.Copy(cmd.OutOrStdout(), r)
				return err
			})
		},
	}
	showCmd.Flags().BoolVarP(&content, "content", "c", false, "Print the blob content")
	showCmd.Flags().BoolVarP(&force, "force", "f", false, "Print content even when it is binary")

	var rev string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the files of a commit with their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				blobs, err := ctx.Repository.Files(rev)
				if err != nil {
					return err
				}
				for _, b := range blobs {
					size, err := b.Size()
					if err != nil {
						return err
					}
					ctx.Splog.Info("%s %8d %s", output.ColorDim(b.ID().String()[:7]), size, b.Path())
				}
				return nil
			})
		},
	}
	listCmd.Flags().StringVar(&rev, "rev", "HEAD", "Commit to list")

	cmd.AddCommand(showCmd)
	cmd.AddCommand(listCmd)

	return cmd
}
