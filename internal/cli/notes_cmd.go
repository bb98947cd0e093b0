package cli

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"treeline.dev/treeline/internal/cli/common"
	"treeline.dev/treeline/internal/engine"
	"treeline.dev/treeline/internal/output"
	"treeline.dev/treeline/internal/runtime"
	"treeline.dev/treeline/internal/utils"
)

// newNotesCmd creates the notes command
func newNotesCmd() *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Read and write the notes attached to a commit",
		Long: `Read and write the notes attached to a commit.

The namespace defaults to notes.namespace from the repository config, and to
refs/notes/commits when that is unset. Short names such as "review" are
expanded to refs/notes/review.`,
	}

	cmd.PersistentFlags().StringVar(&namespace, "ref", "", "Notes namespace to use")

	cmd.AddCommand(newNotesShowCmd(&namespace))
	cmd.AddCommand(newNotesListCmd())
	cmd.AddCommand(newNotesAddCmd(&namespace))
	cmd.AddCommand(newNotesRemoveCmd(&namespace))

	return cmd
}

func newNotesShowCmd(namespace *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show <commit>",
		Short: "Print the note attached to a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				notes, err := ctx.Repository.Notes(args[0])
				if err != nil {
					return err
				}
				ns := ctx.NotesNamespace(*namespace)
				note, err := notes.Get(ns)
				if err != nil {
					return err
				}
				if note == nil {
					ctx.Splog.Info("No note on %s in %s.", args[0], engine.CanonicalizeNamespace(ns))
					return nil
				}
				ctx.Splog.Page(note.Message)
				return nil
			})
		},
	}
}

func newNotesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <commit>",
		Short: "List the notes attached to a commit in every namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				notes, err := ctx.Repository.Notes(args[0])
				if err != nil {
					return err
				}
				all, err := notes.All()
				if err != nil {
					return err
				}
				if len(all) == 0 {
					ctx.Splog.Info("No notes on %s.", args[0])
					return nil
				}
				for _, note := range all {
					summary, _, _ := strings.Cut(note.Message, "\n")
					ctx.Splog.Info("%s %s %s", output.ColorCyan(note.Namespace), output.ColorDim(note.BlobID.String()[:7]), summary)
				}
				return nil
			})
		},
	}
}

func newNotesAddCmd(namespace *string) *cobra.Command {
	var (
		message string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "add <commit>",
		Short: "Attach a note to a commit",
		Long: `Attach a note to a commit. Fails when the namespace already holds a note
for the commit unless --force is given, in which case the note is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				notes, err := ctx.Repository.Notes(args[0])
				if err != nil {
					return err
				}
				sig, err := ctx.Signature()
				if err != nil {
					return err
				}

				if message == "-" {
					if message, err = utils.ReadMessage(cmd.InOrStdin()); err != nil {
						return fmt.Errorf("failed to read message from stdin: %w", err)
					}
				}

				ns := ctx.NotesNamespace(*namespace)
				write := notes.Add
				if force {
					write = notes.Edit
				}
				note, err := write(ctx, message, sig, sig, ns)
				if err != nil {
					return err
				}
				ctx.Splog.Info("Added note %s to %s in %s.", output.ColorDim(note.BlobID.String()[:7]), args[0], note.Namespace)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Note message, or - to read it from stdin")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing note")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

func newNotesRemoveCmd(namespace *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "remove <commit>",
		Short: "Remove the note attached to a commit",
		Long: `Remove the note attached to a commit. Removing a note that does not exist
does nothing. Asks for confirmation in an interactive terminal unless --force
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return common.Run(cmd, func(ctx *runtime.Context) error {
				notes, err := ctx.Repository.Notes(args[0])
				if err != nil {
					return err
				}
				ns := ctx.NotesNamespace(*namespace)

				if !force && output.IsInteractive() {
					confirmed := false
					prompt := &survey.Confirm{
						Message: fmt.Sprintf("Remove the note on %s in %s?", args[0], engine.CanonicalizeNamespace(ns)),
						Default: false,
					}
					if err := survey.AskOne(prompt, &confirmed); err != nil {
						return err
					}
					if !confirmed {
						ctx.Splog.Info("Aborted.")
						return nil
					}
				}

				sig, err := ctx.Signature()
				if err != nil {
					return err
				}
				if err := notes.Delete(ctx, sig, sig, ns); err != nil {
					return err
				}
				ctx.Splog.Info("Removed note on %s in %s.", args[0], engine.CanonicalizeNamespace(ns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
