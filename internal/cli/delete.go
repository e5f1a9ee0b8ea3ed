package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type deleteResult struct {
	ID string `json:"id"`
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Delete a ticket",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		force, _ := cmd.Flags().GetBool("force")

		b, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		if !force {
			if w.JSONMode {
				return cmdErr(fmt.Errorf("deleting %s requires --force in JSON mode", render.ShortID(t.ID)), output.ErrValidation)
			}

			var confirmed bool
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Delete %s: %s?", render.ShortID(t.ID), t.Title)).
						Description("Attachments and activity history are deleted with it.").
						Affirmative("Delete").
						Negative("Cancel").
						Value(&confirmed),
				),
			)
			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
			if !confirmed {
				w.Info("Cancelled.")
				return nil
			}
		}

		if err := b.Delete(cmd.Context(), t.ID); err != nil {
			return wrapErr(err, "deleting ticket")
		}

		w.Success(deleteResult{ID: t.ID}, fmt.Sprintf("Deleted %s: %s", render.ShortID(t.ID), t.Title))
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolP("force", "f", false, "Skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}
