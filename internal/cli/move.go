package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

var moveCmd = &cobra.Command{
	Use:   "move <id> <status>",
	Short: "Move a ticket to another board column",
	Long: `Move a ticket to another board column.

Status accepts "To Do", "IN_PROGRESS", "in-review", "done" and similar spellings.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		status, err := model.ParseStatus(args[1])
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		b, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		if t.Status == status {
			if w.JSONMode {
				w.Success(t, "")
			} else {
				w.Info("Ticket %s is already in %s", render.ShortID(t.ID), status)
			}
			return nil
		}

		moved, err := b.Move(cmd.Context(), t.ID, status)
		if err != nil {
			return wrapErr(err, "moving ticket")
		}

		w.Success(moved, fmt.Sprintf("Moved %s from %s to %s", render.ShortID(moved.ID), t.Status, moved.Status))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
