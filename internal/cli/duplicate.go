package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

var duplicateCmd = &cobra.Command{
	Use:     "duplicate <id>",
	Short:   "Create a copy of a ticket",
	Aliases: []string{"dup"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		b, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		copied, err := b.Duplicate(cmd.Context(), t.ID)
		if err != nil {
			return wrapErr(err, "duplicating ticket")
		}

		w.Success(copied, fmt.Sprintf("Duplicated %s as %s: %s", render.ShortID(t.ID), render.ShortID(copied.ID), copied.Title))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicateCmd)
}
