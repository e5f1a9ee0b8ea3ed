package cli

import (
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/board"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type boardResult struct {
	Columns []board.Column `json:"columns"`
	Total   int            `json:"total"`
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show tickets as a Kanban board",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		b, err := loadBoard(cmd)
		if err != nil {
			return err
		}
		criteria, err := criteriaFromFlags(cmd, b.Users())
		if err != nil {
			return err
		}
		hideEmpty, _ := cmd.Flags().GetBool("hide-empty")

		cols := b.Columns(criteria)
		total := 0
		for _, c := range cols {
			total += len(c.Tickets)
		}

		w.Success(boardResult{Columns: cols, Total: total}, render.RenderBoard(cols, render.BoardOptions{HideEmpty: hideEmpty}))
		return nil
	},
}

func init() {
	addFilterFlags(boardCmd)
	boardCmd.Flags().Bool("hide-empty", false, "Hide columns without tickets")
	rootCmd.AddCommand(boardCmd)
}
