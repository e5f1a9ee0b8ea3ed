package cli

import (
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type listResult struct {
	Tickets []model.Ticket `json:"tickets"`
	Total   int            `json:"total"`
}

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List tickets, newest first",
	Aliases: []string{"ls"},
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

		tickets := b.Filtered(criteria)
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(tickets) > limit {
			tickets = tickets[:limit]
		}

		w.Success(listResult{Tickets: tickets, Total: len(tickets)}, render.RenderTable(tickets))
		return nil
	},
}

func init() {
	addFilterFlags(listCmd)
	listCmd.Flags().StringP("status", "s", "", "Status (todo, in-progress, in-review, done)")
	listCmd.Flags().IntP("limit", "n", 0, "Maximum number of tickets to show (0 for all)")
	rootCmd.AddCommand(listCmd)
}
