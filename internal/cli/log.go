package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

type logResult struct {
	TicketID string           `json:"ticketId"`
	Entries  []model.Activity `json:"entries"`
	Total    int              `json:"total"`
}

var logCmd = &cobra.Command{
	Use:   "log <id>",
	Short: "Show the activity history of a ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		_, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		limit = max(limit, 1)

		activity, err := getService(cmd).ListActivity(cmd.Context(), t.ID, limit)
		if err != nil {
			return wrapErr(err, "fetching activity")
		}
		if activity == nil {
			activity = []model.Activity{}
		}

		result := logResult{TicketID: t.ID, Entries: activity, Total: len(activity)}
		if len(activity) == 0 {
			w.Success(result, fmt.Sprintf("No activity for %s", render.ShortID(t.ID)))
			return nil
		}
		w.Success(result, render.RenderActivity(activity))
		return nil
	},
}

func init() {
	logCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries")
	rootCmd.AddCommand(logCmd)
}
