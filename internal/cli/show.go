package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

const defaultActivityLimit = 20

type showResult struct {
	Ticket   model.Ticket     `json:"ticket"`
	Activity []model.Activity `json:"activity"`
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a ticket with its attachments and recent activity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		svc := getService(cmd)

		_, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		fresh, err := svc.GetTicket(cmd.Context(), t.ID)
		if err != nil {
			return wrapErr(err, fmt.Sprintf("fetching ticket %s", render.ShortID(t.ID)))
		}

		activity, err := svc.ListActivity(cmd.Context(), t.ID, defaultActivityLimit)
		if err != nil {
			return wrapErr(err, "fetching activity")
		}

		w.Success(showResult{Ticket: *fresh, Activity: activity}, render.RenderDetail(fresh, activity))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
