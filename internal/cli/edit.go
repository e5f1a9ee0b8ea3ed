package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit an existing ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)
		flags := cmd.Flags()

		b, t, err := findTicket(cmd, args[0])
		if err != nil {
			return err
		}

		var in model.UpdateTicketInput

		if flags.Changed("title") {
			v, _ := flags.GetString("title")
			in.Title = &v
		}
		if flags.Changed("description") {
			v, _ := flags.GetString("description")
			v, err = readDescription(v)
			if err != nil {
				return err
			}
			in.Description = &v
		}
		if flags.Changed("status") {
			v, _ := flags.GetString("status")
			s := model.Status(v)
			in.Status = &s
		}
		if flags.Changed("priority") {
			v, _ := flags.GetString("priority")
			p := model.Priority(v)
			in.Priority = &p
		}
		if flags.Changed("type") {
			v, _ := flags.GetString("type")
			k := model.TicketType(v)
			in.Type = &k
		}
		if flags.Changed("assignee") {
			v, _ := flags.GetString("assignee")
			id, err := resolveUser(b.Users(), v)
			if err != nil {
				return err
			}
			in.AssigneeID = &id
		}
		if flags.Changed("due") {
			v, _ := flags.GetString("due")
			due, err := model.ParseDueDate(v)
			if err != nil {
				return cmdErr(err, output.ErrValidation)
			}
			in.DueDate = due
		}
		if flags.Changed("label") {
			v, _ := flags.GetStringSlice("label")
			in.Labels = &v
		}
		if in.IsEmpty() {
			return cmdErr(fmt.Errorf("nothing to update: pass at least one field flag"), output.ErrValidation)
		}
		if check, _ := flags.GetBool("check-version"); check {
			v := t.Version
			in.Version = &v
		}

		updated, err := b.Update(cmd.Context(), t.ID, in)
		if err != nil {
			return wrapErr(err, fmt.Sprintf("updating ticket %s", render.ShortID(t.ID)))
		}

		w.Success(updated, fmt.Sprintf("Updated %s: %s", render.ShortID(updated.ID), updated.Title))
		return nil
	},
}

func init() {
	editCmd.Flags().StringP("title", "t", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description (use \"-\" for stdin)")
	editCmd.Flags().StringP("status", "s", "", "New status")
	editCmd.Flags().StringP("priority", "p", "", "New priority")
	editCmd.Flags().StringP("type", "T", "", "New type")
	editCmd.Flags().StringP("assignee", "a", "", "New assignee (\"none\" to unassign)")
	editCmd.Flags().String("due", "", "New due date (YYYY-MM-DD)")
	editCmd.Flags().StringSliceP("label", "l", nil, "Replace labels (pass --label= to clear)")
	editCmd.Flags().Bool("check-version", false, "Fail if the ticket changed since it was loaded")
	rootCmd.AddCommand(editCmd)
}
