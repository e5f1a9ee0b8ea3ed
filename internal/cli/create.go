package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := getWriter(cmd)

		title, _ := cmd.Flags().GetString("title")
		description, _ := cmd.Flags().GetString("description")
		priority, _ := cmd.Flags().GetString("priority")
		kind, _ := cmd.Flags().GetString("type")
		assignee, _ := cmd.Flags().GetString("assignee")
		labels, _ := cmd.Flags().GetStringSlice("label")
		due, _ := cmd.Flags().GetString("due")

		b, err := loadBoard(cmd)
		if err != nil {
			return err
		}
		users := b.Users()

		if w.JSONMode && title == "" {
			return cmdErr(fmt.Errorf("--title is required in JSON mode"), output.ErrValidation)
		}

		if title == "" {
			var labelStr string
			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Title").
						Value(&title).
						Validate(required("title")),
					huh.NewText().
						Title("Description").
						Value(&description).
						Validate(required("description")),
					huh.NewSelect[string]().
						Title("Priority").
						Options(priorityOptions()...).
						Value(&priority),
					huh.NewSelect[string]().
						Title("Type").
						Options(typeOptions()...).
						Value(&kind),
					huh.NewSelect[string]().
						Title("Assignee").
						Options(userOptions(users)...).
						Value(&assignee),
					huh.NewInput().
						Title("Due date (YYYY-MM-DD, optional)").
						Value(&due),
					huh.NewInput().
						Title("Labels (comma-separated)").
						Value(&labelStr),
				),
			)

			if err := form.Run(); err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					w.Info("Cancelled.")
					return nil
				}
				return cmdErr(fmt.Errorf("interactive form failed: %w", err), output.ErrGeneral)
			}
			labels = append(labels, splitComma(labelStr)...)
		}

		description, err = readDescription(description)
		if err != nil {
			return err
		}

		assigneeID, err := resolveUser(users, assignee)
		if err != nil {
			return err
		}
		dueDate, err := model.ParseDueDate(due)
		if err != nil {
			return cmdErr(err, output.ErrValidation)
		}

		created, err := b.Create(cmd.Context(), model.CreateTicketInput{
			Title:       title,
			Description: description,
			Priority:    model.Priority(priority),
			Type:        model.TicketType(kind),
			AssigneeID:  assigneeID,
			DueDate:     dueDate,
			Labels:      labels,
		})
		if err != nil {
			return wrapErr(err, "creating ticket")
		}

		w.Success(created, fmt.Sprintf("Created %s: %s", render.ShortID(created.ID), created.Title))
		return nil
	},
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func priorityOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, p := range model.Priorities() {
		opts = append(opts, huh.NewOption(string(p), string(p)))
	}
	return opts
}

func typeOptions() []huh.Option[string] {
	var opts []huh.Option[string]
	for _, t := range model.Types() {
		opts = append(opts, huh.NewOption(string(t), string(t)))
	}
	return opts
}

func userOptions(users []model.User) []huh.Option[string] {
	opts := []huh.Option[string]{huh.NewOption("Unassigned", "")}
	for _, u := range users {
		opts = append(opts, huh.NewOption(u.Name, u.ID))
	}
	return opts
}

func init() {
	createCmd.Flags().StringP("title", "t", "", "Ticket title")
	createCmd.Flags().StringP("description", "d", "", "Ticket description (use \"-\" for stdin)")
	createCmd.Flags().StringP("priority", "p", string(model.PriorityMedium), "Ticket priority")
	createCmd.Flags().StringP("type", "T", string(model.TypeTask), "Ticket type")
	createCmd.Flags().StringP("assignee", "a", "", "Assignee ID, name or email")
	createCmd.Flags().StringSliceP("label", "l", nil, "Ticket labels (repeatable)")
	createCmd.Flags().String("due", "", "Due date (YYYY-MM-DD)")
	rootCmd.AddCommand(createCmd)
}
