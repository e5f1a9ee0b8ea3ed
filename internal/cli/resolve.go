package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/ticketboard/internal/board"
	"github.com/ALT-F4-LLC/ticketboard/internal/filter"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/output"
	"github.com/ALT-F4-LLC/ticketboard/internal/render"
)

// loadBoard fetches tickets and users through the service.
func loadBoard(cmd *cobra.Command) (*board.Board, error) {
	b := board.New(getService(cmd))
	if err := b.Load(cmd.Context()); err != nil {
		return nil, cmdErr(fmt.Errorf("loading board: %w", err), output.ErrUnavailable)
	}
	return b, nil
}

// matchTicket finds a ticket by full ID or by an unambiguous ID prefix, as
// printed by the table and board views.
func matchTicket(tickets []model.Ticket, arg string) (model.Ticket, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return model.Ticket{}, cmdErr(fmt.Errorf("ticket ID is required"), output.ErrValidation)
	}

	var matches []model.Ticket
	for _, t := range tickets {
		if t.ID == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return model.Ticket{}, cmdErr(fmt.Errorf("ticket %s not found", arg), output.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = render.ShortID(m.ID)
		}
		return model.Ticket{}, cmdErr(fmt.Errorf("ticket ID %q is ambiguous: matches %s", arg, strings.Join(ids, ", ")), output.ErrValidation)
	}
}

// findTicket loads the board and resolves arg against it.
func findTicket(cmd *cobra.Command, arg string) (*board.Board, model.Ticket, error) {
	b, err := loadBoard(cmd)
	if err != nil {
		return nil, model.Ticket{}, err
	}
	t, err := matchTicket(b.Tickets(), arg)
	if err != nil {
		return nil, model.Ticket{}, err
	}
	return b, t, nil
}

// resolveUser matches arg against a user's ID, email or name (case
// insensitive). "none" and "" resolve to no user.
func resolveUser(users []model.User, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" || strings.EqualFold(arg, "none") {
		return "", nil
	}
	for _, u := range users {
		if u.ID == arg || strings.EqualFold(u.Email, arg) || strings.EqualFold(u.Name, arg) {
			return u.ID, nil
		}
	}
	return "", cmdErr(fmt.Errorf("%w: unknown user %q", model.ErrValidation, arg), output.ErrValidation)
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("query", "", "Match title, description or labels (case-insensitive)")
	cmd.Flags().StringP("assignee", "a", "", "Assignee ID, name or email")
	cmd.Flags().StringP("priority", "p", "", "Priority (low, medium, high, critical)")
	cmd.Flags().StringSliceP("label", "l", nil, "Required label (repeatable; all must match)")
}

// criteriaFromFlags builds filter criteria from the shared filter flags.
func criteriaFromFlags(cmd *cobra.Command, users []model.User) (filter.Criteria, error) {
	var c filter.Criteria

	c.Query, _ = cmd.Flags().GetString("query")
	c.Labels, _ = cmd.Flags().GetStringSlice("label")

	if v, _ := cmd.Flags().GetString("assignee"); v != "" {
		id, err := resolveUser(users, v)
		if err != nil {
			return c, err
		}
		c.AssigneeID = id
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := model.ParsePriority(v)
		if err != nil {
			return c, cmdErr(err, output.ErrValidation)
		}
		c.Priority = p
	}
	if cmd.Flags().Lookup("status") != nil {
		if v, _ := cmd.Flags().GetString("status"); v != "" {
			s, err := model.ParseStatus(v)
			if err != nil {
				return c, cmdErr(err, output.ErrValidation)
			}
			c.Status = s
		}
	}
	return c, nil
}

// readDescription reads the description from stdin when it is "-".
func readDescription(description string) (string, error) {
	if description != "-" {
		return description, nil
	}
	const maxStdinSize = 1 << 20 // 1 MiB
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxStdinSize))
	if err != nil {
		return "", cmdErr(fmt.Errorf("reading description from stdin: %w", err), output.ErrGeneral)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func splitComma(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
