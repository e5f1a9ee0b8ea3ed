package render

import (
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

var ticketHeaders = []string{"ID", "Status", "Priority", "Type", "Title", "Assignee", "Due", "Updated"}

// RenderTable renders tickets as a formatted table in the order given.
func RenderTable(tickets []model.Ticket) string {
	if len(tickets) == 0 {
		return EmptyState("No tickets found.", "Create one with: ticketboard create", false)
	}

	rows := make([][]string, 0, len(tickets))
	for i := range tickets {
		rows = append(rows, ticketToRow(&tickets[i]))
	}

	if !ColorsEnabled() {
		return renderPlainTable(rows)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers(ticketHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)

			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if row < 0 || row >= len(tickets) {
				return s
			}

			tk := &tickets[row]
			switch col {
			case 1:
				return s.Foreground(ColorFromName(tk.Status.Color()))
			case 2:
				return s.Foreground(ColorFromName(tk.Priority.Color()))
			case 3:
				return s.Foreground(ColorFromName(tk.Type.Color()))
			case 4:
				return s.Bold(true)
			case 6:
				if isOverdue(tk) {
					return s.Foreground(lipgloss.Color("9"))
				}
				return s
			default:
				return s
			}
		})

	return t.Render()
}

func ticketToRow(t *model.Ticket) []string {
	due := "-"
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02")
	}
	return []string{
		ShortID(t.ID),
		statusLabel(t.Status),
		priorityLabel(t.Priority),
		typeLabel(t.Type),
		truncate(t.Title, maxTitleWidth),
		assigneeName(t),
		due,
		humanize.Time(t.UpdatedAt),
	}
}

func isOverdue(t *model.Ticket) bool {
	return t.DueDate != nil && t.Status != model.StatusDone && t.DueDate.Before(nowFunc())
}

func renderPlainTable(rows [][]string) string {
	var b strings.Builder
	format := "%-10s %-16s %-14s %-11s %-40s %-16s %-11s %s\n"

	fmt.Fprintf(&b, format, toAny(ticketHeaders)...)
	fmt.Fprintf(&b, "%s\n", strings.Repeat("-", 130))
	for _, row := range rows {
		fmt.Fprintf(&b, format, toAny(row)...)
	}
	return b.String()
}

// RenderUsers renders the user directory.
func RenderUsers(users []model.User) string {
	if len(users) == 0 {
		return EmptyState("No users found.", "Add one with: ticketboard users create", false)
	}

	if !ColorsEnabled() {
		var b strings.Builder
		for _, u := range users {
			fmt.Fprintf(&b, "%-10s %-24s %s\n", ShortID(u.ID), u.Name, u.Email)
		}
		return b.String()
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{ShortID(u.ID), u.Name, u.Email})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		Headers("ID", "Name", "Email").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return s.Bold(true).Foreground(lipgloss.Color("15"))
			}
			if col == 1 {
				return s.Bold(true)
			}
			return s
		}).
		Render()
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
