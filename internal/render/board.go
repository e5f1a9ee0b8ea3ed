package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/ticketboard/internal/board"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

const (
	maxCardsPerColumn = 10
	minColumnWidth    = 20
	cardPadding       = 2 // left+right padding inside cards
)

// BoardOptions configures board rendering behavior.
type BoardOptions struct {
	// Width overrides the detected terminal width when positive.
	Width int
	// HideEmpty drops columns with no tickets.
	HideEmpty bool
}

// RenderBoard renders board columns left to right in status order.
func RenderBoard(cols []board.Column, opts BoardOptions) string {
	total := 0
	for _, c := range cols {
		total += len(c.Tickets)
	}
	if total == 0 {
		return EmptyState("No tickets on the board.", "Create one with: ticketboard create", false)
	}

	if opts.HideEmpty {
		visible := cols[:0:0]
		for _, c := range cols {
			if len(c.Tickets) > 0 {
				visible = append(visible, c)
			}
		}
		cols = visible
	}

	if !ColorsEnabled() {
		return renderPlainBoard(cols)
	}
	return renderColorBoard(cols, opts)
}

func renderColorBoard(cols []board.Column, opts BoardOptions) string {
	tw := opts.Width
	if tw <= 0 {
		tw = TerminalWidth()
	}
	gaps := len(cols) - 1
	colWidth := max((tw-gaps)/len(cols), minColumnWidth)

	// 2 for left+right border chars
	contentWidth := max(colWidth-cardPadding-2, 5)

	columns := make([]string, 0, len(cols))
	for _, c := range cols {
		columns = append(columns, renderColorColumn(c, colWidth, contentWidth))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, columns...)
}

func renderColorColumn(col board.Column, colWidth, contentWidth int) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorFromName(col.Status.Color())).
		Width(colWidth).
		Align(lipgloss.Center)

	header := headerStyle.Render(fmt.Sprintf("%s %s (%d)", col.Status.Icon(), strings.ToUpper(string(col.Status)), len(col.Tickets)))

	visible, overflow := clip(col.Tickets)

	cards := make([]string, 0, len(visible)+2)
	cards = append(cards, header)
	for i := range visible {
		cards = append(cards, renderColorCard(&visible[i], colWidth, contentWidth))
	}

	if overflow > 0 {
		moreStyle := lipgloss.NewStyle().
			Width(colWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("8"))
		cards = append(cards, moreStyle.Render(fmt.Sprintf("+%d more", overflow)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func renderColorCard(t *model.Ticket, colWidth, contentWidth int) string {
	typeIcon := lipgloss.NewStyle().
		Foreground(ColorFromName(t.Type.Color())).
		Render(t.Type.Icon())
	priIcon := lipgloss.NewStyle().
		Foreground(ColorFromName(t.Priority.Color())).
		Render(t.Priority.Icon())

	lines := []string{
		fmt.Sprintf("%s %s %s", typeIcon, ShortID(t.ID), priIcon),
		truncate(t.Title, contentWidth),
	}
	if len(t.Labels) > 0 {
		lines = append(lines, truncate(strings.Join(t.Labels, ", "), contentWidth))
	}
	lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(truncate(assigneeName(t), contentWidth)))

	cardStyle := lipgloss.NewStyle().
		Width(colWidth-2).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorFromName(t.Status.Color()))

	return cardStyle.Render(strings.Join(lines, "\n"))
}

func clip(tickets []model.Ticket) ([]model.Ticket, int) {
	if len(tickets) > maxCardsPerColumn {
		return tickets[:maxCardsPerColumn], len(tickets) - maxCardsPerColumn
	}
	return tickets, 0
}

// --- Plain text fallback ---

func renderPlainBoard(cols []board.Column) string {
	var b strings.Builder

	for i, col := range cols {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "=== %s %s (%d) ===\n", col.Status.Icon(), strings.ToUpper(string(col.Status)), len(col.Tickets))

		visible, overflow := clip(col.Tickets)
		for j := range visible {
			renderPlainCard(&b, &visible[j])
		}
		if overflow > 0 {
			fmt.Fprintf(&b, "  +%d more\n", overflow)
		}
	}

	return b.String()
}

func renderPlainCard(b *strings.Builder, t *model.Ticket) {
	fmt.Fprintf(b, "  %s [%s] (%s)\n", ShortID(t.ID), string(t.Priority), string(t.Type))
	fmt.Fprintf(b, "  %s\n", truncate(t.Title, maxTitleWidth))
	if len(t.Labels) > 0 {
		fmt.Fprintf(b, "  %s\n", strings.Join(t.Labels, ", "))
	}
	fmt.Fprintf(b, "  @ %s\n", assigneeName(t))
	b.WriteString("\n")
}
