package render

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

const (
	maxTitleWidth = 40
	shortIDLength = 8
)

// StyledText applies a lipgloss style to text when colors are enabled.
func StyledText(text string, style lipgloss.Style) string {
	if ColorsEnabled() {
		return style.Render(text)
	}
	return text
}

// ColorFromName maps model color name strings to lipgloss colors.
func ColorFromName(name string) lipgloss.Color {
	switch name {
	case "red":
		return lipgloss.Color("9")
	case "yellow":
		return lipgloss.Color("11")
	case "blue":
		return lipgloss.Color("12")
	case "green":
		return lipgloss.Color("10")
	case "magenta":
		return lipgloss.Color("13")
	case "gray":
		return lipgloss.Color("8")
	default:
		return lipgloss.Color("15")
	}
}

// ShortID returns the leading characters of a ticket ID, enough to tell
// tickets apart on screen. Commands accept it as a prefix.
func ShortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

// truncate shortens a string to maxLen runes, appending an ellipsis if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

func statusLabel(s model.Status) string {
	return s.Icon() + " " + string(s)
}

func priorityLabel(p model.Priority) string {
	return fmt.Sprintf("%s %s", p.Icon(), string(p))
}

func typeLabel(t model.TicketType) string {
	return fmt.Sprintf("%s %s", t.Icon(), string(t))
}

func assigneeName(t *model.Ticket) string {
	if t.Assignee == nil {
		return "Unassigned"
	}
	return t.Assignee.Name
}

// EmptyState renders a styled empty-state message with an optional contextual hint.
// When quiet is true the hint is suppressed.
func EmptyState(message, hint string, quiet bool) string {
	if !ColorsEnabled() {
		if quiet || hint == "" {
			return message
		}
		return message + "\n" + hint
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)

	result := dimStyle.Render(message)
	if !quiet && hint != "" {
		result += "\n" + hintStyle.Render(hint)
	}
	return result
}
