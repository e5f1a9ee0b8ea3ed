package render

import (
	"fmt"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"

	"github.com/charmbracelet/lipgloss"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

var nowFunc = time.Now

// RenderDetail renders a full ticket view including metadata, description,
// attachments and recent activity.
func RenderDetail(t *model.Ticket, activity []model.Activity) string {
	if !ColorsEnabled() {
		return renderPlainDetail(t, activity)
	}

	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	sections := []string{renderHeader(t), renderMetadata(t)}

	if t.Description != "" {
		rendered, err := RenderMarkdown(t.Description, TerminalWidth())
		if err != nil {
			rendered = t.Description
		}
		sections = append(sections, sectionStyle.Render("Description")+"\n"+rendered)
	}

	if len(t.Attachments) > 0 {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		lines := []string{sectionStyle.Render("Attachments")}
		for _, a := range t.Attachments {
			lines = append(lines, "  "+attachmentLine(a, dim))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(activity) > 0 {
		timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		lines := []string{sectionStyle.Render("Activity")}
		for _, a := range activity {
			lines = append(lines, fmt.Sprintf("  %s %s  %s", activityIcon(a), activityText(a), timeStyle.Render(humanize.Time(a.CreatedAt))))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	return strings.Join(sections, "\n\n")
}

func renderHeader(t *model.Ticket) string {
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	titleStyle := lipgloss.NewStyle().Bold(true)
	typeStyle := lipgloss.NewStyle().Foreground(ColorFromName(t.Type.Color())).Bold(true)
	statusStyle := lipgloss.NewStyle().Foreground(ColorFromName(t.Status.Color())).Bold(true)
	priorityStyle := lipgloss.NewStyle().Foreground(ColorFromName(t.Priority.Color())).Bold(true)

	return fmt.Sprintf("%s %s  %s\n%s  %s",
		typeStyle.Render(t.Type.Icon()),
		idStyle.Render(ShortID(t.ID)),
		titleStyle.Render(t.Title),
		statusStyle.Render(statusLabel(t.Status)),
		priorityStyle.Render(priorityLabel(t.Priority)),
	)
}

func renderMetadata(t *model.Ticket) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	row := func(k, v string) string { return labelStyle.Render(k) + " " + v }

	lines := []string{
		row("ID:", t.ID),
		row("Type:", lipgloss.NewStyle().Foreground(ColorFromName(t.Type.Color())).Render(typeLabel(t.Type))),
		row("Assignee:", assigneeName(t)),
		row("Reporter:", t.Reporter.Name),
	}
	if len(t.Labels) > 0 {
		lines = append(lines, row("Labels:", strings.Join(t.Labels, ", ")))
	}
	if t.DueDate != nil {
		due := t.DueDate.Format("2006-01-02")
		if isOverdue(t) {
			due = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(due + " (overdue)")
		}
		lines = append(lines, row("Due:", due))
	}
	lines = append(lines,
		row("Created:", humanize.Time(t.CreatedAt)),
		row("Updated:", humanize.Time(t.UpdatedAt)),
		row("Version:", fmt.Sprint(t.Version)),
	)
	return strings.Join(lines, "\n")
}

func attachmentLine(a model.Attachment, dim lipgloss.Style) string {
	meta := humanize.Bytes(uint64(max(a.Size, 0)))
	if a.Type != "" {
		meta += ", " + a.Type
	}
	return fmt.Sprintf("\u25b8 %s %s", a.Name, StyledText("("+meta+")", dim))
}

// activityIcon returns a semantic icon for an activity entry.
func activityIcon(a model.Activity) string {
	switch a.FieldChanged {
	case "created":
		return "\u2728" // ✨
	case "status":
		if a.NewValue != "" {
			return model.Status(a.NewValue).Icon()
		}
		return "\u25cb" // ○
	case "attachment":
		return "\u2398" // ⎘
	}
	return "\u270e" // ✎
}

func activityText(a model.Activity) string {
	actor := a.ChangedBy
	if actor == "" {
		actor = "system"
	}
	if a.FieldChanged == "created" {
		return "Ticket created by " + actor
	}

	var detail string
	switch {
	case a.OldValue != "" && a.NewValue != "":
		detail = fmt.Sprintf("%s -> %s", a.OldValue, a.NewValue)
	case a.NewValue != "":
		detail = "added " + a.NewValue
	case a.OldValue != "":
		detail = "removed " + a.OldValue
	}
	return fmt.Sprintf("%s changed %s: %s", actor, a.FieldChanged, detail)
}

func renderPlainDetail(t *model.Ticket, activity []model.Activity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s  %s\n", t.Type.Icon(), ShortID(t.ID), t.Title)
	fmt.Fprintf(&b, "%s  %s\n", statusLabel(t.Status), priorityLabel(t.Priority))

	b.WriteString("\n")
	fmt.Fprintf(&b, "ID: %s\n", t.ID)
	fmt.Fprintf(&b, "Type: %s\n", typeLabel(t.Type))
	fmt.Fprintf(&b, "Assignee: %s\n", assigneeName(t))
	fmt.Fprintf(&b, "Reporter: %s\n", t.Reporter.Name)
	if len(t.Labels) > 0 {
		fmt.Fprintf(&b, "Labels: %s\n", strings.Join(t.Labels, ", "))
	}
	if t.DueDate != nil {
		overdue := ""
		if isOverdue(t) {
			overdue = " (overdue)"
		}
		fmt.Fprintf(&b, "Due: %s%s\n", t.DueDate.Format("2006-01-02"), overdue)
	}
	fmt.Fprintf(&b, "Created: %s\n", humanize.Time(t.CreatedAt))
	fmt.Fprintf(&b, "Updated: %s\n", humanize.Time(t.UpdatedAt))
	fmt.Fprintf(&b, "Version: %d\n", t.Version)

	if t.Description != "" {
		fmt.Fprintf(&b, "\nDescription\n%s\n", t.Description)
	}

	if len(t.Attachments) > 0 {
		b.WriteString("\nAttachments\n")
		for _, a := range t.Attachments {
			fmt.Fprintf(&b, "  %s\n", attachmentLine(a, lipgloss.NewStyle()))
		}
	}

	if len(activity) > 0 {
		b.WriteString("\nActivity\n")
		for _, a := range activity {
			fmt.Fprintf(&b, "  %s %s  %s\n", activityIcon(a), activityText(a), humanize.Time(a.CreatedAt))
		}
	}

	return b.String()
}

// RenderActivity renders an activity history in the order given.
func RenderActivity(activity []model.Activity) string {
	if len(activity) == 0 {
		return EmptyState("No activity recorded.", "", true)
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	lines := make([]string, 0, len(activity))
	for _, a := range activity {
		lines = append(lines, fmt.Sprintf("%s %s  %s", activityIcon(a), activityText(a), StyledText(humanize.Time(a.CreatedAt), timeStyle)))
	}
	return strings.Join(lines, "\n")
}
