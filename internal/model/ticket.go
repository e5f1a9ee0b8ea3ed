package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the board column a ticket sits in. Any status may move
// to any other status.
type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusInReview   Status = "In Review"
	StatusDone       Status = "Done"
)

var validStatuses = []Status{
	StatusTodo,
	StatusInProgress,
	StatusInReview,
	StatusDone,
}

// Statuses returns the statuses in board column order.
func Statuses() []Status {
	return append([]Status(nil), validStatuses...)
}

// ValidateStatus returns an error if s is not a recognized status.
func ValidateStatus(s Status) error {
	for _, v := range validStatuses {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid status %q: must be one of %v", ErrValidation, s, validStatuses)
}

// ParseStatus accepts the display form ("In Progress"), the storage enum
// form ("IN_PROGRESS") and slugs ("in-progress", "review").
func ParseStatus(s string) (Status, error) {
	switch normalizeEnum(s) {
	case "todo":
		return StatusTodo, nil
	case "inprogress", "doing":
		return StatusInProgress, nil
	case "inreview", "review":
		return StatusInReview, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("%w: invalid status %q: must be one of %v", ErrValidation, s, validStatuses)
}

// Color returns a color name string suitable for terminal rendering.
func (s Status) Color() string {
	switch s {
	case StatusTodo:
		return "blue"
	case StatusInProgress:
		return "yellow"
	case StatusInReview:
		return "magenta"
	case StatusDone:
		return "green"
	default:
		return "white"
	}
}

// Icon returns a single-glyph marker for the status.
func (s Status) Icon() string {
	switch s {
	case StatusTodo:
		return "\u25CB" // ○
	case StatusInProgress:
		return "\u25D0" // ◐
	case StatusInReview:
		return "\u25C9" // ◉
	case StatusDone:
		return "\u2714" // ✔
	default:
		return "?"
	}
}

// Priority represents the urgency of a ticket.
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

var validPriorities = []Priority{
	PriorityLow,
	PriorityMedium,
	PriorityHigh,
	PriorityCritical,
}

// Priorities returns the priorities from lowest to highest.
func Priorities() []Priority {
	return append([]Priority(nil), validPriorities...)
}

// ValidatePriority returns an error if p is not a recognized priority.
func ValidatePriority(p Priority) error {
	for _, v := range validPriorities {
		if p == v {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid priority %q: must be one of %v", ErrValidation, p, validPriorities)
}

// ParsePriority accepts any casing of a priority name.
func ParsePriority(s string) (Priority, error) {
	n := normalizeEnum(s)
	for _, v := range validPriorities {
		if n == normalizeEnum(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: invalid priority %q: must be one of %v", ErrValidation, s, validPriorities)
}

// Color returns a color name string suitable for terminal rendering.
func (p Priority) Color() string {
	switch p {
	case PriorityCritical:
		return "red"
	case PriorityHigh:
		return "yellow"
	case PriorityMedium:
		return "blue"
	case PriorityLow:
		return "gray"
	default:
		return "white"
	}
}

// Icon returns a short urgency marker for the priority.
func (p Priority) Icon() string {
	switch p {
	case PriorityCritical:
		return "!!!"
	case PriorityHigh:
		return "!!"
	case PriorityMedium:
		return "!"
	case PriorityLow:
		return "-"
	default:
		return " "
	}
}

// TicketType represents the category of a ticket.
type TicketType string

const (
	TypeBug     TicketType = "Bug"
	TypeFeature TicketType = "Feature"
	TypeTask    TicketType = "Task"
	TypeEpic    TicketType = "Epic"
	TypeStory   TicketType = "Story"
)

var validTypes = []TicketType{
	TypeBug,
	TypeFeature,
	TypeTask,
	TypeEpic,
	TypeStory,
}

// Types returns every ticket type.
func Types() []TicketType {
	return append([]TicketType(nil), validTypes...)
}

// ValidateType returns an error if t is not a recognized ticket type.
func ValidateType(t TicketType) error {
	for _, v := range validTypes {
		if t == v {
			return nil
		}
	}
	return fmt.Errorf("%w: invalid type %q: must be one of %v", ErrValidation, t, validTypes)
}

// ParseType accepts any casing of a ticket type name.
func ParseType(s string) (TicketType, error) {
	n := normalizeEnum(s)
	for _, v := range validTypes {
		if n == normalizeEnum(string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: invalid type %q: must be one of %v", ErrValidation, s, validTypes)
}

// Color returns a color name string suitable for terminal rendering.
func (t TicketType) Color() string {
	switch t {
	case TypeBug:
		return "red"
	case TypeFeature:
		return "green"
	case TypeTask:
		return "blue"
	case TypeEpic:
		return "magenta"
	case TypeStory:
		return "yellow"
	default:
		return "white"
	}
}

// Icon returns a single-glyph marker for the ticket type.
func (t TicketType) Icon() string {
	switch t {
	case TypeBug:
		return "\u2717" // ✗
	case TypeFeature:
		return "\u2605" // ★
	case TypeTask:
		return "\u25A0" // ■
	case TypeEpic:
		return "\u25C6" // ◆
	case TypeStory:
		return "\u00B6" // ¶
	default:
		return "?"
	}
}

// normalizeEnum lowercases s and strips spaces, dashes and underscores so that
// "In Progress", "IN_PROGRESS" and "in-progress" compare equal.
func normalizeEnum(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Ticket is a unit of tracked work.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	Type        TicketType
	Assignee    *User
	Reporter    User
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DueDate     *time.Time
	Labels      []string
	Attachments []Attachment
	Version     int
}

// AssigneeID returns the assignee's ID, or "" when unassigned.
func (t *Ticket) AssigneeID() string {
	if t.Assignee == nil {
		return ""
	}
	return t.Assignee.ID
}

// HasLabel reports whether the ticket carries the named label.
func (t *Ticket) HasLabel(name string) bool {
	for _, l := range t.Labels {
		if l == name {
			return true
		}
	}
	return false
}

// ticketJSON is the JSON wire format for Ticket.
type ticketJSON struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Type        string       `json:"type"`
	Assignee    *User        `json:"assignee,omitempty"`
	Reporter    User         `json:"reporter"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
	DueDate     *string      `json:"dueDate,omitempty"`
	Labels      []string     `json:"labels"`
	Attachments []Attachment `json:"attachments"`
	Version     int          `json:"version"`
}

// MarshalJSON implements custom JSON serialization for Ticket.
func (t Ticket) MarshalJSON() ([]byte, error) {
	j := ticketJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Type:        string(t.Type),
		Assignee:    t.Assignee,
		Reporter:    t.Reporter,
		CreatedAt:   FormatTime(t.CreatedAt),
		UpdatedAt:   FormatTime(t.UpdatedAt),
		Labels:      t.Labels,
		Attachments: t.Attachments,
		Version:     t.Version,
	}
	if j.Labels == nil {
		j.Labels = []string{}
	}
	if j.Attachments == nil {
		j.Attachments = []Attachment{}
	}
	if t.DueDate != nil {
		d := FormatTime(*t.DueDate)
		j.DueDate = &d
	}

	return json.Marshal(j)
}

// UnmarshalJSON implements custom JSON deserialization for Ticket. Enum
// values must be recognized; unparseable dates decode as the current time.
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var j ticketJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}

	t.ID = j.ID
	t.Title = j.Title
	t.Description = j.Description

	status, err := ParseStatus(j.Status)
	if err != nil {
		return err
	}
	t.Status = status

	priority, err := ParsePriority(j.Priority)
	if err != nil {
		return err
	}
	t.Priority = priority

	kind, err := ParseType(j.Type)
	if err != nil {
		return err
	}
	t.Type = kind

	t.Assignee = j.Assignee
	t.Reporter = j.Reporter
	t.CreatedAt = ParseTime(j.CreatedAt)
	t.UpdatedAt = ParseTime(j.UpdatedAt)

	t.DueDate = nil
	if j.DueDate != nil && *j.DueDate != "" {
		d := ParseTime(*j.DueDate)
		t.DueDate = &d
	}

	t.Labels = j.Labels
	if t.Labels == nil {
		t.Labels = []string{}
	}
	t.Attachments = j.Attachments
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
	t.Version = j.Version

	return nil
}
