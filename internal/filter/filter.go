// Package filter narrows a ticket list by conjunctive criteria.
package filter

import (
	"strings"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

// Criteria holds the active filters. Zero-valued fields are ignored; every
// non-empty field must match.
type Criteria struct {
	// Query is matched case-insensitively against the title, the description
	// and each label.
	Query      string
	AssigneeID string
	Priority   model.Priority
	Status     model.Status
	Labels     []string
}

// IsEmpty reports whether c filters nothing out.
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.Query) == "" && c.AssigneeID == "" &&
		c.Priority == "" && c.Status == "" && len(c.Labels) == 0
}

// Match reports whether t satisfies every criterion.
func (c Criteria) Match(t *model.Ticket) bool {
	return c.matcher()(t)
}

// Apply returns the tickets that satisfy c, preserving input order.
func (c Criteria) Apply(tickets []model.Ticket) []model.Ticket {
	match := c.matcher()
	out := make([]model.Ticket, 0, len(tickets))
	for i := range tickets {
		if match(&tickets[i]) {
			out = append(out, tickets[i])
		}
	}
	return out
}

func (c Criteria) matcher() func(*model.Ticket) bool {
	query := strings.ToLower(strings.TrimSpace(c.Query))
	required := ToStringSet(c.Labels)

	return func(t *model.Ticket) bool {
		if query != "" && !matchesQuery(t, query) {
			return false
		}
		if c.AssigneeID != "" && t.AssigneeID() != c.AssigneeID {
			return false
		}
		if c.Priority != "" && t.Priority != c.Priority {
			return false
		}
		if c.Status != "" && t.Status != c.Status {
			return false
		}
		return HasAllLabels(t, required)
	}
}

func matchesQuery(t *model.Ticket, lowered string) bool {
	if strings.Contains(strings.ToLower(t.Title), lowered) ||
		strings.Contains(strings.ToLower(t.Description), lowered) {
		return true
	}
	for _, l := range t.Labels {
		if strings.Contains(strings.ToLower(l), lowered) {
			return true
		}
	}
	return false
}

// ToStringSet converts a slice of strings to a set for O(1) membership checks.
func ToStringSet(ss []string) map[string]struct{} {
	if len(ss) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return set
}

// HasAllLabels returns true if the ticket has every label in the required set.
func HasAllLabels(t *model.Ticket, required map[string]struct{}) bool {
	if len(required) == 0 {
		return true
	}
	have := ToStringSet(t.Labels)
	for l := range required {
		if _, ok := have[l]; !ok {
			return false
		}
	}
	return true
}
