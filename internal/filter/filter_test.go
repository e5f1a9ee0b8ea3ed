package filter

import (
	"testing"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

func ticket(id, title, desc, assignee string, p model.Priority, labels ...string) model.Ticket {
	t := model.Ticket{
		ID: id, Title: title, Description: desc,
		Status: model.StatusTodo, Priority: p, Labels: labels,
	}
	if assignee != "" {
		t.Assignee = &model.User{ID: assignee}
	}
	return t
}

func ids(tickets []model.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssigneeAndPriorityCompose(t *testing.T) {
	tickets := []model.Ticket{
		ticket("A", "a", "", "U1", model.PriorityHigh),
		ticket("B", "b", "", "U2", model.PriorityHigh),
	}

	got := Criteria{AssigneeID: "U1", Priority: model.PriorityHigh}.Apply(tickets)
	if !equal(ids(got), []string{"A"}) {
		t.Errorf("Apply = %v, want [A]", ids(got))
	}
}

func TestApply(t *testing.T) {
	tickets := []model.Ticket{
		ticket("1", "Fix Login bug", "users cannot sign in", "u1", model.PriorityHigh, "auth", "critical"),
		ticket("2", "Dark mode", "add a theme", "u2", model.PriorityMedium, "ui"),
		ticket("3", "Refactor", "clean up the LOGIN handler", "", model.PriorityLow),
		ticket("4", "Docs", "write docs", "u1", model.PriorityHigh, "auth"),
	}
	tickets[1].Status = model.StatusInProgress

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty keeps all in order", Criteria{}, []string{"1", "2", "3", "4"}},
		{"query matches title case-insensitively", Criteria{Query: "login"}, []string{"1", "3"}},
		{"query matches label", Criteria{Query: "UI"}, []string{"2"}},
		{"query is trimmed", Criteria{Query: "  theme "}, []string{"2"}},
		{"assignee", Criteria{AssigneeID: "u1"}, []string{"1", "4"}},
		{"priority", Criteria{Priority: model.PriorityLow}, []string{"3"}},
		{"status", Criteria{Status: model.StatusInProgress}, []string{"2"}},
		{"all labels required", Criteria{Labels: []string{"auth", "critical"}}, []string{"1"}},
		{"conjunction", Criteria{Query: "docs", AssigneeID: "u1", Labels: []string{"auth"}}, []string{"4"}},
		{"no match", Criteria{Query: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(tt.c.Apply(tickets))
			if !equal(got, tt.want) {
				t.Errorf("Apply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsEmpty(t *testing.T) {
	if !(Criteria{Query: "   "}).IsEmpty() {
		t.Error("blank query should be empty")
	}
	if (Criteria{Labels: []string{"x"}}).IsEmpty() {
		t.Error("labels set should not be empty")
	}
}

func TestMatch(t *testing.T) {
	tk := ticket("1", "A", "B", "", model.PriorityLow)
	if (Criteria{AssigneeID: "u1"}).Match(&tk) {
		t.Error("unassigned ticket should not match assignee filter")
	}
	if !(Criteria{Priority: model.PriorityLow}).Match(&tk) {
		t.Error("priority should match")
	}
}

func TestToStringSet(t *testing.T) {
	if ToStringSet(nil) != nil {
		t.Error("ToStringSet(nil) should be nil")
	}
	set := ToStringSet([]string{"a", "b", "a"})
	if len(set) != 2 {
		t.Errorf("len = %d, want 2", len(set))
	}
}

func TestHasAllLabels(t *testing.T) {
	tk := ticket("1", "A", "B", "", model.PriorityLow, "x", "y")
	if !HasAllLabels(&tk, nil) {
		t.Error("nil requirement should match")
	}
	if !HasAllLabels(&tk, ToStringSet([]string{"x"})) {
		t.Error("subset should match")
	}
	if HasAllLabels(&tk, ToStringSet([]string{"x", "z"})) {
		t.Error("missing label should not match")
	}
}
