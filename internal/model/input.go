package model

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks errors caused by bad caller input.
var ErrValidation = errors.New("validation failed")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so API errors match the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	must := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("registering %s validator: %v", tag, err))
		}
	}
	must("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	must("status", func(fl validator.FieldLevel) bool {
		return ValidateStatus(Status(fl.Field().String())) == nil
	})
	must("priority", func(fl validator.FieldLevel) bool {
		return ValidatePriority(Priority(fl.Field().String())) == nil
	})
	must("tickettype", func(fl validator.FieldLevel) bool {
		return ValidateType(TicketType(fl.Field().String())) == nil
	})

	return v
}

// Validate checks v against its validate struct tags. Failures wrap
// ErrValidation and name the offending JSON fields.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return fe.Field() + " is required"
	case "status":
		return fmt.Sprintf("%s must be one of %v", fe.Field(), validStatuses)
	case "priority":
		return fmt.Sprintf("%s must be one of %v", fe.Field(), validPriorities)
	case "tickettype":
		return fmt.Sprintf("%s must be one of %v", fe.Field(), validTypes)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}

// NormalizeLabels trims label names, drops empties and removes duplicates
// while keeping first-seen order. The result is never nil.
func NormalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// CreateTicketInput holds the fields accepted when creating a ticket.
type CreateTicketInput struct {
	Title       string     `json:"title" validate:"notblank,max=200"`
	Description string     `json:"description" validate:"notblank"`
	Priority    Priority   `json:"priority,omitempty" validate:"priority"`
	Type        TicketType `json:"type,omitempty" validate:"tickettype"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels,omitempty" validate:"dive,max=50"`
}

// Normalize trims text fields, applies the Medium/Task defaults, canonicalizes
// enum spellings and validates the result.
func (in *CreateTicketInput) Normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.AssigneeID = strings.TrimSpace(in.AssigneeID)

	if in.Priority == "" {
		in.Priority = PriorityMedium
	} else {
		p, err := ParsePriority(string(in.Priority))
		if err != nil {
			return err
		}
		in.Priority = p
	}

	if in.Type == "" {
		in.Type = TypeTask
	} else {
		t, err := ParseType(string(in.Type))
		if err != nil {
			return err
		}
		in.Type = t
	}

	in.Labels = NormalizeLabels(in.Labels)
	return Validate(in)
}

// UpdateTicketInput is a partial update. Nil fields are left unchanged.
// AssigneeID set to "" unassigns; Labels replaces the whole label set.
// Version, when set, must match the stored version.
type UpdateTicketInput struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description *string     `json:"description,omitempty"`
	Status      *Status     `json:"status,omitempty" validate:"omitempty,status"`
	Priority    *Priority   `json:"priority,omitempty" validate:"omitempty,priority"`
	Type        *TicketType `json:"type,omitempty" validate:"omitempty,tickettype"`
	AssigneeID  *string     `json:"assigneeId,omitempty"`
	DueDate     *time.Time  `json:"dueDate,omitempty"`
	Labels      *[]string   `json:"labels,omitempty" validate:"omitempty,dive,max=50"`
	Version     *int        `json:"version,omitempty" validate:"omitempty,min=1"`
}

// Normalize drops empty text and enum fields (they mean "not provided"),
// canonicalizes enum spellings, normalizes labels and validates the result.
func (in *UpdateTicketInput) Normalize() error {
	in.Title = trimOrNil(in.Title)
	in.Description = trimOrNil(in.Description)

	if in.Status != nil {
		if *in.Status == "" {
			in.Status = nil
		} else {
			s, err := ParseStatus(string(*in.Status))
			if err != nil {
				return err
			}
			in.Status = &s
		}
	}
	if in.Priority != nil {
		if *in.Priority == "" {
			in.Priority = nil
		} else {
			p, err := ParsePriority(string(*in.Priority))
			if err != nil {
				return err
			}
			in.Priority = &p
		}
	}
	if in.Type != nil {
		if *in.Type == "" {
			in.Type = nil
		} else {
			t, err := ParseType(string(*in.Type))
			if err != nil {
				return err
			}
			in.Type = &t
		}
	}
	if in.AssigneeID != nil {
		id := strings.TrimSpace(*in.AssigneeID)
		in.AssigneeID = &id
	}
	if in.Labels != nil {
		labels := NormalizeLabels(*in.Labels)
		in.Labels = &labels
	}

	return Validate(in)
}

// IsEmpty reports whether the update changes nothing.
func (in *UpdateTicketInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil &&
		in.Priority == nil && in.Type == nil && in.AssigneeID == nil &&
		in.DueDate == nil && in.Labels == nil
}

func trimOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// AttachmentInput describes a file to attach to a ticket.
type AttachmentInput struct {
	Name string `json:"name" validate:"notblank,max=255"`
	Size int64  `json:"size" validate:"min=0"`
	Type string `json:"type"`
	URL  string `json:"url" validate:"notblank"`
}

// CreateUserInput holds the fields accepted when creating a user.
type CreateUserInput struct {
	Name   string `json:"name" validate:"notblank,max=100"`
	Email  string `json:"email" validate:"required,email"`
	Avatar string `json:"avatar,omitempty" validate:"omitempty,url"`
}

// NewTicket builds a ticket from a normalized create input. The status always
// starts at To Do.
func NewTicket(id string, in CreateTicketInput, reporter User, assignee *User, now time.Time) Ticket {
	labels := append([]string{}, in.Labels...)
	return Ticket{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Status:      StatusTodo,
		Priority:    in.Priority,
		Type:        in.Type,
		Assignee:    assignee,
		Reporter:    reporter,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     in.DueDate,
		Labels:      labels,
		Attachments: []Attachment{},
		Version:     1,
	}
}

// ApplyUpdate merges a normalized update into t. lookup resolves assignee IDs;
// an unknown ID leaves the ticket unassigned. It returns the names of the
// fields that changed.
func ApplyUpdate(t *Ticket, in UpdateTicketInput, lookup func(id string) *User, now time.Time) []string {
	var changed []string

	if in.Title != nil && *in.Title != t.Title {
		t.Title = *in.Title
		changed = append(changed, "title")
	}
	if in.Description != nil && *in.Description != t.Description {
		t.Description = *in.Description
		changed = append(changed, "description")
	}
	if in.Status != nil && *in.Status != t.Status {
		t.Status = *in.Status
		changed = append(changed, "status")
	}
	if in.Priority != nil && *in.Priority != t.Priority {
		t.Priority = *in.Priority
		changed = append(changed, "priority")
	}
	if in.Type != nil && *in.Type != t.Type {
		t.Type = *in.Type
		changed = append(changed, "type")
	}
	if in.AssigneeID != nil && *in.AssigneeID != t.AssigneeID() {
		if *in.AssigneeID == "" {
			t.Assignee = nil
		} else {
			t.Assignee = lookup(*in.AssigneeID)
		}
		changed = append(changed, "assignee")
	}
	if in.DueDate != nil && (t.DueDate == nil || !in.DueDate.Equal(*t.DueDate)) {
		d := *in.DueDate
		t.DueDate = &d
		changed = append(changed, "due_date")
	}
	if in.Labels != nil && !sameLabels(*in.Labels, t.Labels) {
		t.Labels = append([]string{}, (*in.Labels)...)
		changed = append(changed, "labels")
	}

	t.UpdatedAt = now
	t.Version++
	return changed
}

// sameLabels reports whether a and b hold the same label set. Order is not
// significant since labels are stored sorted.
func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
