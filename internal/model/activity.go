package model

import "time"

// Activity represents a change record for a ticket field.
type Activity struct {
	ID           string    `json:"id"`
	TicketID     string    `json:"ticketId"`
	FieldChanged string    `json:"field"`
	OldValue     string    `json:"oldValue,omitempty"`
	NewValue     string    `json:"newValue,omitempty"`
	ChangedBy    string    `json:"changedBy,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}
