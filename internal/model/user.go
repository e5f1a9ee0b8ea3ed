package model

import (
	"encoding/json"
	"time"
)

// SystemUserName and SystemUserEmail identify the reporter synthesized when a
// ticket is created before any user exists.
const (
	SystemUserName  = "System User"
	SystemUserEmail = "system@example.com"
)

// User is a person who reports or is assigned tickets.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

// DefaultUsers returns the user list seeded into an empty local store.
func DefaultUsers() []User {
	return []User{
		{ID: "1", Name: "John Doe", Email: "john@example.com"},
		{ID: "2", Name: "Jane Smith", Email: "jane@example.com"},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com"},
		{ID: "4", Name: "Sarah Wilson", Email: "sarah@example.com"},
	}
}

// FindUser returns the user with the given ID from users, or nil.
func FindUser(users []User, id string) *User {
	for i := range users {
		if users[i].ID == id {
			u := users[i]
			return &u
		}
	}
	return nil
}

// Attachment is file metadata attached to a ticket. The file itself is not
// stored; URL points at wherever the bytes live.
type Attachment struct {
	ID         string
	Name       string
	Size       int64
	Type       string
	URL        string
	UploadedAt time.Time
}

type attachmentJSON struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Type       string `json:"type"`
	URL        string `json:"url"`
	UploadedAt string `json:"uploadedAt"`
}

// MarshalJSON implements custom JSON serialization for Attachment.
func (a Attachment) MarshalJSON() ([]byte, error) {
	return json.Marshal(attachmentJSON{
		ID:         a.ID,
		Name:       a.Name,
		Size:       a.Size,
		Type:       a.Type,
		URL:        a.URL,
		UploadedAt: FormatTime(a.UploadedAt),
	})
}

// UnmarshalJSON implements custom JSON deserialization for Attachment.
func (a *Attachment) UnmarshalJSON(data []byte) error {
	var j attachmentJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	a.ID = j.ID
	a.Name = j.Name
	a.Size = j.Size
	a.Type = j.Type
	a.URL = j.URL
	a.UploadedAt = ParseTime(j.UploadedAt)
	return nil
}
