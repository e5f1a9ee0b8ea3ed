package cache

import (
	"testing"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadTicketsEmpty(t *testing.T) {
	s := newStore(t)

	tickets, err := s.LoadTickets()
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestLoadUsersDefaults(t *testing.T) {
	s := newStore(t)

	users, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 4)
	assert.Equal(t, "John Doe", users[0].Name)
	assert.Equal(t, "Sarah Wilson", users[3].Name)
}

func TestReplaceTicketsRoundTrip(t *testing.T) {
	s := newStore(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := []model.Ticket{{
		ID:          "t1",
		Title:       "Cached",
		Description: "desc",
		Status:      model.StatusInReview,
		Priority:    model.PriorityHigh,
		Type:        model.TypeBug,
		Reporter:    model.User{ID: "1", Name: "John Doe", Email: "john@example.com"},
		CreatedAt:   now,
		UpdatedAt:   now,
		Labels:      []string{"x"},
		Attachments: []model.Attachment{},
		Version:     3,
	}}

	require.NoError(t, s.ReplaceTickets(want))
	got, err := s.LoadTickets()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.ReplaceTickets(nil))
	got, err = s.LoadTickets()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceUsersEmptyIsNotDefaults(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.ReplaceUsers([]model.User{}))
	users, err := s.LoadUsers()
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestMalformedSnapshotFallsBack(t *testing.T) {
	s := newStore(t)

	err := s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(ticketsKey), []byte("{not json")); err != nil {
			return err
		}
		return txn.Set([]byte(usersKey), []byte("nope"))
	})
	require.NoError(t, err)

	tickets, err := s.LoadTickets()
	require.NoError(t, err)
	assert.Empty(t, tickets)

	users, err := s.LoadUsers()
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestInvalidDatesBecomeNow(t *testing.T) {
	s := newStore(t)
	raw := `[{"id":"t1","title":"A","description":"B","status":"TO_DO","priority":"LOW","type":"TASK",
		"reporter":{"id":"1","name":"John Doe","email":"john@example.com"},
		"createdAt":"garbage","updatedAt":"","labels":null}]`
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ticketsKey), []byte(raw))
	}))

	before := time.Now().Add(-time.Second)
	tickets, err := s.LoadTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, model.StatusTodo, tickets[0].Status)
	assert.True(t, tickets[0].CreatedAt.After(before))
	assert.NotNil(t, tickets[0].Labels)
}

func TestMalformedTicketIsSkipped(t *testing.T) {
	s := newStore(t)
	raw := `[{"id":"t1","title":"Keep","description":"B","status":"To Do","priority":"Low","type":"Task",
		"reporter":{"id":"1","name":"John Doe","email":"john@example.com"},
		"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z","labels":[]},
		{"id":"t2","title":"Drop","description":"B","status":"Blocked","priority":"Low","type":"Task",
		"reporter":{"id":"1","name":"John Doe","email":"john@example.com"},
		"createdAt":"2024-01-01T00:00:00Z","updatedAt":"2024-01-01T00:00:00Z","labels":[]}]`
	require.NoError(t, s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(ticketsKey), []byte(raw))
	}))

	tickets, err := s.LoadTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "t1", tickets[0].ID)

	// A later write keeps the valid entry.
	require.NoError(t, s.ReplaceTickets(append(tickets, model.Ticket{
		ID: "t3", Title: "New", Description: "C",
		Status: model.StatusTodo, Priority: model.PriorityLow, Type: model.TypeTask,
	})))
	tickets, err = s.LoadTickets()
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, "t1", tickets[0].ID)
	assert.Equal(t, "t3", tickets[1].ID)
}

func TestPersistentStore(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.ReplaceUsers([]model.User{{ID: "u1", Name: "Solo", Email: "solo@example.com"}}))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	users, err := s.LoadUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Solo", users[0].Name)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorContains(t, err, "path is required")
}
