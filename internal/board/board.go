// Package board holds the in-memory ticket board: the loaded tickets and
// users, optimistic status moves, and filtered column views.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ALT-F4-LLC/ticketboard/internal/filter"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownTicket is returned for a ticket ID the board has not loaded.
var ErrUnknownTicket = errors.New("unknown ticket")

// Backend is the data source behind a board.
type Backend interface {
	ListTickets(ctx context.Context) ([]model.Ticket, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateTicket(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error)
	UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
}

// Column is one status column of the board.
type Column struct {
	Status  model.Status   `json:"status"`
	Tickets []model.Ticket `json:"tickets"`
}

// Board is safe for concurrent use.
type Board struct {
	backend Backend

	mu      sync.Mutex
	tickets []model.Ticket
	users   []model.User

	// inflight maps a ticket ID to the token of its newest pending move.
	inflight map[string]uint64
	// confirmed holds the last status the backend accepted per ticket and
	// the token of the move that produced it.
	confirmed map[string]confirmation
	seq       uint64
}

type confirmation struct {
	status model.Status
	token  uint64
}

// New returns an empty board. Call Load to populate it.
func New(backend Backend) *Board {
	return &Board{
		backend:  backend,
		tickets:  []model.Ticket{},
		users:    []model.User{},
		inflight:  make(map[string]uint64),
		confirmed: make(map[string]confirmation),
	}
}

// Load fetches tickets and users concurrently and replaces the board state.
func (b *Board) Load(ctx context.Context) error {
	var tickets []model.Ticket
	var users []model.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tickets, err = b.backend.ListTickets(gctx)
		if err != nil {
			return fmt.Errorf("loading tickets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = b.backend.ListUsers(gctx)
		if err != nil {
			return fmt.Errorf("loading users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets = tickets
	b.users = users
	b.confirmed = make(map[string]confirmation, len(tickets))
	b.seq++
	for _, t := range tickets {
		b.confirm(t.ID, t.Status, b.seq)
	}
	return nil
}

// Tickets returns a copy of every loaded ticket.
func (b *Board) Tickets() []model.Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Ticket{}, b.tickets...)
}

// Users returns a copy of the loaded users.
func (b *Board) Users() []model.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.User{}, b.users...)
}

// Ticket returns the loaded ticket with the given ID.
func (b *Board) Ticket(id string) (model.Ticket, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.index(id)
	if i < 0 {
		return model.Ticket{}, false
	}
	return b.tickets[i], true
}

// Filtered returns the tickets matching c in board order.
func (b *Board) Filtered(c filter.Criteria) []model.Ticket {
	return c.Apply(b.Tickets())
}

// Columns groups the tickets matching c into one column per status, in
// board order.
func (b *Board) Columns(c filter.Criteria) []Column {
	statuses := model.Statuses()
	cols := make([]Column, len(statuses))
	pos := make(map[model.Status]int, len(statuses))
	for i, s := range statuses {
		cols[i] = Column{Status: s, Tickets: []model.Ticket{}}
		pos[s] = i
	}
	for _, t := range b.Filtered(c) {
		if i, ok := pos[t.Status]; ok {
			cols[i].Tickets = append(cols[i].Tickets, t)
		}
	}
	return cols
}

// Move sets a ticket's status optimistically: the board shows the new
// status before the backend confirms it. On failure the last status the
// backend accepted is restored, unless a newer move of the same ticket was
// issued meanwhile, in which case the newer intent stands. A success older
// than an already confirmed move is not applied. Moving to the current
// status is a no-op and makes no backend call.
func (b *Board) Move(ctx context.Context, id string, status model.Status) (*model.Ticket, error) {
	if err := model.ValidateStatus(status); err != nil {
		return nil, err
	}

	b.mu.Lock()
	i := b.index(id)
	if i < 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownTicket, id)
	}
	prev := b.tickets[i].Status
	if prev == status {
		t := b.tickets[i]
		b.mu.Unlock()
		return &t, nil
	}
	b.seq++
	token := b.seq
	b.inflight[id] = token
	b.tickets[i].Status = status
	b.mu.Unlock()

	updated, err := b.backend.UpdateTicket(ctx, id, model.UpdateTicketInput{Status: &status})

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight[id] == token {
		delete(b.inflight, id)
	}
	_, pending := b.inflight[id]
	i = b.index(id)

	if err != nil {
		if !pending && i >= 0 && b.tickets[i].Status == status {
			if c, ok := b.confirmed[id]; ok {
				prev = c.status
			}
			b.tickets[i].Status = prev
		}
		return nil, fmt.Errorf("moving ticket %s to %s: %w", id, status, err)
	}
	if token > b.confirmed[id].token {
		b.confirm(id, updated.Status, token)
		if !pending && i >= 0 {
			b.tickets[i] = *updated
		}
	}
	return updated, nil
}

// Update applies a partial update through the backend and stores the result.
func (b *Board) Update(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error) {
	updated, err := b.backend.UpdateTicket(ctx, id, in)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		b.tickets[i] = *updated
	}
	b.seq++
	b.confirm(id, updated.Status, b.seq)
	return updated, nil
}

// Create creates a ticket through the backend and adds it to the board.
func (b *Board) Create(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error) {
	created, err := b.backend.CreateTicket(ctx, in)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets = append(b.tickets, *created)
	b.seq++
	b.confirm(created.ID, created.Status, b.seq)
	return created, nil
}

// Duplicate creates a copy of a ticket titled "<title> (Copy)" with the same
// description, priority, type, assignee, due date and labels.
func (b *Board) Duplicate(ctx context.Context, id string) (*model.Ticket, error) {
	src, ok := b.Ticket(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTicket, id)
	}

	in := model.CreateTicketInput{
		Title:       src.Title + " (Copy)",
		Description: src.Description,
		Priority:    src.Priority,
		Type:        src.Type,
		AssigneeID:  src.AssigneeID(),
		DueDate:     src.DueDate,
		Labels:      append([]string{}, src.Labels...),
	}
	return b.Create(ctx, in)
}

// Delete deletes a ticket through the backend, then drops it from the board.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.backend.DeleteTicket(ctx, id); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.index(id); i >= 0 {
		b.tickets = append(b.tickets[:i], b.tickets[i+1:]...)
	}
	delete(b.inflight, id)
	delete(b.confirmed, id)
	return nil
}

// confirm records status as accepted by the backend. Callers hold b.mu.
func (b *Board) confirm(id string, status model.Status, token uint64) {
	b.confirmed[id] = confirmation{status: status, token: token}
}

// index returns the position of id in b.tickets. Callers hold b.mu.
func (b *Board) index(id string) int {
	for i := range b.tickets {
		if b.tickets[i].ID == id {
			return i
		}
	}
	return -1
}
