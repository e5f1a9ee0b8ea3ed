package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ALT-F4-LLC/ticketboard/internal/filter"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

type fakeBackend struct {
	mu       sync.Mutex
	tickets  []model.Ticket
	users    []model.User
	updates  int
	created  []model.CreateTicketInput
	deleted  []string
	listErr  error
	updateFn func(id string, in model.UpdateTicketInput) (*model.Ticket, error)
}

func (f *fakeBackend) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Ticket{}, f.tickets...), nil
}

func (f *fakeBackend) ListUsers(ctx context.Context) ([]model.User, error) {
	return append([]model.User{}, f.users...), nil
}

func (f *fakeBackend) CreateTicket(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, in)
	t := model.Ticket{
		ID: "new", Title: in.Title, Description: in.Description,
		Status: model.StatusTodo, Priority: in.Priority, Type: in.Type,
		DueDate: in.DueDate, Labels: in.Labels,
	}
	if in.AssigneeID != "" {
		t.Assignee = &model.User{ID: in.AssigneeID}
	}
	return &t, nil
}

func (f *fakeBackend) UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error) {
	f.mu.Lock()
	f.updates++
	fn := f.updateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(id, in)
	}
	return &model.Ticket{ID: id, Title: "server copy", Status: *in.Status, Version: 2}, nil
}

func (f *fakeBackend) DeleteTicket(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeBackend) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

func loaded(t *testing.T, f *fakeBackend) *Board {
	t.Helper()
	b := New(f)
	require.NoError(t, b.Load(context.Background()))
	return b
}

func sample() *fakeBackend {
	return &fakeBackend{
		tickets: []model.Ticket{
			{ID: "t1", Title: "Login", Status: model.StatusTodo, Priority: model.PriorityHigh, Assignee: &model.User{ID: "u1"}, Labels: []string{"auth"}},
			{ID: "t2", Title: "Theme", Status: model.StatusInProgress, Priority: model.PriorityHigh, Assignee: &model.User{ID: "u2"}},
			{ID: "t3", Title: "Docs", Status: model.StatusDone, Priority: model.PriorityLow},
		},
		users: []model.User{{ID: "u1", Name: "One"}, {ID: "u2", Name: "Two"}},
	}
}

func status(t *testing.T, b *Board, id string) model.Status {
	t.Helper()
	tk, ok := b.Ticket(id)
	require.True(t, ok)
	return tk.Status
}

func TestLoad(t *testing.T) {
	b := loaded(t, sample())
	assert.Len(t, b.Tickets(), 3)
	assert.Len(t, b.Users(), 2)
}

func TestLoadError(t *testing.T) {
	f := sample()
	f.listErr = errBackend
	b := New(f)
	assert.ErrorIs(t, b.Load(context.Background()), errBackend)
	assert.Empty(t, b.Tickets())
}

func TestMoveSuccess(t *testing.T) {
	f := sample()
	b := loaded(t, f)

	got, err := b.Move(context.Background(), "t1", model.StatusInReview)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInReview, got.Status)

	tk, _ := b.Ticket("t1")
	assert.Equal(t, model.StatusInReview, tk.Status)
	assert.Equal(t, "server copy", tk.Title, "server copy replaces the local one")
}

func TestMoveSameStatusIsNoop(t *testing.T) {
	f := sample()
	b := loaded(t, f)

	got, err := b.Move(context.Background(), "t1", model.StatusTodo)
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Zero(t, f.updateCount())
}

func TestMoveRevertsOnFailure(t *testing.T) {
	f := sample()
	f.updateFn = func(string, model.UpdateTicketInput) (*model.Ticket, error) { return nil, errBackend }
	b := loaded(t, f)

	_, err := b.Move(context.Background(), "t1", model.StatusDone)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, model.StatusTodo, status(t, b, "t1"))
}

func TestMoveIsOptimistic(t *testing.T) {
	f := sample()
	entered := make(chan struct{})
	release := make(chan struct{})
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		close(entered)
		<-release
		return &model.Ticket{ID: id, Status: *in.Status}, nil
	}
	b := loaded(t, f)

	done := make(chan error, 1)
	go func() {
		_, err := b.Move(context.Background(), "t1", model.StatusInProgress)
		done <- err
	}()

	<-entered
	assert.Equal(t, model.StatusInProgress, status(t, b, "t1"), "status must change before the backend answers")
	close(release)
	require.NoError(t, <-done)
}

func TestStaleRevertIsIgnored(t *testing.T) {
	f := sample()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		if *in.Status == model.StatusInProgress {
			close(firstEntered)
			<-releaseFirst
			return nil, errBackend
		}
		return &model.Ticket{ID: id, Status: *in.Status}, nil
	}
	b := loaded(t, f)

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.Move(context.Background(), "t1", model.StatusInProgress)
		firstDone <- err
	}()
	<-firstEntered

	_, err := b.Move(context.Background(), "t1", model.StatusDone)
	require.NoError(t, err)

	close(releaseFirst)
	assert.ErrorIs(t, <-firstDone, errBackend)
	assert.Equal(t, model.StatusDone, status(t, b, "t1"), "the newer move wins over a stale revert")
}

func TestStaleSuccessDoesNotOverwrite(t *testing.T) {
	f := sample()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		if *in.Status == model.StatusInProgress {
			close(firstEntered)
			<-releaseFirst
		}
		return &model.Ticket{ID: id, Status: *in.Status}, nil
	}
	b := loaded(t, f)

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.Move(context.Background(), "t1", model.StatusInProgress)
		firstDone <- err
	}()
	<-firstEntered

	_, err := b.Move(context.Background(), "t1", model.StatusInReview)
	require.NoError(t, err)
	close(releaseFirst)
	require.NoError(t, <-firstDone)

	assert.Equal(t, model.StatusInReview, status(t, b, "t1"))
}

func TestBothMovesFailRestoresConfirmedStatus(t *testing.T) {
	f := sample()
	entered := map[model.Status]chan struct{}{
		model.StatusInProgress: make(chan struct{}),
		model.StatusDone:       make(chan struct{}),
	}
	release := map[model.Status]chan struct{}{
		model.StatusInProgress: make(chan struct{}),
		model.StatusDone:       make(chan struct{}),
	}
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		close(entered[*in.Status])
		<-release[*in.Status]
		return nil, errBackend
	}
	b := loaded(t, f)

	move := func(to model.Status) chan error {
		done := make(chan error, 1)
		go func() {
			_, err := b.Move(context.Background(), "t1", to)
			done <- err
		}()
		<-entered[to]
		return done
	}
	first := move(model.StatusInProgress)
	second := move(model.StatusDone)
	assert.Equal(t, model.StatusDone, status(t, b, "t1"))

	close(release[model.StatusInProgress])
	assert.ErrorIs(t, <-first, errBackend)
	assert.Equal(t, model.StatusDone, status(t, b, "t1"), "a pending newer move keeps its intent")

	close(release[model.StatusDone])
	assert.ErrorIs(t, <-second, errBackend)
	assert.Equal(t, model.StatusTodo, status(t, b, "t1"), "only a status the backend accepted is restored")
}

func TestOlderSuccessAfterNewerFailureIsApplied(t *testing.T) {
	f := sample()
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		if *in.Status == model.StatusInProgress {
			close(firstEntered)
			<-releaseFirst
			return &model.Ticket{ID: id, Status: *in.Status}, nil
		}
		return nil, errBackend
	}
	b := loaded(t, f)

	firstDone := make(chan error, 1)
	go func() {
		_, err := b.Move(context.Background(), "t1", model.StatusInProgress)
		firstDone <- err
	}()
	<-firstEntered

	_, err := b.Move(context.Background(), "t1", model.StatusDone)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, model.StatusTodo, status(t, b, "t1"))

	close(releaseFirst)
	require.NoError(t, <-firstDone)
	assert.Equal(t, model.StatusInProgress, status(t, b, "t1"))
}

func TestMoveErrors(t *testing.T) {
	b := loaded(t, sample())

	_, err := b.Move(context.Background(), "missing", model.StatusDone)
	assert.ErrorIs(t, err, ErrUnknownTicket)

	_, err = b.Move(context.Background(), "t1", model.Status("Blocked"))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestColumns(t *testing.T) {
	b := loaded(t, sample())

	cols := b.Columns(filter.Criteria{})
	require.Len(t, cols, 4)
	assert.Equal(t, model.StatusTodo, cols[0].Status)
	assert.Equal(t, model.StatusDone, cols[3].Status)
	assert.Len(t, cols[0].Tickets, 1)
	assert.Len(t, cols[1].Tickets, 1)
	assert.Empty(t, cols[2].Tickets)
	assert.Len(t, cols[3].Tickets, 1)

	cols = b.Columns(filter.Criteria{Priority: model.PriorityHigh, AssigneeID: "u1"})
	assert.Len(t, cols[0].Tickets, 1)
	assert.Empty(t, cols[1].Tickets)
	assert.Empty(t, cols[3].Tickets)
}

func TestFiltered(t *testing.T) {
	b := loaded(t, sample())
	got := b.Filtered(filter.Criteria{Query: "auth"})
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
}

func TestDuplicate(t *testing.T) {
	f := sample()
	b := loaded(t, f)

	got, err := b.Duplicate(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "Login (Copy)", got.Title)
	require.Len(t, f.created, 1)
	assert.Equal(t, "u1", f.created[0].AssigneeID)
	assert.Equal(t, []string{"auth"}, f.created[0].Labels)
	assert.Equal(t, model.PriorityHigh, f.created[0].Priority)
	assert.Len(t, b.Tickets(), 4)

	_, err = b.Duplicate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownTicket)
}

func TestDeleteAndCreate(t *testing.T) {
	f := sample()
	b := loaded(t, f)

	require.NoError(t, b.Delete(context.Background(), "t2"))
	assert.Equal(t, []string{"t2"}, f.deleted)
	_, ok := b.Ticket("t2")
	assert.False(t, ok)

	created, err := b.Create(context.Background(), model.CreateTicketInput{Title: "N", Description: "D"})
	require.NoError(t, err)
	_, ok = b.Ticket(created.ID)
	assert.True(t, ok)
}

func TestUpdateReplacesTicket(t *testing.T) {
	f := sample()
	f.updateFn = func(id string, in model.UpdateTicketInput) (*model.Ticket, error) {
		return &model.Ticket{ID: id, Title: *in.Title, Status: model.StatusTodo}, nil
	}
	b := loaded(t, f)

	title := "Renamed"
	_, err := b.Update(context.Background(), "t1", model.UpdateTicketInput{Title: &title})
	require.NoError(t, err)
	tk, _ := b.Ticket("t1")
	assert.Equal(t, "Renamed", tk.Title)
}
