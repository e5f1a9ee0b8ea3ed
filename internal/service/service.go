// Package service is the ticket data-access layer. Every operation tries the
// remote API first and falls back to the local cache when the remote is
// unavailable. Client errors from the server are returned as they are.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the fallback store has no such record.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a fallback write collides with cached
	// state: a stale version or a duplicate email.
	ErrConflict = errors.New("conflict")
)

var fallbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ticketboard_fallback_total",
	Help: "Operations served from the local cache after a remote failure.",
}, []string{"operation"})

// Remote is the ticketboard API as seen by the service.
type Remote interface {
	ListTickets(ctx context.Context) ([]model.Ticket, error)
	GetTicket(ctx context.Context, id string) (*model.Ticket, error)
	CreateTicket(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error)
	UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error)
	DeleteTicket(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error)
	AddAttachment(ctx context.Context, ticketID string, in model.AttachmentInput) (*model.Attachment, error)
	RemoveAttachment(ctx context.Context, ticketID, attachmentID string) error
	ListActivity(ctx context.Context, ticketID string, limit int) ([]model.Activity, error)
}

// statusError is satisfied by remote errors that carry an HTTP status.
type statusError interface {
	error
	Status() int
}

// Cache is the local snapshot store.
type Cache interface {
	LoadTickets() ([]model.Ticket, error)
	LoadUsers() ([]model.User, error)
	ReplaceTickets(tickets []model.Ticket) error
	ReplaceUsers(users []model.User) error
}

// Service unifies the remote API and the local cache.
type Service struct {
	remote Remote
	cache  Cache
	log    zerolog.Logger

	// mu serializes read-modify-write cycles on the cache.
	mu      sync.Mutex
	offline atomic.Bool

	newID func() string
	now   func() time.Time
}

// New returns a service. A nil remote runs every operation against the
// cache.
func New(remote Remote, cache Cache, log zerolog.Logger) *Service {
	return &Service{
		remote: remote,
		cache:  cache,
		log:    log,
		newID:  uuid.NewString,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Offline reports whether the most recent operation was served from the
// local cache.
func (s *Service) Offline() bool {
	return s.offline.Load()
}

// shouldFallBack records a remote failure and reports whether the local
// path should run. Cancellation of the caller's own context and definite
// rejections from the server are returned to the caller instead; see
// rejection.
func (s *Service) shouldFallBack(ctx context.Context, op string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if rejection(err) != nil {
		s.online()
		return false
	}
	s.log.Warn().Err(err).Str("operation", op).Msg("remote call failed, using local cache")
	fallbackTotal.WithLabelValues(op).Inc()
	s.offline.Store(true)
	return true
}

// rejection returns err wrapped in the matching sentinel when the server
// answered with a client error. Such an answer is authoritative, so
// replaying the operation against the cache would hide it. Timeouts and
// rate limiting are treated as the remote being unavailable. It returns nil
// for errors that should fall back.
func rejection(err error) error {
	var se statusError
	if !errors.As(err, &se) {
		return nil
	}
	code := se.Status()
	if code < 400 || code > 499 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return nil
	}
	switch code {
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", model.ErrValidation, err)
	}
	return err
}

// remoteErr is the error returned when the local path is skipped.
func remoteErr(err error) error {
	if r := rejection(err); r != nil {
		return r
	}
	return err
}

func (s *Service) online() {
	s.offline.Store(false)
}

func (s *Service) local() {
	s.offline.Store(true)
}

// ListTickets returns all tickets. A successful remote read replaces the
// cached snapshot.
func (s *Service) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	if s.remote != nil {
		tickets, err := s.remote.ListTickets(ctx)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.saveTickets(tickets)
			s.mu.Unlock()
			return tickets, nil
		}
		if !s.shouldFallBack(ctx, "list_tickets", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.LoadTickets()
}

// GetTicket returns one ticket.
func (s *Service) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	if s.remote != nil {
		t, err := s.remote.GetTicket(ctx, id)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.upsertCached(*t)
			s.mu.Unlock()
			return t, nil
		}
		if !s.shouldFallBack(ctx, "get_ticket", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return nil, err
	}
	i := indexOf(tickets, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &tickets[i], nil
}

// CreateTicket validates in locally and creates the ticket. Invalid input is
// rejected before any remote call.
func (s *Service) CreateTicket(ctx context.Context, in model.CreateTicketInput) (*model.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	if s.remote != nil {
		t, err := s.remote.CreateTicket(ctx, in)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.upsertCached(*t)
			s.mu.Unlock()
			return t, nil
		}
		if !s.shouldFallBack(ctx, "create_ticket", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.cache.LoadUsers()
	if err != nil {
		return nil, err
	}
	var reporter model.User
	if len(users) > 0 {
		reporter = users[0]
	} else {
		reporter = model.User{ID: s.newID(), Name: model.SystemUserName, Email: model.SystemUserEmail}
		if err := s.cache.ReplaceUsers([]model.User{reporter}); err != nil {
			return nil, err
		}
	}

	var assignee *model.User
	if in.AssigneeID != "" {
		assignee = model.FindUser(users, in.AssigneeID)
	}

	t := model.NewTicket(s.newID(), in, reporter, assignee, s.now())

	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return nil, err
	}
	if err := s.cache.ReplaceTickets(append(tickets, t)); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTicket applies a partial update.
func (s *Service) UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput) (*model.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	if s.remote != nil {
		t, err := s.remote.UpdateTicket(ctx, id, in)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.upsertCached(*t)
			s.mu.Unlock()
			return t, nil
		}
		if !s.shouldFallBack(ctx, "update_ticket", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return nil, err
	}
	i := indexOf(tickets, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if in.Version != nil && *in.Version != tickets[i].Version {
		return nil, ErrConflict
	}

	users, err := s.cache.LoadUsers()
	if err != nil {
		return nil, err
	}
	lookup := func(uid string) *model.User { return model.FindUser(users, uid) }
	model.ApplyUpdate(&tickets[i], in, lookup, s.now())

	if err := s.cache.ReplaceTickets(tickets); err != nil {
		return nil, err
	}
	t := tickets[i]
	return &t, nil
}

// DeleteTicket removes a ticket.
func (s *Service) DeleteTicket(ctx context.Context, id string) error {
	if s.remote != nil {
		err := s.remote.DeleteTicket(ctx, id)
		if err == nil {
			s.online()
			s.mu.Lock()
			defer s.mu.Unlock()
			if tickets, err := s.cache.LoadTickets(); err == nil {
				if i := indexOf(tickets, id); i >= 0 {
					s.saveTickets(append(tickets[:i], tickets[i+1:]...))
				}
			}
			return nil
		}
		if !s.shouldFallBack(ctx, "delete_ticket", err) {
			return remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return err
	}
	i := indexOf(tickets, id)
	if i < 0 {
		return ErrNotFound
	}
	return s.cache.ReplaceTickets(append(tickets[:i], tickets[i+1:]...))
}

// ListUsers returns all users. A successful remote read replaces the cached
// snapshot.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	if s.remote != nil {
		users, err := s.remote.ListUsers(ctx)
		if err == nil {
			s.online()
			s.mu.Lock()
			if err := s.cache.ReplaceUsers(users); err != nil {
				s.log.Warn().Err(err).Msg("caching users")
			}
			s.mu.Unlock()
			return users, nil
		}
		if !s.shouldFallBack(ctx, "list_users", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.LoadUsers()
}

// CreateUser adds a user.
func (s *Service) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	var created *model.User
	if s.remote != nil {
		u, err := s.remote.CreateUser(ctx, in)
		if err == nil {
			s.online()
			created = u
		} else if !s.shouldFallBack(ctx, "create_user", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.cache.LoadUsers()
	if err != nil {
		if created != nil {
			s.log.Warn().Err(err).Msg("loading cached users")
			return created, nil
		}
		return nil, err
	}

	if created != nil {
		if err := s.cache.ReplaceUsers(append(users, *created)); err != nil {
			s.log.Warn().Err(err).Msg("caching users")
		}
		return created, nil
	}

	for _, u := range users {
		if strings.EqualFold(u.Email, in.Email) {
			return nil, ErrConflict
		}
	}
	u := model.User{ID: s.newID(), Name: in.Name, Email: in.Email, Avatar: in.Avatar}
	if err := s.cache.ReplaceUsers(append(users, u)); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddAttachment records attachment metadata on a ticket. Attachments made
// while offline keep whatever URL the caller supplied; it is not uploaded
// anywhere later.
func (s *Service) AddAttachment(ctx context.Context, ticketID string, in model.AttachmentInput) (*model.Attachment, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	if s.remote != nil {
		a, err := s.remote.AddAttachment(ctx, ticketID, in)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.editCached(ticketID, func(t *model.Ticket) {
				t.Attachments = append(t.Attachments, *a)
			})
			s.mu.Unlock()
			return a, nil
		}
		if !s.shouldFallBack(ctx, "add_attachment", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return nil, err
	}
	i := indexOf(tickets, ticketID)
	if i < 0 {
		return nil, ErrNotFound
	}
	now := s.now()
	a := model.Attachment{
		ID:         s.newID(),
		Name:       in.Name,
		Size:       in.Size,
		Type:       in.Type,
		URL:        in.URL,
		UploadedAt: now,
	}
	tickets[i].Attachments = append(tickets[i].Attachments, a)
	tickets[i].UpdatedAt = now
	tickets[i].Version++
	if err := s.cache.ReplaceTickets(tickets); err != nil {
		return nil, err
	}
	return &a, nil
}

// RemoveAttachment deletes attachment metadata from a ticket.
func (s *Service) RemoveAttachment(ctx context.Context, ticketID, attachmentID string) error {
	if s.remote != nil {
		err := s.remote.RemoveAttachment(ctx, ticketID, attachmentID)
		if err == nil {
			s.online()
			s.mu.Lock()
			s.editCached(ticketID, func(t *model.Ticket) {
				t.Attachments = withoutAttachment(t.Attachments, attachmentID)
			})
			s.mu.Unlock()
			return nil
		}
		if !s.shouldFallBack(ctx, "remove_attachment", err) {
			return remoteErr(err)
		}
	} else {
		s.local()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tickets, err := s.cache.LoadTickets()
	if err != nil {
		return err
	}
	i := indexOf(tickets, ticketID)
	if i < 0 {
		return ErrNotFound
	}
	remaining := withoutAttachment(tickets[i].Attachments, attachmentID)
	if len(remaining) == len(tickets[i].Attachments) {
		return ErrNotFound
	}
	tickets[i].Attachments = remaining
	tickets[i].UpdatedAt = s.now()
	tickets[i].Version++
	return s.cache.ReplaceTickets(tickets)
}

// ListActivity returns a ticket's change log. The local cache keeps no
// history, so the fallback is an empty list.
func (s *Service) ListActivity(ctx context.Context, ticketID string, limit int) ([]model.Activity, error) {
	if s.remote != nil {
		acts, err := s.remote.ListActivity(ctx, ticketID, limit)
		if err == nil {
			s.online()
			return acts, nil
		}
		if !s.shouldFallBack(ctx, "list_activity", err) {
			return nil, remoteErr(err)
		}
	} else {
		s.local()
	}
	return []model.Activity{}, nil
}

// saveTickets replaces the ticket snapshot. A failed cache write is logged;
// the remote result is still authoritative. Callers hold s.mu.
func (s *Service) saveTickets(tickets []model.Ticket) {
	if err := s.cache.ReplaceTickets(tickets); err != nil {
		s.log.Warn().Err(err).Msg("caching tickets")
	}
}

// upsertCached replaces the cached copy of t, or appends it. Callers hold s.mu.
func (s *Service) upsertCached(t model.Ticket) {
	tickets, err := s.cache.LoadTickets()
	if err != nil {
		s.log.Warn().Err(err).Msg("loading cached tickets")
		return
	}
	if i := indexOf(tickets, t.ID); i >= 0 {
		tickets[i] = t
	} else {
		tickets = append(tickets, t)
	}
	s.saveTickets(tickets)
}

// editCached applies fn to the cached ticket with the given ID, if present.
// Callers hold s.mu.
func (s *Service) editCached(id string, fn func(t *model.Ticket)) {
	tickets, err := s.cache.LoadTickets()
	if err != nil {
		s.log.Warn().Err(err).Msg("loading cached tickets")
		return
	}
	i := indexOf(tickets, id)
	if i < 0 {
		return
	}
	fn(&tickets[i])
	s.saveTickets(tickets)
}

func indexOf(tickets []model.Ticket, id string) int {
	for i := range tickets {
		if tickets[i].ID == id {
			return i
		}
	}
	return -1
}

func withoutAttachment(atts []model.Attachment, id string) []model.Attachment {
	out := make([]model.Attachment, 0, len(atts))
	for _, a := range atts {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}
