package service

import (
	"context"

	"github.com/ALT-F4-LLC/ticketboard/internal/filter"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

// SearchTickets returns tickets whose title, description or labels contain
// query, ignoring case.
func (s *Service) SearchTickets(ctx context.Context, query string) ([]model.Ticket, error) {
	return s.filtered(ctx, filter.Criteria{Query: query})
}

// TicketsByStatus returns the tickets in the given column.
func (s *Service) TicketsByStatus(ctx context.Context, status model.Status) ([]model.Ticket, error) {
	return s.filtered(ctx, filter.Criteria{Status: status})
}

// TicketsByAssignee returns the tickets assigned to userID.
func (s *Service) TicketsByAssignee(ctx context.Context, userID string) ([]model.Ticket, error) {
	return s.filtered(ctx, filter.Criteria{AssigneeID: userID})
}

func (s *Service) filtered(ctx context.Context, c filter.Criteria) ([]model.Ticket, error) {
	tickets, err := s.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	return c.Apply(tickets), nil
}
