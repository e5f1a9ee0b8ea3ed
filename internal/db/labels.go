package db

import (
	"context"
	"fmt"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
)

// insertLabels creates the named labels on a ticket, skipping names it
// already carries.
func (s *Store) insertLabels(ctx context.Context, q queryer, ticketID string, names []string) error {
	for _, name := range names {
		_, err := q.ExecContext(ctx,
			s.q(`INSERT INTO labels (id, name, ticket_id) VALUES (?, ?, ?) ON CONFLICT (name, ticket_id) DO NOTHING`),
			uuid.NewString(), name, ticketID,
		)
		if err != nil {
			return fmt.Errorf("inserting label %q: %w", name, err)
		}
	}
	return nil
}

// replaceLabels makes names the ticket's full label set: labels not in names
// are deleted and new names are created.
func (s *Store) replaceLabels(ctx context.Context, q queryer, ticketID string, names []string) error {
	if len(names) == 0 {
		if _, err := q.ExecContext(ctx, s.q(`DELETE FROM labels WHERE ticket_id = ?`), ticketID); err != nil {
			return fmt.Errorf("clearing labels: %w", err)
		}
		return nil
	}

	args := make([]any, 0, len(names)+1)
	args = append(args, ticketID)
	for _, name := range names {
		args = append(args, name)
	}
	query := fmt.Sprintf(`DELETE FROM labels WHERE ticket_id = ? AND name NOT IN (%s)`, makePlaceholders(len(names)))
	if _, err := q.ExecContext(ctx, s.q(query), args...); err != nil {
		return fmt.Errorf("removing labels: %w", err)
	}

	return s.insertLabels(ctx, q, ticketID, names)
}

// hydrateLabels batch-loads labels for the given tickets in a single query,
// sorted by name.
func (s *Store) hydrateLabels(ctx context.Context, q queryer, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	ids := make([]any, len(tickets))
	ticketMap := make(map[string]*model.Ticket, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
		ticketMap[t.ID] = t
	}

	query := fmt.Sprintf(
		`SELECT ticket_id, name FROM labels
		 WHERE ticket_id IN (%s)
		 ORDER BY name`, makePlaceholders(len(ids)),
	)

	rows, err := q.QueryContext(ctx, s.q(query), ids...)
	if err != nil {
		return fmt.Errorf("querying labels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticketID, name string
		if err := rows.Scan(&ticketID, &name); err != nil {
			return fmt.Errorf("scanning label: %w", err)
		}
		if t, ok := ticketMap[ticketID]; ok {
			t.Labels = append(t.Labels, name)
		}
	}
	return rows.Err()
}
