package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
)

// recordActivity logs a field change on a ticket.
func (s *Store) recordActivity(ctx context.Context, q queryer, ticketID, field, oldVal, newVal, changedBy string) error {
	_, err := q.ExecContext(ctx,
		s.q(`INSERT INTO activity_log (id, ticket_id, field_changed, old_value, new_value, changed_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		uuid.NewString(), ticketID, field, oldVal, newVal, changedBy, model.FormatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("recording activity: %w", err)
	}
	return nil
}

// ListActivity retrieves activity log entries for a ticket, most recent first.
// A limit of zero or less returns every entry.
func (s *Store) ListActivity(ctx context.Context, ticketID string, limit int) ([]model.Activity, error) {
	query := `SELECT id, ticket_id, field_changed, old_value, new_value, changed_by, created_at
	          FROM activity_log
	          WHERE ticket_id = ?
	          ORDER BY created_at DESC, id DESC`
	args := []any{ticketID}

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity: %w", err)
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		var oldVal, newVal, changedBy sql.NullString
		var createdAt string
		if err := rows.Scan(&a.ID, &a.TicketID, &a.FieldChanged, &oldVal, &newVal, &changedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning activity row: %w", err)
		}
		a.OldValue = oldVal.String
		a.NewValue = newVal.String
		a.ChangedBy = changedBy.String

		t, err := model.ParseTimeStrict(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing activity created_at: %w", err)
		}
		a.CreatedAt = t

		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return activities, nil
}
