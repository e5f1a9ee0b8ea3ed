package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
)

// SeedResult reports what Seed wrote.
type SeedResult struct {
	Users   int `json:"users"`
	Tickets int `json:"tickets"`
}

// Counts is the row count summary used by connectivity checks.
type Counts struct {
	Users   int `json:"users"`
	Tickets int `json:"tickets"`
}

type sampleTicket struct {
	title, description string
	status             model.Status
	priority           model.Priority
	kind               model.TicketType
	assignee, reporter int
	dueIn              time.Duration
	labels             []string
}

var sampleTickets = []sampleTicket{
	{
		title:       "Fix login bug",
		description: "Users are unable to log in with valid credentials",
		status:      model.StatusTodo,
		priority:    model.PriorityHigh,
		kind:        model.TypeBug,
		assignee:    0,
		reporter:    1,
		dueIn:       7 * 24 * time.Hour,
		labels:      []string{"authentication", "critical"},
	},
	{
		title:       "Add dark mode",
		description: "Implement dark mode theme for the application",
		status:      model.StatusInProgress,
		priority:    model.PriorityMedium,
		kind:        model.TypeFeature,
		assignee:    2,
		reporter:    0,
		labels:      []string{"ui", "enhancement"},
	},
}

// Seed upserts the sample users by email and, when the tickets table is
// empty, creates the sample tickets. Running it twice changes nothing.
func (s *Store) Seed(ctx context.Context, actor string) (*SeedResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Truncate(time.Microsecond)
	var result SeedResult

	userIDs := make([]string, 0, len(model.DefaultUsers()))
	for _, u := range model.DefaultUsers() {
		_, err := tx.ExecContext(ctx,
			s.q(`INSERT INTO users (id, name, email, avatar, created_at) VALUES (?, ?, ?, NULL, ?)
			 ON CONFLICT (email) DO UPDATE SET name = excluded.name`),
			uuid.NewString(), u.Name, u.Email, model.FormatTime(now),
		)
		if err != nil {
			return nil, fmt.Errorf("upserting user %s: %w", u.Email, err)
		}

		var id string
		if err := tx.QueryRowContext(ctx, s.q(`SELECT id FROM users WHERE email = ?`), u.Email).Scan(&id); err != nil {
			return nil, fmt.Errorf("reading user %s: %w", u.Email, err)
		}
		userIDs = append(userIDs, id)
		result.Users++
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&existing); err != nil {
		return nil, fmt.Errorf("counting tickets: %w", err)
	}

	if existing == 0 {
		for i, st := range sampleTickets {
			id := uuid.NewString()
			var due *time.Time
			if st.dueIn > 0 {
				d := now.Add(st.dueIn)
				due = &d
			}
			// Offset creation times so the list order is stable.
			created := now.Add(time.Duration(i) * time.Millisecond)

			_, err := tx.ExecContext(ctx, s.q(
				`INSERT INTO tickets (id, title, description, status, priority, ticket_type,
				 assignee_id, reporter_id, due_date, created_at, updated_at, version)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`),
				id, st.title, st.description, string(st.status), string(st.priority), string(st.kind),
				userIDs[st.assignee], userIDs[st.reporter], nullTime(due),
				model.FormatTime(created), model.FormatTime(created),
			)
			if err != nil {
				return nil, fmt.Errorf("inserting sample ticket %q: %w", st.title, err)
			}
			if err := s.insertLabels(ctx, tx, id, st.labels); err != nil {
				return nil, err
			}
			if err := s.recordActivity(ctx, tx, id, "created", "", st.title, actor); err != nil {
				return nil, err
			}
			result.Tickets++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing seed: %w", err)
	}
	return &result, nil
}

// Counts returns the number of users and tickets.
func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	var c Counts
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&c.Users); err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets`).Scan(&c.Tickets); err != nil {
		return nil, fmt.Errorf("counting tickets: %w", err)
	}
	return &c, nil
}
