package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state: a stale
// ticket version or a duplicate unique key.
var ErrConflict = errors.New("conflict")

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

const ticketSelect = `SELECT t.id, t.title, t.description, t.status, t.priority, t.ticket_type,
	t.due_date, t.created_at, t.updated_at, t.version,
	r.id, r.name, r.email, r.avatar,
	a.id, a.name, a.email, a.avatar
FROM tickets t
JOIN users r ON r.id = t.reporter_id
LEFT JOIN users a ON a.id = t.assignee_id`

// scanTicketFrom scans a ticket from any scanner (*sql.Row or *sql.Rows).
// Labels and attachments are left empty for the hydrate helpers.
func scanTicketFrom(s scanner) (*model.Ticket, error) {
	var t model.Ticket
	var status, priority, kind, createdAt, updatedAt string
	var dueDate, reporterAvatar sql.NullString
	var assigneeID, assigneeName, assigneeEmail, assigneeAvatar sql.NullString

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &status, &priority, &kind,
		&dueDate, &createdAt, &updatedAt, &t.Version,
		&t.Reporter.ID, &t.Reporter.Name, &t.Reporter.Email, &reporterAvatar,
		&assigneeID, &assigneeName, &assigneeEmail, &assigneeAvatar,
	)
	if err != nil {
		return nil, err
	}

	if t.Status, err = model.ParseStatus(status); err != nil {
		return nil, err
	}
	if t.Priority, err = model.ParsePriority(priority); err != nil {
		return nil, err
	}
	if t.Type, err = model.ParseType(kind); err != nil {
		return nil, err
	}

	if t.CreatedAt, err = model.ParseTimeStrict(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if t.UpdatedAt, err = model.ParseTimeStrict(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	if dueDate.Valid && dueDate.String != "" {
		d, err := model.ParseTimeStrict(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("parsing due_date: %w", err)
		}
		t.DueDate = &d
	}

	t.Reporter.Avatar = reporterAvatar.String
	if assigneeID.Valid {
		t.Assignee = &model.User{
			ID:     assigneeID.String,
			Name:   assigneeName.String,
			Email:  assigneeEmail.String,
			Avatar: assigneeAvatar.String,
		}
	}
	t.Labels = []string{}
	t.Attachments = []model.Attachment{}

	return &t, nil
}

// CreateTicket inserts a ticket in status To Do. The reporter is the first
// existing user; a system user is created when there are none. The returned
// ticket is fully loaded.
func (s *Store) CreateTicket(ctx context.Context, in model.CreateTicketInput, actor string) (*model.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	reporter, err := s.ensureReporter(ctx, tx)
	if err != nil {
		return nil, err
	}

	var assignee *model.User
	if in.AssigneeID != "" {
		assignee, err = s.lookupAssignee(ctx, tx, in.AssigneeID)
		if err != nil {
			return nil, err
		}
	}

	t := model.NewTicket(uuid.NewString(), in, *reporter, assignee, time.Now().UTC())

	_, err = tx.ExecContext(ctx, s.q(
		`INSERT INTO tickets (id, title, description, status, priority, ticket_type,
		 assignee_id, reporter_id, due_date, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), string(t.Type),
		nullIfEmpty(t.AssigneeID()), t.Reporter.ID, nullTime(t.DueDate),
		model.FormatTime(t.CreatedAt), model.FormatTime(t.UpdatedAt), t.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting ticket: %w", err)
	}

	if err := s.insertLabels(ctx, tx, t.ID, t.Labels); err != nil {
		return nil, err
	}

	if err := s.recordActivity(ctx, tx, t.ID, "created", "", t.Title, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ticket: %w", err)
	}

	return s.GetTicket(ctx, t.ID)
}

// GetTicket returns a ticket with its assignee, reporter, labels and
// attachments loaded. It returns ErrNotFound if the ticket does not exist.
func (s *Store) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	return s.getTicket(ctx, s.db, id)
}

func (s *Store) getTicket(ctx context.Context, q queryer, id string) (*model.Ticket, error) {
	row := q.QueryRowContext(ctx, s.q(ticketSelect+` WHERE t.id = ?`), id)
	t, err := scanTicketFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning ticket: %w", err)
	}

	tickets := []*model.Ticket{t}
	if err := s.hydrateLabels(ctx, q, tickets); err != nil {
		return nil, fmt.Errorf("hydrating labels: %w", err)
	}
	if err := s.hydrateAttachments(ctx, q, tickets); err != nil {
		return nil, fmt.Errorf("hydrating attachments: %w", err)
	}
	return t, nil
}

// ListTickets returns every ticket, newest first. Labels and attachments are
// loaded in bulk.
func (s *Store) ListTickets(ctx context.Context) ([]*model.Ticket, error) {
	rows, err := s.db.QueryContext(ctx, ticketSelect+` ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying tickets: %w", err)
	}
	defer rows.Close()

	tickets := []*model.Ticket{}
	for rows.Next() {
		t, err := scanTicketFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ticket rows: %w", err)
	}
	rows.Close()

	if err := s.hydrateLabels(ctx, s.db, tickets); err != nil {
		return nil, fmt.Errorf("hydrating labels: %w", err)
	}
	if err := s.hydrateAttachments(ctx, s.db, tickets); err != nil {
		return nil, fmt.Errorf("hydrating attachments: %w", err)
	}
	return tickets, nil
}

// UpdateTicket applies the provided fields of in to the ticket. Labels, when
// given, replace the full set. When in.Version is set it must match the stored
// version or ErrConflict is returned. Each changed field is recorded in the
// activity log under actor.
func (s *Store) UpdateTicket(ctx context.Context, id string, in model.UpdateTicketInput, actor string) (*model.Ticket, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	cur, err := s.getTicket(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if in.Version != nil && *in.Version != cur.Version {
		return nil, fmt.Errorf("%w: ticket %s is at version %d, not %d", ErrConflict, id, cur.Version, *in.Version)
	}

	var assignee *model.User
	if in.AssigneeID != nil && *in.AssigneeID != "" {
		assignee, err = s.lookupAssignee(ctx, tx, *in.AssigneeID)
		if err != nil {
			return nil, err
		}
	}

	old := *cur
	changed := model.ApplyUpdate(cur, in, func(string) *model.User { return assignee }, time.Now().UTC())

	query := `UPDATE tickets SET title = ?, description = ?, status = ?, priority = ?, ticket_type = ?,
		assignee_id = ?, due_date = ?, updated_at = ?, version = version + 1
		WHERE id = ?`
	args := []any{
		cur.Title, cur.Description, string(cur.Status), string(cur.Priority), string(cur.Type),
		nullIfEmpty(cur.AssigneeID()), nullTime(cur.DueDate), model.FormatTime(cur.UpdatedAt),
		id,
	}
	if in.Version != nil {
		query += ` AND version = ?`
		args = append(args, *in.Version)
	}

	res, err := tx.ExecContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("updating ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: ticket %s was modified concurrently", ErrConflict, id)
	}

	for _, field := range changed {
		if field == "labels" {
			if err := s.replaceLabels(ctx, tx, id, cur.Labels); err != nil {
				return nil, err
			}
		}
		if err := s.recordActivity(ctx, tx, id, field, fieldValue(&old, field), fieldValue(cur, field), actor); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ticket update: %w", err)
	}

	return s.GetTicket(ctx, id)
}

// DeleteTicket deletes a ticket; its labels, attachments and activity go with
// it. It returns ErrNotFound if the ticket does not exist.
func (s *Store) DeleteTicket(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM tickets WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// touchTicket bumps a ticket's version and updated_at, returning ErrNotFound
// if it does not exist.
func (s *Store) touchTicket(ctx context.Context, q queryer, id string) error {
	res, err := q.ExecContext(ctx,
		s.q(`UPDATE tickets SET updated_at = ?, version = version + 1 WHERE id = ?`),
		model.FormatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("touching ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) lookupAssignee(ctx context.Context, q queryer, id string) (*model.User, error) {
	u, err := s.getUser(ctx, q, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown assignee %q", model.ErrValidation, id)
	}
	return u, err
}

// fieldValue renders a ticket field for the activity log.
func fieldValue(t *model.Ticket, field string) string {
	switch field {
	case "title":
		return t.Title
	case "description":
		return t.Description
	case "status":
		return string(t.Status)
	case "priority":
		return string(t.Priority)
	case "type":
		return string(t.Type)
	case "assignee":
		if t.Assignee == nil {
			return ""
		}
		return t.Assignee.Name
	case "due_date":
		if t.DueDate == nil {
			return ""
		}
		return t.DueDate.Format(time.DateOnly)
	case "labels":
		return strings.Join(t.Labels, ", ")
	default:
		return ""
	}
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return model.FormatTime(*t)
}
