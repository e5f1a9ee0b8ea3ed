package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/google/uuid"
)

// AddAttachment records attachment metadata on a ticket. The file contents
// are never stored.
func (s *Store) AddAttachment(ctx context.Context, ticketID string, in model.AttachmentInput, actor string) (*model.Attachment, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.touchTicket(ctx, tx, ticketID); err != nil {
		return nil, err
	}

	a := model.Attachment{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Size:       in.Size,
		Type:       in.Type,
		URL:        in.URL,
		UploadedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	_, err = tx.ExecContext(ctx,
		s.q(`INSERT INTO attachments (id, ticket_id, name, size, mime_type, url, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID, ticketID, a.Name, a.Size, nullIfEmpty(a.Type), a.URL, model.FormatTime(a.UploadedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting attachment: %w", err)
	}

	if err := s.recordActivity(ctx, tx, ticketID, "attachment", "", a.Name, actor); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing attachment: %w", err)
	}
	return &a, nil
}

// RemoveAttachment deletes an attachment from a ticket. It returns
// ErrNotFound when the ticket has no such attachment.
func (s *Store) RemoveAttachment(ctx context.Context, ticketID, attachmentID, actor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRowContext(ctx,
		s.q(`SELECT name FROM attachments WHERE id = ? AND ticket_id = ?`),
		attachmentID, ticketID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("querying attachment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM attachments WHERE id = ?`), attachmentID); err != nil {
		return fmt.Errorf("deleting attachment: %w", err)
	}
	if err := s.touchTicket(ctx, tx, ticketID); err != nil {
		return err
	}
	if err := s.recordActivity(ctx, tx, ticketID, "attachment", name, "", actor); err != nil {
		return err
	}

	return tx.Commit()
}

// hydrateAttachments batch-loads attachments for the given tickets in upload
// order.
func (s *Store) hydrateAttachments(ctx context.Context, q queryer, tickets []*model.Ticket) error {
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
		`SELECT id, ticket_id, name, size, mime_type, url, uploaded_at FROM attachments
		 WHERE ticket_id IN (%s)
		 ORDER BY uploaded_at, id`, makePlaceholders(len(ids)),
	)

	rows, err := q.QueryContext(ctx, s.q(query), ids...)
	if err != nil {
		return fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Attachment
		var ticketID, uploadedAt string
		var mimeType sql.NullString
		if err := rows.Scan(&a.ID, &ticketID, &a.Name, &a.Size, &mimeType, &a.URL, &uploadedAt); err != nil {
			return fmt.Errorf("scanning attachment: %w", err)
		}
		a.Type = mimeType.String
		a.UploadedAt = model.ParseTime(uploadedAt)
		if t, ok := ticketMap[ticketID]; ok {
			t.Attachments = append(t.Attachments, a)
		}
	}
	return rows.Err()
}
