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

const userColumns = `id, name, email, avatar`

func scanUserFrom(s scanner) (*model.User, error) {
	var u model.User
	var avatar sql.NullString
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &avatar); err != nil {
		return nil, err
	}
	u.Avatar = avatar.String
	return &u, nil
}

// ListUsers returns every user ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUserFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

// GetUser returns the user with the given ID or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, s.db, id)
}

func (s *Store) getUser(ctx context.Context, q queryer, id string) (*model.User, error) {
	row := q.QueryRowContext(ctx, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUserFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user. A duplicate email returns ErrConflict.
func (s *Store) CreateUser(ctx context.Context, in model.CreateUserInput) (*model.User, error) {
	if err := model.Validate(in); err != nil {
		return nil, err
	}
	u := model.User{ID: uuid.NewString(), Name: in.Name, Email: in.Email, Avatar: in.Avatar}
	if err := s.insertUser(ctx, s.db, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) insertUser(ctx context.Context, q queryer, u model.User) error {
	_, err := q.ExecContext(ctx,
		s.q(`INSERT INTO users (id, name, email, avatar, created_at) VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Name, u.Email, nullIfEmpty(u.Avatar), model.FormatTime(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user with email %q already exists", ErrConflict, u.Email)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// ensureReporter returns the first user by creation order, creating the
// system user when the table is empty.
func (s *Store) ensureReporter(ctx context.Context, q queryer) (*model.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT 1`)
	u, err := scanUserFrom(row)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("querying first user: %w", err)
	}

	sys := model.User{ID: uuid.NewString(), Name: model.SystemUserName, Email: model.SystemUserEmail}
	if err := s.insertUser(ctx, q, sys); err != nil {
		return nil, fmt.Errorf("creating system user: %w", err)
	}
	return &sys, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
