package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
)

const currentSchemaVersion = 1

// schemaStatements creates the current schema, one statement per entry so the
// same list runs on SQLite and PostgreSQL.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT
)`,
	`CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	avatar     TEXT,
	created_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS tickets (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	priority    TEXT NOT NULL,
	ticket_type TEXT NOT NULL,
	assignee_id TEXT REFERENCES users(id) ON DELETE SET NULL,
	reporter_id TEXT NOT NULL REFERENCES users(id),
	due_date    TEXT,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	version     INTEGER NOT NULL DEFAULT 1
)`,
	`CREATE TABLE IF NOT EXISTS labels (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	ticket_id TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	UNIQUE (name, ticket_id)
)`,
	`CREATE TABLE IF NOT EXISTS attachments (
	id          TEXT PRIMARY KEY,
	ticket_id   TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	name        TEXT NOT NULL,
	size        BIGINT NOT NULL DEFAULT 0,
	mime_type   TEXT,
	url         TEXT NOT NULL,
	uploaded_at TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS activity_log (
	id            TEXT PRIMARY KEY,
	ticket_id     TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	field_changed TEXT NOT NULL,
	old_value     TEXT,
	new_value     TEXT,
	changed_by    TEXT,
	created_at    TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_assignee ON tickets(assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_created_at ON tickets(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_labels_ticket_id ON labels(ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_attachments_ticket_id ON attachments(ticket_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_ticket_id ON activity_log(ticket_id)`,
}

// Initialize creates all tables if they don't exist and sets the schema version.
func (s *Store) Initialize(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	// Set schema version only if not already set.
	_, err = tx.ExecContext(ctx,
		s.q(`INSERT INTO meta (key, value) VALUES ('schema_version', ?) ON CONFLICT (key) DO NOTHING`),
		strconv.Itoa(currentSchemaVersion),
	)
	if err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the current schema version from the meta table.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}

	v, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parsing schema version %q: %w", val, err)
	}

	return v, nil
}

// migrations is a list of migration functions keyed by the version they migrate TO.
// For example, migrations[2] would migrate from version 1 to version 2. The
// schema has had a single version so far.
var migrations = map[int]func(ctx context.Context, tx *sql.Tx) error{}

// Migrate checks the current schema version and applies any pending migrations
// sequentially. It is a no-op when already at the latest version.
func (s *Store) Migrate(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	for v := version + 1; v <= currentSchemaVersion; v++ {
		migrateFn, ok := migrations[v]
		if !ok {
			return fmt.Errorf("missing migration for version %d", v)
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d transaction: %w", v, err)
		}

		if err := migrateFn(ctx, tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", v, err)
		}

		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE meta SET value = ? WHERE key = 'schema_version'`),
			strconv.Itoa(v),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("updating schema version to %d: %w", v, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", v, err)
		}
	}

	return nil
}
