package api

import (
	"net/http"

	"github.com/ALT-F4-LLC/ticketboard/internal/db"
)

// Health reports liveness and whether a database is configured. It never
// touches the database.
func Health(store *db.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		database := "unconfigured"
		if store != nil {
			database = string(store.Dialect())
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": database})
	}
}

type setupResponse struct {
	Success       bool           `json:"success"`
	SchemaVersion int            `json:"schemaVersion"`
	Seeded        *db.SeedResult `json:"seeded"`
}

// POST /api/setup-db
func (h *handlers) setupDB() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := h.store.Initialize(ctx); err != nil {
			writeError(w, h.log, err)
			return
		}
		if err := h.store.Migrate(ctx); err != nil {
			writeError(w, h.log, err)
			return
		}
		seeded, err := h.store.Seed(ctx, actor(r))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		version, err := h.store.SchemaVersion(ctx)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		h.log.Info().Int("users", seeded.Users).Int("tickets", seeded.Tickets).Msg("database set up")
		writeJSON(w, http.StatusOK, setupResponse{Success: true, SchemaVersion: version, Seeded: seeded})
	}
}

type testDBResponse struct {
	Success bool      `json:"success"`
	Dialect string    `json:"dialect"`
	Counts  db.Counts `json:"counts"`
}

// GET /api/test-db
func (h *handlers) testDB() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.Ping(r.Context()); err != nil {
			writeError(w, h.log, err)
			return
		}
		counts, err := h.store.Counts(r.Context())
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, testDBResponse{Success: true, Dialect: string(h.store.Dialect()), Counts: *counts})
	}
}
