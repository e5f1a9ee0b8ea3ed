package api

import (
	"net/http"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
)

// GET /api/users
func (h *handlers) listUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.store.ListUsers(r.Context())
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// POST /api/users
func (h *handlers) createUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.CreateUserInput
		if err := decode(r, w, &in); err != nil {
			writeError(w, h.log, err)
			return
		}
		u, err := h.store.CreateUser(r.Context(), in)
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}
