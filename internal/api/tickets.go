package api

import (
	"net/http"
	"strconv"

	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/go-chi/chi/v5"
)

// GET /api/tickets
func (h *handlers) listTickets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets, err := h.store.ListTickets(r.Context())
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, tickets)
	}
}

// POST /api/tickets
func (h *handlers) createTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.CreateTicketInput
		if err := decode(r, w, &in); err != nil {
			writeError(w, h.log, err)
			return
		}
		t, err := h.store.CreateTicket(r.Context(), in, actor(r))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

// GET /api/tickets/{id}
func (h *handlers) getTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := h.store.GetTicket(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// PUT /api/tickets/{id}
func (h *handlers) updateTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.UpdateTicketInput
		if err := decode(r, w, &in); err != nil {
			writeError(w, h.log, err)
			return
		}
		t, err := h.store.UpdateTicket(r.Context(), chi.URLParam(r, "id"), in, actor(r))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// DELETE /api/tickets/{id}
func (h *handlers) deleteTicket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.store.DeleteTicket(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, successBody{Success: true})
	}
}

// GET /api/tickets/{id}/activity?limit=n
func (h *handlers) listActivity() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := h.store.GetTicket(r.Context(), id); err != nil {
			writeError(w, h.log, err)
			return
		}
		acts, err := h.store.ListActivity(r.Context(), id, queryInt(r, "limit", 0))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, acts)
	}
}

// POST /api/tickets/{id}/attachments
func (h *handlers) addAttachment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.AttachmentInput
		if err := decode(r, w, &in); err != nil {
			writeError(w, h.log, err)
			return
		}
		a, err := h.store.AddAttachment(r.Context(), chi.URLParam(r, "id"), in, actor(r))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// DELETE /api/tickets/{id}/attachments/{attachmentID}
func (h *handlers) removeAttachment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.store.RemoveAttachment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"), actor(r))
		if err != nil {
			writeError(w, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, successBody{Success: true})
	}
}

// queryInt parses an integer query parameter, returning def when it is
// missing or invalid.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
