package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/rs/zerolog"
)

const (
	actorHeader  = "X-Ticketboard-Actor"
	defaultActor = "api"

	maxBodyBytes = 1 << 20
)

// Error codes for failures that do not come from the database driver.
const (
	codeValidation  = "VALIDATION"
	codeNotFound    = "NOT_FOUND"
	codeConflict    = "CONFLICT"
	codeUnavailable = "DATABASE_UNAVAILABLE"
	codeInternal    = "INTERNAL"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type successBody struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto an HTTP status. Database failures pass the raw
// driver error code through.
func writeError(w http.ResponseWriter, log zerolog.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeValidation})
	case errors.Is(err, db.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error(), Code: codeNotFound})
	case errors.Is(err, db.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Code: codeConflict})
	default:
		log.Error().Err(err).Msg("request failed")
		code := db.ErrorCode(err)
		if code == "" {
			code = codeInternal
		}
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error(), Code: code})
	}
}

// decode reads a JSON body into v.
func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", model.ErrValidation, err)
	}
	return nil
}

func actor(r *http.Request) string {
	if a := strings.TrimSpace(r.Header.Get(actorHeader)); a != "" {
		return a
	}
	return defaultActor
}
