package output

import (
	"errors"

	"github.com/ALT-F4-LLC/ticketboard/internal/board"
	"github.com/ALT-F4-LLC/ticketboard/internal/db"
	"github.com/ALT-F4-LLC/ticketboard/internal/model"
	"github.com/ALT-F4-LLC/ticketboard/internal/service"
)

// Classify maps a domain error to its ErrorCode.
func Classify(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrGeneral
	case errors.Is(err, model.ErrValidation):
		return ErrValidation
	case errors.Is(err, service.ErrNotFound), errors.Is(err, db.ErrNotFound), errors.Is(err, board.ErrUnknownTicket):
		return ErrNotFound
	case errors.Is(err, service.ErrConflict), errors.Is(err, db.ErrConflict):
		return ErrConflict
	default:
		return ErrGeneral
	}
}
