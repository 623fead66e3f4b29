package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"chitieu/internal/core"
	"chitieu/internal/log"
	"chitieu/internal/store"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// writeServiceError maps service errors onto the API error shape.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := log.FromContext(r.Context())

	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.InfoContext(r.Context(), "Request rejected",
			log.NewFields().WithOperation(op).WithError(err, log.ErrorTypeValidation).ToSlice()...)
		ValidationErrorResponse(ve.Field, ve.Err.Error()).Write(w)
	case errors.Is(err, store.ErrNotFound):
		NotFoundError("Expense not found").Write(w)
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful can be written
		logger.DebugContext(r.Context(), "Request canceled", log.FieldOperation, op)
	default:
		logger.ErrorContext(r.Context(), "Request failed",
			log.NewFields().WithOperation(op).WithError(err, log.ErrorTypeInternal).ToSlice()...)
		InternalServerError().Write(w)
	}
}
