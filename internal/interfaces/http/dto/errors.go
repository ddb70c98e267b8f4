package dto

import (
	"net/http"

	"github.com/FoleyBridge-Solutions/nestogy-billing/internal/domain/shared"
)

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// StatusForError maps a domain error to an HTTP status code by its kind.
// Validation failures are business rule rejections, not malformed requests,
// so they map to 422 rather than 400.
func StatusForError(err error) int {
	de, ok := shared.AsDomainError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch de.Kind {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindIntegrity:
		return http.StatusInternalServerError
	case shared.KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
