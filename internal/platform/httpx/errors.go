// Package httpx provides HTTP response helpers shaped like Django REST
// Framework responses.
package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/sealion/internal/platform/validate"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// RespondError maps domain errors to DRF shaped error bodies.
func RespondError(w http.ResponseWriter, err error) {
	var fields validate.FieldErrors
	switch {
	case errors.As(err, &fields):
		JSON(w, http.StatusBadRequest, fields)
	case errors.Is(err, ErrNotFound):
		Detail(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, ErrValidation):
		NonField(w, err.Error())
	case errors.Is(err, ErrUnauthorized):
		Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
	case errors.Is(err, ErrForbidden):
		Detail(w, http.StatusForbidden, "You do not have permission to perform this action.")
	default:
		Detail(w, http.StatusInternalServerError, "A server error occurred.")
	}
}
