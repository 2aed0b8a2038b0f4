package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cabride-backend/pkg/utils"
)

// Error taxonomy surfaced to callers. Every handler maps one of these to the
// corresponding HTTP status; nothing is silently swallowed.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation error")
)

// InvalidStateError builds an ErrInvalidState listing the expected statuses.
func InvalidStateError(got string, want ...string) error {
	return fmt.Errorf("%w: booking is %q, expected %s", ErrInvalidState, got, strings.Join(want, " or "))
}

// StatusFor maps a taxonomy error to its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError sends a taxonomy error as a JSON error response.
func WriteError(w http.ResponseWriter, err error) {
	utils.RespondError(w, StatusFor(err), err.Error())
}
