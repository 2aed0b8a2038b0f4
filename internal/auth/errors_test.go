package auth

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrNotFound, http.StatusNotFound},
		{ErrConflict, http.StatusConflict},
		{ErrInvalidState, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{errors.New("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}

	// wrapped errors keep their mapping
	wrapped := fmt.Errorf("%w: booking 42", ErrConflict)
	if got := StatusFor(wrapped); got != http.StatusConflict {
		t.Errorf("StatusFor(wrapped conflict) = %d, want 409", got)
	}
}

func TestInvalidStateError(t *testing.T) {
	err := InvalidStateError("requested", "accepted", "ongoing")
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("InvalidStateError does not wrap ErrInvalidState: %v", err)
	}
	if StatusFor(err) != http.StatusBadRequest {
		t.Errorf("InvalidStateError maps to %d, want 400", StatusFor(err))
	}
}
