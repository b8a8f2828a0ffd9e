package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ValidationError{Msg: "name is required"}, http.StatusBadRequest},
		{"invalid image", &InvalidImageError{Reason: "bad base64"}, http.StatusBadRequest},
		{"storage", &StorageError{Op: "upload", Key: "a.jpg", Err: errors.New("boom")}, http.StatusInternalServerError},
		{"not found", &NotFoundError{Kind: "entry", ID: "42"}, http.StatusNotFound},
		{"conflict", &ConflictError{Msg: "name already exists"}, http.StatusConflict},
		{"workflow", &WorkflowError{Status: 502, Message: "rejected"}, http.StatusInternalServerError},
		{"unavailable", &UnavailableError{Err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"unconfirmed", ErrUnconfirmed, http.StatusAccepted},
		{"empty report", ErrEmptyReport, http.StatusNotFound},
		{"unknown", errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("%s: HTTPStatus = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestWrappedErrorsStillMap(t *testing.T) {
	err := fmt.Errorf("processing photo 2: %w", &InvalidImageError{Reason: "truncated"})
	if got := HTTPStatus(err); got != http.StatusBadRequest {
		t.Errorf("wrapped InvalidImageError mapped to %d", got)
	}
	if got := HTTPStatus(fmt.Errorf("dispatch: %w", ErrUnconfirmed)); got != http.StatusAccepted {
		t.Errorf("wrapped ErrUnconfirmed mapped to %d", got)
	}
}
