package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError reports malformed or missing caller input. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// InvalidImageError reports an undecodable photo payload.
type InvalidImageError struct {
	Reason string
	Err    error
}

func (e *InvalidImageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid image: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid image: %s", e.Reason)
}

func (e *InvalidImageError) Unwrap() error { return e.Err }

// StorageError reports an object store transport or permission failure.
// Fatal to the submission that triggered it.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q failed: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotFoundError reports a missing record or blob.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// ConflictError reports a uniqueness violation, e.g. a duplicate name.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

// WorkflowError reports an error status returned by the downstream
// workflow processor. Message holds the richest field the response offered.
type WorkflowError struct {
	Status  int
	Message string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("workflow processor returned %d: %s", e.Status, e.Message)
}

// UnavailableError reports that the downstream processor could not be
// reached at all.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("workflow processor unreachable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// ErrUnconfirmed marks a dispatch timeout after the photos were already
// durably stored. Success-adjacent: the caller must not re-upload, only
// requery. Surfaced as 202 with the assembled payload.
var ErrUnconfirmed = errors.New("submission stored but downstream acknowledgement timed out")

// ErrEmptyReport marks an export request when no entries exist.
var ErrEmptyReport = errors.New("no entries to export")

// HTTPStatus maps a pipeline or report error to the status code the
// request boundary should answer with.
func HTTPStatus(err error) int {
	var (
		validation  *ValidationError
		invalidImg  *InvalidImageError
		notFound    *NotFoundError
		conflict    *ConflictError
		unavailable *UnavailableError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &invalidImg):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUnconfirmed):
		return http.StatusAccepted
	case errors.Is(err, ErrEmptyReport):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
