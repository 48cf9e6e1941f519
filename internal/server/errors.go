package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/graduation-audit/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUploadTooLarge indicates the transcript exceeded the upload limit.
type ErrUploadTooLarge struct {
	Limit int64
}

func (e *ErrUploadTooLarge) Error() string {
	return fmt.Sprintf("upload exceeds %d bytes", e.Limit)
}

// HTTPStatus returns the appropriate HTTP status code for an error.
// Unreadable transcripts are the client's fault; a broken curriculum service is not.
func HTTPStatus(err error) int {
	var (
		validation *ErrValidation
		tooLarge   *ErrUploadTooLarge
		structural *types.StructuralError
		format     *types.FormatError
		notFound   *types.NotFoundError
		state      *types.ServiceStateError
		network    *types.NetworkError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &structural), errors.As(err, &format):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &state), errors.As(err, &network):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
