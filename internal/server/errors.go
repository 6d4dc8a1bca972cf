// Package server provides the HTTP API for study webhooks and session reads.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ErrMissingFields indicates the webhook envelope lacks event or session_id
type ErrMissingFields struct {
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return "Missing required fields"
}

// ErrMalformedBody indicates the request body is not a JSON object
type ErrMalformedBody struct {
	Err error
}

func (e *ErrMalformedBody) Error() string {
	return e.Err.Error()
}

func (e *ErrMalformedBody) Unwrap() error {
	return e.Err
}

// ErrBodyTooLarge indicates the request body exceeded the configured limit
type ErrBodyTooLarge struct {
	Limit int64
}

func (e *ErrBodyTooLarge) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.Limit)
}

// ErrSessionNotFound indicates the session does not exist
type ErrSessionNotFound struct {
	SessionID uuid.UUID
}

func (e *ErrSessionNotFound) Error() string {
	return fmt.Sprintf("session not found: %s", e.SessionID)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStreamingUnsupported indicates the connection cannot flush partial responses
type ErrStreamingUnsupported struct{}

func (e *ErrStreamingUnsupported) Error() string {
	return "streaming not supported"
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		missing  *ErrMissingFields
		tooLarge *ErrBodyTooLarge
		notFound *ErrSessionNotFound
		invalid  *ErrValidation
	)
	switch {
	case errors.As(err, &missing), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &notFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
