package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestErrMissingFields(t *testing.T) {
	err := &ErrMissingFields{Fields: []string{"event"}}
	assert.Equal(t, "Missing required fields", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestErrMalformedBody(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &ErrMalformedBody{Err: cause}
	assert.Equal(t, "unexpected end of JSON input", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(err))
}

func TestErrSessionNotFound(t *testing.T) {
	id := uuid.New()
	err := &ErrSessionNotFound{SessionID: id}
	assert.Equal(t, "session not found: "+id.String(), err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "limit", Message: "must be a positive integer"}
	assert.Equal(t, "validation error: limit - must be a positive integer", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "ErrMissingFields", err: &ErrMissingFields{}, expected: http.StatusBadRequest},
		{name: "ErrBodyTooLarge", err: &ErrBodyTooLarge{Limit: 10}, expected: http.StatusRequestEntityTooLarge},
		{name: "ErrSessionNotFound", err: &ErrSessionNotFound{}, expected: http.StatusNotFound},
		{name: "wrapped ErrValidation", err: fmt.Errorf("parse: %w", &ErrValidation{Field: "id"}), expected: http.StatusBadRequest},
		{name: "ErrStreamingUnsupported", err: &ErrStreamingUnsupported{}, expected: http.StatusInternalServerError},
		{name: "Unknown error", err: assert.AnError, expected: http.StatusInternalServerError},
		{name: "Nil error", err: nil, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
