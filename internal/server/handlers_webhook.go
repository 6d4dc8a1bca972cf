package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jonathan/scout-webhook/internal/webhook"
	"go.uber.org/zap"
)

// webhookEnvelope is the part of the body required before dispatch.
type webhookEnvelope struct {
	Event     string `validate:"required"`
	SessionID string `validate:"required"`
}

// WebhookResponse is returned for every event that passed validation.
type WebhookResponse struct {
	Success bool   `json:"success"`
	Event   string `json:"event"`
}

// handleWebhook applies one pipeline event. Persistence problems are
// absorbed by the processor; only malformed requests change the status.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("webhook handler panic", zap.Any("panic", rec))
			s.errorResponse(w, http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()

	payload, err := s.decodePayload(w, r)
	if err != nil {
		s.logger.Warn("rejected webhook request", zap.Error(err))
		s.writeError(w, err)
		return
	}

	result := s.processor.Process(r.Context(), payload)
	s.metrics.ObserveEvent(result)

	s.jsonResponse(w, http.StatusOK, WebhookResponse{Success: true, Event: payload.Event})
}

// decodePayload reads and validates the request body.
func (s *Server) decodePayload(w http.ResponseWriter, r *http.Request) (*webhook.Payload, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &ErrBodyTooLarge{Limit: tooLarge.Limit}
		}
		return nil, &ErrMalformedBody{Err: err}
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ErrMalformedBody{Err: err}
	}
	if raw == nil {
		return nil, &ErrMalformedBody{Err: errors.New("request body must be a JSON object")}
	}

	payload := webhook.NewPayload(raw)
	env := webhookEnvelope{Event: payload.Event, SessionID: payload.SessionID}
	if err := s.validate.Struct(env); err != nil {
		missing := &ErrMissingFields{}
		if env.Event == "" {
			missing.Fields = append(missing.Fields, "event")
		}
		if env.SessionID == "" {
			missing.Fields = append(missing.Fields, "session_id")
		}
		return nil, missing
	}
	return payload, nil
}
