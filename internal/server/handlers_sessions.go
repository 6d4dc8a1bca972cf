package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/scout-webhook/internal/db"
	"github.com/jonathan/scout-webhook/internal/realtime"
	"go.uber.org/zap"
)

// maxLogLimit caps the limit query parameter on the logs endpoint.
const maxLogLimit = 1000

// parseUUIDParam reads a path value as a UUID.
func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: name, Message: "must be a valid UUID"}
	}
	return id, nil
}

// loadSession fetches a session, mapping a missing row to ErrSessionNotFound.
func (s *Server) loadSession(r *http.Request) (*db.Session, error) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		return nil, err
	}
	sess, err := s.reader.GetSession(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return sess, nil
}

// handleGetSession returns one session row.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

// handleListSessionLogs returns audit entries for a session, newest first.
func (s *Server) handleListSessionLogs(w http.ResponseWriter, r *http.Request) {
	sess, err := s.loadSession(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	limit := db.DefaultLogLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLogLimit {
			s.writeError(w, &ErrValidation{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(maxLogLimit)})
			return
		}
		limit = n
	}

	logs, err := s.reader.ListSessionLogs(r.Context(), sess.ID, limit)
	if err != nil {
		s.logger.Error("failed to list session logs", zap.String("session_id", sess.ID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list session logs")
		return
	}
	if logs == nil {
		logs = []db.SessionLog{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"logs": logs, "count": len(logs)})
}

// handleSessionStream streams session updates as Server-Sent Events until the
// session reaches a terminal status or the client goes away.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.updates == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "session streaming is not configured")
		return
	}

	// Subscribe before the snapshot so no update falls between the two.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	updates, err := s.updates.Subscribe(ctx, id.String())
	if err != nil {
		s.logger.Error("failed to subscribe to session", zap.String("session_id", id.String()), zap.Error(err))
		s.errorResponse(w, http.StatusServiceUnavailable, "failed to subscribe to session updates")
		return
	}

	sess, err := s.reader.GetSession(ctx, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess == nil {
		s.writeError(w, &ErrSessionNotFound{SessionID: id})
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Streams outlive the server-wide write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug("write deadline not adjustable", zap.Error(err))
	}

	s.metrics.Streams.Inc()
	defer s.metrics.Streams.Dec()

	if err := sse.WriteEvent(sseEventSession, sess); err != nil {
		return
	}
	if sess.IsTerminal() {
		sse.WriteUpdate(snapshotUpdate(sess)) //nolint:errcheck
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sse.WriteComment("keepalive"); err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.WriteUpdate(u); err != nil {
				return
			}
			if u.Terminal() {
				return
			}
		}
	}
}

// snapshotUpdate renders a stored session as a realtime update.
func snapshotUpdate(sess *db.Session) realtime.SessionUpdate {
	u := realtime.SessionUpdate{
		SessionID: sess.ID.String(),
		Status:    sess.Status,
		Progress:  sess.Progress,
		At:        sess.UpdatedAt,
	}
	if sess.CurrentPhase != nil {
		u.Phase = *sess.CurrentPhase
	}
	if sess.ErrorMessage != nil {
		u.Message = *sess.ErrorMessage
	}
	return u
}
