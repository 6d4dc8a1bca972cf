package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/jonathan/scout-webhook/internal/export"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleExportEvaluations downloads a study's evaluation matrix as XLSX.
func (s *Server) handleExportEvaluations(w http.ResponseWriter, r *http.Request) {
	studyID, err := parseUUIDParam(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	evals, err := s.reader.ListEvaluations(r.Context(), studyID)
	if err != nil {
		s.logger.Error("failed to list evaluations", zap.String("study_id", studyID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list evaluations")
		return
	}

	// Buffer so a rendering failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := export.WriteEvaluationMatrix(&buf, evals); err != nil {
		s.logger.Error("failed to render evaluation matrix", zap.String("study_id", studyID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to render evaluation matrix")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="evaluations-%s.xlsx"`, studyID))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write evaluation matrix", zap.Error(err))
	}
}
