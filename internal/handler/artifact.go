package handler

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/handler/dto"
	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/repository"
)

// csvPreviewRows bounds the number of data rows returned in a preview.
const csvPreviewRows = 50

// ArtifactHandler serves charts and CSV artifacts produced by the chat
// pipeline.
type ArtifactHandler struct {
	repo   *repository.Repository
	logger *slog.Logger
}

// NewArtifactHandler creates an ArtifactHandler.
func NewArtifactHandler(repo *repository.Repository, logger *slog.Logger) *ArtifactHandler {
	return &ArtifactHandler{
		repo:   repo,
		logger: logger,
	}
}

// GetChart handles GET /api/v1/charts/{id}.
func (h *ArtifactHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Chart ID is required")
		return
	}

	chart, err := h.repo.GetChart(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrChartNotFound) {
			writeError(w, http.StatusNotFound, "CHART_NOT_FOUND", "Chart not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChartResponse(chart))
}

// GetCSV handles GET /api/v1/csv/{id}.
// Returns artifact metadata plus the first rows parsed server-side.
func (h *ArtifactHandler) GetCSV(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Artifact ID is required")
		return
	}

	artifact, err := h.repo.GetCSVArtifact(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCSVNotFound) {
			writeError(w, http.StatusNotFound, "CSV_NOT_FOUND", "CSV artifact not found")
			return
		}
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	preview, truncated := previewCSV(artifact, csvPreviewRows)

	writeJSON(w, http.StatusOK, dto.ToCSVArtifactResponse(artifact, preview, truncated))
}

// previewCSV parses up to maxRows data rows from the stored content.
// A header row matching the stored column names is skipped. Malformed
// trailing rows end the preview rather than failing the request.
func previewCSV(artifact *model.CSVArtifact, maxRows int) ([][]string, bool) {
	reader := csv.NewReader(strings.NewReader(artifact.Content))
	reader.FieldsPerRecord = -1

	preview := make([][]string, 0, maxRows)
	truncated := false

	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF || err != nil {
			break
		}

		if i == 0 && isHeaderRow(record, artifact.Columns) {
			continue
		}

		if len(preview) == maxRows {
			truncated = true
			break
		}
		preview = append(preview, record)
	}

	return preview, truncated
}

// isHeaderRow reports whether a record equals the stored column names.
func isHeaderRow(record, columns []string) bool {
	if len(record) != len(columns) || len(columns) == 0 {
		return false
	}
	for i := range record {
		if !strings.EqualFold(strings.TrimSpace(record[i]), strings.TrimSpace(columns[i])) {
			return false
		}
	}
	return true
}
