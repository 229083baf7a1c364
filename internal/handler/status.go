package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// modelProbeTimeout bounds the local model server probe.
const modelProbeTimeout = 5 * time.Second

// StatusHandler reports local model server availability.
// Development only; the route is not mounted in production.
type StatusHandler struct {
	modelServerURL string
	httpClient     *http.Client
	logger         *slog.Logger
}

// NewStatusHandler creates a StatusHandler probing the given server.
func NewStatusHandler(modelServerURL string, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		modelServerURL: modelServerURL,
		httpClient:     &http.Client{Timeout: modelProbeTimeout},
		logger:         logger,
	}
}

// modelStatusResponse reports the probe outcome. A failed probe is a
// normal response, not an error.
type modelStatusResponse struct {
	Connected bool     `json:"connected"`
	Models    []string `json:"models"`
	Error     string   `json:"error,omitempty"`
}

// ModelStatus handles GET /api/v1/model-status.
func (h *StatusHandler) ModelStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), modelProbeTimeout)
	defer cancel()

	models, err := h.probe(ctx)
	if err != nil {
		h.logger.Debug("model server probe failed", "error", err)
		writeJSON(w, http.StatusOK, modelStatusResponse{
			Connected: false,
			Models:    []string{},
			Error:     err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, modelStatusResponse{
		Connected: true,
		Models:    models,
	})
}

// probe lists the models the local server advertises.
func (h *StatusHandler) probe(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.modelServerURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(body.Models))
	for _, m := range body.Models {
		names = append(names, m.Name)
	}

	return names, nil
}
