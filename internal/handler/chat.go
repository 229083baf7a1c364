package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/patlas/patlas/internal/auth"
	"github.com/patlas/patlas/internal/handler/dto"
	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/service"
)

// ChatHandler handles HTTP requests for chat sessions.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /api/v1/chat/sessions.
func (h *ChatHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	var req dto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	session, err := h.svc.CreateSession(r.Context(), service.CreateSessionInput{
		UserID:       userID,
		Title:        req.Title,
		FirstMessage: req.FirstMessage,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_session_created",
		"session_id", session.ID,
		"user_id", userID,
	)

	writeJSON(w, http.StatusCreated, dto.ToChatSessionResponse(session))
}

// List handles GET /api/v1/chat/sessions.
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID
	query := r.URL.Query()

	limit := 20
	if l := query.Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	sessions, nextCursor, err := h.svc.ListSessions(r.Context(), userID, query.Get("cursor"), limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChatSessionListResponse(sessions, nextCursor))
}

// Get handles GET /api/v1/chat/sessions/{id}.
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return
	}

	detail, err := h.svc.GetSession(r.Context(), userID, id)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChatSessionDetailResponse(detail.Session, detail.Messages))
}

// Rename handles PATCH /api/v1/chat/sessions/{id}.
func (h *ChatHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return
	}

	var req dto.RenameSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	session, err := h.svc.RenameSession(r.Context(), userID, id, req.Title)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToChatSessionResponse(session))
}

// Delete handles DELETE /api/v1/chat/sessions/{id}.
func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return
	}

	if err := h.svc.DeleteSession(r.Context(), userID, id); err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.logger.Info("chat_session_deleted", "session_id", id, "user_id", userID)

	w.WriteHeader(http.StatusNoContent)
}

// AppendMessage handles POST /api/v1/chat/sessions/{id}/messages.
// Defaults the role to "user" when omitted.
func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	userID := auth.MustIdentityFromContext(r.Context()).ID

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return
	}

	var req dto.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}

	msg, err := h.svc.AppendMessage(r.Context(), userID, id, role, req.Content)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToChatMessageResponse(msg))
}

// handleServiceError maps chat service errors to HTTP responses.
func (h *ChatHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "Chat session not found")
	case errors.Is(err, service.ErrInvalidTitle):
		writeError(w, http.StatusBadRequest, "INVALID_TITLE", "Title must be 1-200 characters")
	case errors.Is(err, service.ErrInvalidMessage):
		writeError(w, http.StatusBadRequest, "INVALID_MESSAGE", "Message role or content is invalid")
	default:
		h.logger.Error("internal_error", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
