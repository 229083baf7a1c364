package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/repository"
)

// Chat service errors.
var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrInvalidTitle    = errors.New("invalid session title")
	ErrInvalidMessage  = errors.New("invalid chat message")
)

const (
	maxTitleLength   = 200
	maxContentLength = 32 * 1024
	defaultTitle     = "New search"
)

// ChatService handles chat session business logic.
type ChatService struct {
	repo *repository.Repository
}

// NewChatService creates a ChatService.
func NewChatService(repo *repository.Repository) *ChatService {
	return &ChatService{repo: repo}
}

// CreateSessionInput defines input for creating a chat session.
type CreateSessionInput struct {
	UserID       string
	Title        string
	FirstMessage string
}

// SessionDetail is a session with its ordered messages.
type SessionDetail struct {
	Session  *model.ChatSession
	Messages []*model.ChatMessage
}

// CreateSession creates a chat session, optionally seeding the first
// user message.
func (s *ChatService) CreateSession(ctx context.Context, input CreateSessionInput) (*model.ChatSession, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = defaultTitle
	}
	if len(title) > maxTitleLength {
		return nil, ErrInvalidTitle
	}

	now := time.Now().UTC()
	session := &model.ChatSession{
		ID:        ulid.Make().String(),
		UserID:    input.UserID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateChatSession(ctx, session); err != nil {
		return nil, err
	}

	if msg := strings.TrimSpace(input.FirstMessage); msg != "" {
		if _, err := s.AppendMessage(ctx, input.UserID, session.ID, model.RoleUser, msg); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// GetSession returns a session with its messages, scoped to the owner.
func (s *ChatService) GetSession(ctx context.Context, userID, sessionID string) (*SessionDetail, error) {
	session, err := s.repo.GetChatSession(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	messages, err := s.repo.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionDetail{Session: session, Messages: messages}, nil
}

// ListSessions returns the user's sessions, newest first.
// A non-empty cursor resumes after the given session id.
func (s *ChatService) ListSessions(ctx context.Context, userID, cursor string, limit int) ([]*model.ChatSession, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	// Fetch one extra row to learn whether another page exists.
	sessions, err := s.repo.ListChatSessions(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(sessions) > limit {
		sessions = sessions[:limit]
		nextCursor = sessions[limit-1].ID
	}

	return sessions, nextCursor, nil
}

// RenameSession updates a session title.
func (s *ChatService) RenameSession(ctx context.Context, userID, sessionID, title string) (*model.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLength {
		return nil, ErrInvalidTitle
	}

	session, err := s.repo.RenameChatSession(ctx, sessionID, userID, title)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return session, nil
}

// DeleteSession removes a session and its messages.
func (s *ChatService) DeleteSession(ctx context.Context, userID, sessionID string) error {
	err := s.repo.DeleteChatSession(ctx, sessionID, userID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}

// AppendMessage appends a message to a session the user owns.
func (s *ChatService) AppendMessage(ctx context.Context, userID, sessionID, role, content string) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > maxContentLength || !model.IsValidRole(role) {
		return nil, ErrInvalidMessage
	}

	msg := &model.ChatMessage{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AppendChatMessage(ctx, userID, msg); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return msg, nil
}
