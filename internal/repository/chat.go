package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/patlas/patlas/internal/model"
)

// Common errors for chat repository operations.
// Ownership mismatches surface as ErrSessionNotFound so the API never
// confirms that a foreign session exists.
var (
	ErrSessionNotFound = errors.New("chat session not found")
)

// CreateChatSession inserts a new chat session.
func (r *Repository) CreateChatSession(ctx context.Context, session *model.ChatSession) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Title,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create chat session: %w", err)
	}

	return nil
}

// GetChatSession retrieves a session owned by the given user.
func (r *Repository) GetChatSession(ctx context.Context, id, userID string) (*model.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE id = $1 AND user_id = $2
	`

	var session model.ChatSession
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}

	return &session, nil
}

// ListChatSessions returns the user's sessions, newest first.
// Cursor is the ULID of the last session from the previous page; ULIDs
// sort lexicographically by creation time, which makes them natural
// pagination cursors.
func (r *Repository) ListChatSessions(ctx context.Context, userID, cursor string, limit int) ([]*model.ChatSession, error) {
	query := `
		SELECT id, user_id, title, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1 AND ($2 = '' OR id < $2)
		ORDER BY id DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, userID, cursor, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*model.ChatSession
	for rows.Next() {
		var s model.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat sessions: %w", err)
	}

	return sessions, nil
}

// RenameChatSession updates a session's title, scoped to its owner.
func (r *Repository) RenameChatSession(ctx context.Context, id, userID, title string) (*model.ChatSession, error) {
	query := `
		UPDATE chat_sessions
		SET title = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, title, created_at, updated_at
	`

	var session model.ChatSession
	err := r.pool.QueryRow(ctx, query, id, userID, title, time.Now()).Scan(
		&session.ID,
		&session.UserID,
		&session.Title,
		&session.CreatedAt,
		&session.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to rename chat session: %w", err)
	}

	return &session, nil
}

// DeleteChatSession removes a session and its messages, scoped to its owner.
func (r *Repository) DeleteChatSession(ctx context.Context, id, userID string) error {
	// Messages cascade via FK
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// AppendChatMessage inserts a message and bumps the session's
// updated_at, verifying ownership in the same statement.
func (r *Repository) AppendChatMessage(ctx context.Context, userID string, msg *model.ChatMessage) error {
	query := `
		INSERT INTO chat_messages (id, session_id, role, content, created_at)
		SELECT $1, s.id, $3, $4, $5
		FROM chat_sessions s
		WHERE s.id = $2 AND s.user_id = $6
	`

	tag, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.SessionID,
		msg.Role,
		msg.Content,
		msg.CreatedAt,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE chat_sessions SET updated_at = $2 WHERE id = $1`,
		msg.SessionID, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to touch chat session: %w", err)
	}

	return nil
}

// ListChatMessages returns a session's messages in insertion order.
func (r *Repository) ListChatMessages(ctx context.Context, sessionID string) ([]*model.ChatMessage, error) {
	query := `
		SELECT id, session_id, role, content, created_at
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		messages = append(messages, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chat messages: %w", err)
	}

	return messages, nil
}
