package dto

import (
	"time"

	"github.com/patlas/patlas/internal/model"
)

// CreateSessionRequest is the body for creating a chat session.
type CreateSessionRequest struct {
	Title        string `json:"title,omitempty"`
	FirstMessage string `json:"first_message,omitempty"`
}

// RenameSessionRequest is the body for renaming a chat session.
type RenameSessionRequest struct {
	Title string `json:"title"`
}

// AppendMessageRequest is the body for appending a chat message.
type AppendMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatSessionResponse is a chat session in API responses.
type ChatSessionResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessageResponse is a chat message in API responses.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSessionDetailResponse is a session with its ordered messages.
type ChatSessionDetailResponse struct {
	ChatSessionResponse
	Messages []ChatMessageResponse `json:"messages"`
}

// ChatSessionListResponse is a paginated list of chat sessions.
type ChatSessionListResponse struct {
	Data       []ChatSessionResponse `json:"data"`
	Pagination *Pagination           `json:"pagination"`
}

// ToChatSessionResponse converts a ChatSession model to its DTO.
func ToChatSessionResponse(s *model.ChatSession) ChatSessionResponse {
	return ChatSessionResponse{
		ID:        s.ID,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// ToChatMessageResponse converts a ChatMessage model to its DTO.
func ToChatMessageResponse(m *model.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// ToChatSessionDetailResponse converts a session plus messages.
func ToChatSessionDetailResponse(s *model.ChatSession, messages []*model.ChatMessage) *ChatSessionDetailResponse {
	resp := &ChatSessionDetailResponse{
		ChatSessionResponse: ToChatSessionResponse(s),
		Messages:            make([]ChatMessageResponse, len(messages)),
	}
	for i, m := range messages {
		resp.Messages[i] = ToChatMessageResponse(m)
	}
	return resp
}

// ToChatSessionListResponse converts a page of sessions.
func ToChatSessionListResponse(sessions []*model.ChatSession, nextCursor string) *ChatSessionListResponse {
	data := make([]ChatSessionResponse, len(sessions))
	for i, s := range sessions {
		data[i] = ToChatSessionResponse(s)
	}
	return &ChatSessionListResponse{
		Data: data,
		Pagination: &Pagination{
			NextCursor: nextCursor,
			HasMore:    nextCursor != "",
		},
	}
}
