package model

import "time"

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatSession is a persisted conversation owned by a user.
type ChatSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChatMessage is a single ordered message within a session.
type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValidRole reports whether a message role is one the API accepts.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
