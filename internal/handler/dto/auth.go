package dto

import (
	"time"

	"github.com/patlas/patlas/internal/model"
	"github.com/patlas/patlas/internal/provider"
)

// TokenExchangeRequest is the body for POST /api/v1/oauth/token.
type TokenExchangeRequest struct {
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	CodeVerifier string `json:"code_verifier"`
}

// SessionBridgeRequest is the body for POST /api/v1/oauth/session.
type SessionBridgeRequest struct {
	ValyuAccessToken string `json:"valyu_access_token"`
}

// SessionBridgeResponse returns the magic-link token hash the frontend
// redeems to complete sign-in. The hash is the only credential here.
type SessionBridgeResponse struct {
	UserID    string             `json:"user_id"`
	Email     string             `json:"email"`
	TokenHash string             `json:"token_hash"`
	ValyuUser *provider.UserInfo `json:"valyu_user"`
}

// VerifyRequest is the body for POST /api/v1/auth/verify.
type VerifyRequest struct {
	TokenHash string `json:"token_hash"`
}

// RefreshRequest is the body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SignOutRequest is the body for POST /api/v1/auth/signout.
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is a user in API responses.
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name,omitempty"`
	AvatarURL   string     `json:"avatar_url,omitempty"`
	Tier        string     `json:"subscription_tier"`
	OrgID       string     `json:"org_id,omitempty"`
	OrgName     string     `json:"org_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
}

// SessionResponse is an access/refresh pair plus the signed-in user.
type SessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		AvatarURL:   user.AvatarURL,
		Tier:        user.Tier,
		OrgID:       user.OrgID,
		OrgName:     user.OrgName,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
		ConfirmedAt: user.EmailConfirmedAt,
	}
}

// ToSessionResponse converts issued session tokens to the API shape.
func ToSessionResponse(accessToken, refreshToken string, expiresIn int64, user *model.User) *SessionResponse {
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    expiresIn,
		User:         ToUserResponse(user),
	}
}
