package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Mock is a deterministic AuthProvider for local development.
// It accepts any authorization code and resolves every access token to
// a fixed development profile, so the frontend sign-in flow can be
// exercised without provider credentials. Startup wiring only selects
// it in development mode.
type Mock struct{}

// NewMock creates a Mock provider.
func NewMock() *Mock {
	return &Mock{}
}

// ExchangeCode returns a fixed token payload for any inputs.
func (m *Mock) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (json.RawMessage, error) {
	payload := map[string]any{
		"access_token":  "mock-access-" + code,
		"refresh_token": "mock-refresh-" + code,
		"token_type":    "Bearer",
		"expires_in":    3600,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal mock token payload: %w", err)
	}

	return body, nil
}

// UserInfo returns the fixed development profile.
func (m *Mock) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	if accessToken == "" {
		return nil, ErrUserinfoFailed
	}

	return &UserInfo{
		Subject:   "mock-user-1",
		Email:     "dev@patlas.local",
		Name:      "Dev User",
		AvatarURL: "",
		OrgID:     "mock-org",
		OrgName:   "Patlas Dev",
	}, nil
}
