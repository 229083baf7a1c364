// Package provider is the OAuth client for the external identity
// provider. Exchange and userinfo calls are always server-to-server;
// the client secret never reaches a browser.
package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Common provider errors.
var (
	// ErrUserinfoFailed indicates the userinfo endpoint rejected the
	// access token or returned a non-2xx status.
	ErrUserinfoFailed = errors.New("userinfo request failed")
	// ErrMissingEmail indicates the provider profile carries no email.
	ErrMissingEmail = errors.New("provider profile has no email")
)

// ExchangeError is a sanitized token-exchange failure. The code is one
// of the stable OAuth error codes and the description comes only from
// the fixed safe-message table; raw upstream bodies never surface.
type ExchangeError struct {
	Code        string
	Description string
}

func (e *ExchangeError) Error() string {
	return e.Code + ": " + e.Description
}

// UserInfo is the provider profile, validated once at the boundary.
// Email is the only required field.
type UserInfo struct {
	Subject   string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	OrgID     string `json:"org_id,omitempty"`
	OrgName   string `json:"org_name,omitempty"`
}

// AuthProvider abstracts the identity provider so a deterministic mock
// can replace the live client in development.
type AuthProvider interface {
	// ExchangeCode swaps an authorization code (plus PKCE verifier) for
	// the provider's token payload. The payload is returned verbatim;
	// failures are *ExchangeError values.
	ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (json.RawMessage, error)

	// UserInfo fetches the profile for an access token.
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// safeExchangeMessages maps upstream OAuth error codes to user-facing
// descriptions. Anything not listed gets the generic fallback so
// provider internals cannot leak through the API.
var safeExchangeMessages = map[string]string{
	"invalid_grant":   "The authorization code is invalid or has expired. Please sign in again.",
	"invalid_client":  "The application could not be authenticated with the identity provider.",
	"invalid_request": "The sign-in request was malformed. Please try again.",
}

// genericExchangeMessage is returned for unmapped upstream errors.
const genericExchangeMessage = "Sign-in failed. Please try again."

// sanitizeExchangeError builds an ExchangeError from an upstream error
// code, drawing the description only from the safe-message table.
func sanitizeExchangeError(upstreamCode string) *ExchangeError {
	if msg, ok := safeExchangeMessages[upstreamCode]; ok {
		return &ExchangeError{Code: upstreamCode, Description: msg}
	}
	return &ExchangeError{Code: "exchange_failed", Description: genericExchangeMessage}
}
