// Package dto provides Data Transfer Objects for API requests and responses.
package dto

// ErrorDetail carries a stable machine code and a human message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse is the envelope for application-route errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// OAuthErrorResponse is the envelope for OAuth-facing routes, following
// RFC 6749 field naming.
type OAuthErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Pagination provides cursor-based pagination info.
type Pagination struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}
