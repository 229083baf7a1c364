package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// clientTimeout is the total request timeout for provider calls.
	clientTimeout = 10 * time.Second
	// dialTimeout is the connection timeout.
	dialTimeout = 5 * time.Second
	// maxResponseBytes bounds how much of a provider response is read.
	maxResponseBytes = 1 << 20 // 1MB

	tokenPath    = "/v1/oauth/token"
	userinfoPath = "/v1/oauth/userinfo"
)

// Live is the HTTP AuthProvider talking to the real identity provider.
type Live struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewLive creates a Live provider client.
func NewLive(baseURL, clientID, clientSecret string) *Live {
	return &Live{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   newHTTPClient(),
	}
}

// newHTTPClient builds an HTTP client for provider calls.
// It has tight timeouts and does not follow redirects.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: clientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: 8 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   5,
			IdleConnTimeout:       90 * time.Second,
		},
		// Don't follow redirects - the token endpoint never redirects
		// and following one could replay credentials elsewhere.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ExchangeCode performs the authorization-code grant against the
// provider's token endpoint. On success the provider's token payload is
// returned verbatim. Every upstream failure, whatever its status code,
// comes back as a sanitized *ExchangeError.
func (p *Live) ExchangeCode(ctx context.Context, code, redirectURI, codeVerifier string) (json.RawMessage, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"redirect_uri":  {redirectURI},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"code_verifier": {codeVerifier},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.baseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		// Network failures look like any other upstream failure to the
		// caller: sanitized, no provider detail.
		return nil, sanitizeExchangeError("")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, sanitizeExchangeError("")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, sanitizeExchangeError(parseUpstreamErrorCode(body))
	}

	if !json.Valid(body) {
		return nil, sanitizeExchangeError("")
	}

	return json.RawMessage(body), nil
}

// parseUpstreamErrorCode extracts the OAuth error code from an upstream
// error body, tolerating non-JSON responses.
func parseUpstreamErrorCode(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

// UserInfo fetches the provider profile using the access token as a
// bearer credential.
func (p *Live) UserInfo(ctx context.Context, accessToken string) (*UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+userinfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserinfoFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrUserinfoFailed
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUserinfoFailed, err)
	}

	var info UserInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode profile: %v", ErrUserinfoFailed, err)
	}

	if info.Email == "" {
		return nil, ErrMissingEmail
	}

	return &info, nil
}
