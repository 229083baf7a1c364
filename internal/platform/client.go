// Package platform is the HTTP client for the upstream patent search
// platform. Unlike the OAuth routes, platform responses carry no
// credential-bearing secrets, so proxying passes upstream status and
// content-type through transparently.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	clientTimeout    = 30 * time.Second
	dialTimeout      = 10 * time.Second
	maxResponseBytes = 8 << 20 // 8MB

	patentPath = "/v1/patents/"
	searchPath = "/v1/search"
)

// Common platform errors.
var (
	// ErrPatentNotFound indicates the upstream has no record for the id.
	ErrPatentNotFound = errors.New("patent not found upstream")
	// ErrUpstream indicates any other upstream failure.
	ErrUpstream = errors.New("platform request failed")
)

// Client talks to the search platform.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a platform Client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   dialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 15 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// FetchPatent retrieves a single patent record by id.
func (c *Client) FetchPatent(ctx context.Context, patentID string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+patentPath+url.PathEscape(patentID), nil)
	if err != nil {
		return nil, fmt.Errorf("build patent request: %w", err)
	}
	c.authorize(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPatentNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}

	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: invalid JSON payload", ErrUpstream)
	}

	return json.RawMessage(body), nil
}

// ProxySearch forwards a search request body upstream and streams the
// response back, preserving status and content-type.
func (c *Client) ProxySearch(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		c.baseURL+searchPath, r.Body)
	if err != nil {
		http.Error(w, `{"error":{"code":"UPSTREAM_ERROR","message":"Search request failed"}}`,
			http.StatusBadGateway)
		return
	}
	c.authorize(req)
	if ct := r.Header.Get("Content-Type"); ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		http.Error(w, `{"error":{"code":"UPSTREAM_ERROR","message":"Search request failed"}}`,
			http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, io.LimitReader(resp.Body, maxResponseBytes))
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
