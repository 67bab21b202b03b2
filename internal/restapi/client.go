// Package restapi implements the HTTP client for the journal REST backend.
//
// The backend wraps every response in a {success, message, ...} envelope.
// Transport failures (network errors, non-2xx statuses) surface as wrapped
// generic errors; application failures (success=false) surface as *APIError
// carrying the server message verbatim.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Client talks to the journal backend. The bearer token is set after login
// and cleared on logout; all other state is immutable after construction.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *slog.Logger

	mu    sync.RWMutex
	token string
}

// New creates a client for the backend rooted at baseURL (e.g.
// "https://api.example.org/api").
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetToken installs the bearer token used on subsequent requests. An empty
// token clears authentication.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, or empty when unauthenticated.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// APIError is an application-level failure: the backend answered with
// success=false and a user-facing message.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// envelope is the common part of every backend response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (e *envelope) result() (bool, string) { return e.Success, e.Message }

// responder lets do check the envelope of any decoded response.
type responder interface {
	result() (bool, string)
}

// doJSON issues a request with an optional JSON payload and decodes the
// enveloped response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, payload any, out responder) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("restapi: encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, body, "application/json", out)
}

// do issues a request with an arbitrary body and decodes the enveloped
// response into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out responder) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("restapi: build %s %s: %w", method, path, err)
	}
	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Error("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("restapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logger.Error("unexpected status",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("restapi: %s %s: HTTP %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("restapi: decode %s %s: %w", method, path, err)
	}
	if ok, msg := out.result(); !ok {
		return &APIError{Message: msg}
	}
	return nil
}
