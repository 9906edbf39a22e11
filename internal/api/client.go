// Package api is the SentinL REST client. Every response is decoded into
// an explicit schema and every failure surfaces as a typed *APIError; no
// handler ever trusts the wire shape.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sentinl-app/sentinl/client/internal/config"
	"github.com/sentinl-app/sentinl/client/internal/session"
)

// APIError describes a failed call: transport trouble (Status 0), a non-2xx
// response, or a payload that did not match the expected schema.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("api: %s", e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to the SentinL backend. The auth token is read from the
// session store on every request, so a login mid-session takes effect
// immediately.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
}

// New builds a client for the configured base URL. The session store may be
// empty; requests then go out unauthenticated.
func New(cfg config.ClientConfig, sess *session.Store) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		session: sess,
	}
}

// BaseURL exposes the resolved endpoint root, mainly for logging.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) url(path string) string {
	return c.baseURL + strings.TrimPrefix(path, "/")
}

func (c *Client) authorize(req *http.Request) {
	if tok := c.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}
}

// doJSON issues a request with an optional JSON body and decodes the
// response into out. A nil out discards the body after the status check.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorMessage pulls the backend's {"error": ...} message when present and
// falls back to a trimmed body snippet otherwise.
func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return "request failed"
	}

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}

	return strings.TrimSpace(string(raw))
}
