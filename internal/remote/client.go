// Package remote talks to the resume-matcher server: authentication and the
// per-user resume slot used by the synchronizer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/resume-matcher/internal/document"
	"github.com/jonathan/resume-matcher/internal/syncer"
	"github.com/jonathan/resume-matcher/internal/types"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 15 * time.Second

// Error is a non-success response or an unreadable body.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.Path)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	msg += ": " + e.Message
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Client is a syncer.RemoteStore backed by the HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a client for baseURL. token may be empty for the auth calls.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// Authenticated reports whether the client carries a bearer token.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type resumeEnvelope struct {
	Resume    json.RawMessage `json:"resume"`
	UpdatedAt *time.Time      `json:"updatedAt"`
}

// Fetch implements syncer.RemoteStore.
func (c *Client) Fetch(ctx context.Context) (*syncer.RemoteSnapshot, error) {
	var env resumeEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/resume", nil, &env); err != nil {
		return nil, err
	}
	if len(env.Resume) == 0 || string(env.Resume) == "null" {
		return nil, nil
	}

	r, err := document.ParseResume(env.Resume)
	if err != nil {
		return nil, &Error{Method: http.MethodGet, Path: "/api/resume", Message: "server returned an invalid resume", Cause: err}
	}
	snap := &syncer.RemoteSnapshot{Resume: r}
	if env.UpdatedAt != nil {
		snap.UpdatedAt = *env.UpdatedAt
	}
	return snap, nil
}

// Push implements syncer.RemoteStore.
func (c *Client) Push(ctx context.Context, r *types.Resume) (time.Time, error) {
	var out types.SaveResumeResponse
	if err := c.do(ctx, http.MethodPost, "/api/resume", map[string]any{"resume": r}, &out); err != nil {
		return time.Time{}, err
	}
	if !out.Success {
		return time.Time{}, &Error{Method: http.MethodPost, Path: "/api/resume", Message: "server did not confirm the save"}
	}
	return out.UpdatedAt, nil
}

// Register creates an account and returns the session.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (*types.LoginResponse, error) {
	var out types.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.LoginResponse, error) {
	var out types.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind the token.
func (c *Client) Me(ctx context.Context) (*types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Method: method, Path: path, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Method: method, Path: path, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Method: method, Path: path, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s %s: %w", method, path, syncer.ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: serverMessage(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Method: method, Path: path, StatusCode: resp.StatusCode, Message: "malformed response body", Cause: err}
	}
	return nil
}

func serverMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		return "unexpected response"
	}
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	return msg
}
