// Package client is a typed HTTP client for the accounts API. It keeps the
// current token pair and, when a request comes back 401, refreshes the pair
// once and retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrNotLoggedIn is returned by calls that need tokens when none are held.
var ErrNotLoggedIn = errors.New("not logged in")

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.Mutex
	tokens *TokenPair
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New constructs a Client pointing at base. A missing scheme means http.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("empty api base url")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	c := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Detail)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Tokens returns a copy of the held pair, or nil.
func (c *Client) Tokens() *TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		return nil
	}
	t := *c.tokens
	return &t
}

func (c *Client) setTokens(t *TokenPair) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

// Logout forgets the held tokens. The server keeps no session.
func (c *Client) Logout() { c.setTokens(nil) }

func (c *Client) Register(ctx context.Context, email, password string, fullName *string) error {
	body := map[string]any{"email": email, "password": password}
	if fullName != nil {
		body["full_name"] = *fullName
	}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, "", &pair); err != nil {
		return err
	}
	c.setTokens(&pair)
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "", &pair); err != nil {
		return err
	}
	c.setTokens(&pair)
	return nil
}

// Refresh exchanges the held refresh token for a new pair. On failure the
// held tokens are dropped.
func (c *Client) Refresh(ctx context.Context) error {
	t := c.Tokens()
	if t == nil {
		return ErrNotLoggedIn
	}
	var pair TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", map[string]string{"refresh_token": t.RefreshToken}, "", &pair); err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			c.setTokens(nil)
		}
		return err
	}
	c.setTokens(&pair)
	return nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.authorized(ctx, http.MethodGet, "/users/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var list []User
	if err := c.authorized(ctx, http.MethodGet, "/users/", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// authorized sends a bearer request, refreshing and retrying once on 401.
func (c *Client) authorized(ctx context.Context, method, path string, body, v any) error {
	t := c.Tokens()
	if t == nil {
		return ErrNotLoggedIn
	}

	err := c.do(ctx, method, path, body, t.AccessToken, v)
	if !IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	if rerr := c.Refresh(ctx); rerr != nil {
		return err
	}
	return c.do(ctx, method, path, body, c.Tokens().AccessToken, v)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Detail: extractDetail(resp.Body)}
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractDetail(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Detail)
}
