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
	"time"

	"github.com/benbjohnson/clock"
)

const (
	defaultRequestTimeout = 15 * time.Second
	maxResponseBytes      = 1 << 20
)

// HTTPClient talks to the auth server's JSON API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	clock   clock.Clock
}

type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

func WithClock(c clock.Clock) HTTPOption {
	return func(h *HTTPClient) { h.clock = c }
}

func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: defaultRequestTimeout},
		clock:   clock.New(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResponse struct {
	Message string `json:"message"`
	User    struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

type refreshRequest struct {
	Token string `json:"token"`
}

type refreshResponse struct {
	NewToken  string `json:"newToken"`
	NewExpiry string `json:"newExpiry"`
}

type logRequest struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (c *HTTPClient) Signup(ctx context.Context, username, email, password string) (*SignupResult, error) {
	var resp signupResponse
	err := c.post(ctx, "/signup", signupRequest{Username: username, Email: email, Password: password}, http.StatusCreated, &resp)
	if err != nil {
		return nil, err
	}
	return &SignupResult{Message: resp.Message, Username: resp.User.Username, Email: resp.User.Email}, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var resp loginResponse
	err := c.post(ctx, "/login", loginRequest{Username: username, Password: password}, http.StatusOK, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response carries no token")
	}

	expiresIn := time.Duration(resp.ExpiresIn) * time.Second
	return &LoginResult{
		Message:   resp.Message,
		Token:     resp.Token,
		ExpiresIn: expiresIn,
		ExpiresAt: c.clock.Now().Add(expiresIn),
	}, nil
}

// Refresh exchanges token for a new one. The returned expiry is the server's
// newExpiry, parsed from its HTTP-date form.
func (c *HTTPClient) Refresh(ctx context.Context, token string) (string, time.Time, error) {
	var resp refreshResponse
	if err := c.post(ctx, "/refresh-token", refreshRequest{Token: token}, http.StatusOK, &resp); err != nil {
		return "", time.Time{}, err
	}
	if resp.NewToken == "" {
		return "", time.Time{}, errors.New("refresh response carries no token")
	}

	expiry, err := http.ParseTime(resp.NewExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid newExpiry %q: %w", resp.NewExpiry, err)
	}
	return resp.NewToken, expiry, nil
}

func (c *HTTPClient) SendLog(ctx context.Context, rec LogRecord) error {
	req := logRequest{
		Level:     rec.Level,
		Message:   rec.Message,
		SessionID: rec.SessionID,
		Timestamp: rec.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	return c.post(ctx, "/log", req, http.StatusOK, &messageResponse{})
}

func (c *HTTPClient) post(ctx context.Context, path string, in any, want int, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
		}
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}

	if resp.StatusCode != want {
		var msg messageResponse
		_ = json.Unmarshal(data, &msg)
		return &APIError{StatusCode: resp.StatusCode, Message: msg.Message}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
