package client

import (
	"context"
	"time"
)

// SignupResult echoes the account the server created.
type SignupResult struct {
	Message  string
	Username string
	Email    string
}

// LoginResult carries the issued token. ExpiresAt is computed on receipt from
// the server's expiresIn.
type LoginResult struct {
	Message   string
	Token     string
	ExpiresIn time.Duration
	ExpiresAt time.Time
}

// LogRecord is one client log line shipped to POST /log.
type LogRecord struct {
	Level     string
	Message   string
	SessionID string
	Timestamp time.Time
}

type Client interface {
	Signup(ctx context.Context, username, email, password string) (*SignupResult, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Refresh(ctx context.Context, token string) (string, time.Time, error)
	SendLog(ctx context.Context, rec LogRecord) error
}
