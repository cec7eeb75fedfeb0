package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/server/models"
	"github.com/dmitrijs2005/trackmeta/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	signupUser *models.User
	signupErr  error
	loginRes   *services.LoginResult
	loginErr   error
	refreshRes *services.RefreshResult
	refreshErr error

	gotUsername, gotEmail, gotPassword, gotToken string
}

func (f *fakeUsers) Signup(_ context.Context, username, email, password string) (*models.User, error) {
	f.gotUsername, f.gotEmail, f.gotPassword = username, email, password
	return f.signupUser, f.signupErr
}

func (f *fakeUsers) Login(_ context.Context, username, password string) (*services.LoginResult, error) {
	f.gotUsername, f.gotPassword = username, password
	return f.loginRes, f.loginErr
}

func (f *fakeUsers) RefreshToken(_ context.Context, token string) (*services.RefreshResult, error) {
	f.gotToken = token
	return f.refreshRes, f.refreshErr
}

type fakeLogs struct {
	got *models.ClientLog
	err error
}

func (f *fakeLogs) Record(_ context.Context, e *models.ClientLog) error {
	f.got = e
	return f.err
}

func do(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	a := New(&fakeUsers{}, &fakeLogs{})
	rec, out := do(t, a.Handler(), http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"created", signupRequest{"Alice", "a@x", "Valid1Pass!"}, nil, http.StatusCreated, "User created successfully!"},
		{"missing fields", signupRequest{Username: "a"}, common.ErrMissingFields, http.StatusBadRequest, "All fields are required"},
		{"weak password", signupRequest{"a", "a@x", "abc"}, common.ErrWeakPassword, http.StatusBadRequest, services.PasswordPolicy},
		{"dupe user", signupRequest{"a", "a@x", "Valid1Pass!"}, common.ErrUsernameTaken, http.StatusBadRequest, "custom user dupe"},
		{"dupe email", signupRequest{"a", "a@x", "Valid1Pass!"}, common.ErrEmailTaken, http.StatusBadRequest, "Email is already registered"},
		{"race", signupRequest{"a", "a@x", "Valid1Pass!"}, common.ErrDuplicateAccount, http.StatusBadRequest, "Email or username is already registered"},
		{"storage", signupRequest{"a", "a@x", "Valid1Pass!"}, errors.New("db down"), http.StatusInternalServerError, "Internal server error"},
		{"bad json", "{not json", nil, http.StatusBadRequest, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{
				signupUser: &models.User{Username: "alice", Email: "a@x"},
				signupErr:  tt.err,
			}
			a := New(users, &fakeLogs{}, WithDuplicateMessages("custom user dupe", ""))

			rec, out := do(t, a.Handler(), http.MethodPost, "/signup", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, out["message"])
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, map[string]any{"username": "alice", "email": "a@x"}, out["user"])
				assert.Equal(t, "Alice", users.gotUsername)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"ok", nil, http.StatusOK, "Login successful"},
		{"missing", common.ErrMissingLogin, http.StatusBadRequest, "Username and password are required"},
		{"unknown user", common.ErrUserNotFound, http.StatusNotFound, "Invalid username or password"},
		{"wrong password", common.ErrInvalidCredentials, http.StatusBadRequest, "Invalid username or password"},
		{"storage", common.ErrorInternal, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{
				loginRes: &services.LoginResult{Token: "tok", ExpiresIn: time.Hour},
				loginErr: tt.err,
			}
			a := New(users, &fakeLogs{})

			rec, out := do(t, a.Handler(), http.MethodPost, "/login", loginRequest{"alice", "pw"})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, out["message"])
			if tt.err == nil {
				assert.Equal(t, "tok", out["token"])
				assert.Equal(t, float64(3600), out["expiresIn"])
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	exp := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)

	t.Run("ok", func(t *testing.T) {
		users := &fakeUsers{refreshRes: &services.RefreshResult{Token: "new", ExpiresAt: exp}}
		a := New(users, &fakeLogs{})

		rec, out := do(t, a.Handler(), http.MethodPost, "/refresh-token", refreshRequest{"old"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "new", out["newToken"])
		assert.Equal(t, "Wed, 01 May 2024 13:00:00 GMT", out["newExpiry"])
		assert.Equal(t, "old", users.gotToken)
	})

	errCases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing", common.ErrTokenRequired, http.StatusUnauthorized, "Refresh token required"},
		{"invalid", common.ErrInvalidToken, http.StatusForbidden, "Invalid refresh token"},
		{"expired", common.ErrTokenExpired, http.StatusForbidden, "Invalid refresh token"},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeUsers{refreshErr: tt.err}, &fakeLogs{})

			rec, out := do(t, a.Handler(), http.MethodPost, "/refresh-token", refreshRequest{})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMsg, out["message"])
		})
	}
}

func TestLog(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		logs := &fakeLogs{}
		a := New(&fakeUsers{}, logs)

		rec, out := do(t, a.Handler(), http.MethodPost, "/log", logRequest{"warn", "slow", "s-1", "2024-05-01T10:00:00Z"})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Log received", out["message"])
		require.NotNil(t, logs.got)
		assert.Equal(t, &models.ClientLog{Level: "warn", Message: "slow", SessionID: "s-1", Timestamp: "2024-05-01T10:00:00Z"}, logs.got)
	})

	errCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"bad level", common.ErrInvalidLogLevel, http.StatusBadRequest},
		{"missing field", common.ErrInvalidLogEntry, http.StatusBadRequest},
		{"sink failure", common.ErrorInternal, http.StatusInternalServerError},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			a := New(&fakeUsers{}, &fakeLogs{err: tt.err})
			rec, _ := do(t, a.Handler(), http.MethodPost, "/log", logRequest{Level: "x"})
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRateLimit_Login(t *testing.T) {
	users := &fakeUsers{loginRes: &services.LoginResult{Token: "t", ExpiresIn: time.Hour}}
	a := New(users, &fakeLogs{}, WithRateLimit(0.001, 2))
	h := a.Handler()

	for i := 0; i < 2; i++ {
		rec, _ := do(t, h, http.MethodPost, "/login", loginRequest{"a", "b"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, out := do(t, h, http.MethodPost, "/login", loginRequest{"a", "b"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many requests, please try again later.", out["message"])
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// signup is not limited
	users.signupUser = &models.User{Username: "a", Email: "b"}
	rec, _ = do(t, h, http.MethodPost, "/signup", signupRequest{"a", "b", "c"})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	users := &fakeUsers{loginRes: &services.LoginResult{Token: "t", ExpiresIn: time.Hour}}
	a := New(users, &fakeLogs{}, WithRateLimit(0, 0))
	h := a.Handler()

	for i := 0; i < 50; i++ {
		rec, _ := do(t, h, http.MethodPost, "/login", loginRequest{"a", "b"})
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	a := New(&fakeUsers{}, &fakeLogs{}, WithCORSOrigins([]string{"http://ui.test"}))
	h := a.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://ui.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://ui.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
