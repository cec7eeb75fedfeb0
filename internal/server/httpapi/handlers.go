package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/trackmeta/internal/server/models"
)

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// Signup registers a new account.
func (a *API) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}

	user, err := a.users.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	a.logger.Info(r.Context(), "user created", "username", user.Username)
	writeJSON(w, http.StatusCreated, signupResponse{
		Message: "User created successfully!",
		User:    signupUser{Username: user.Username, Email: user.Email},
	})
}

// Login verifies credentials and returns a bearer token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}

	res, err := a.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Message:   "Login successful",
		Token:     res.Token,
		ExpiresIn: int64(res.ExpiresIn.Seconds()),
	})
}

// RefreshToken reissues a valid token with the refresh lifetime.
func (a *API) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}

	res, err := a.users.RefreshToken(r.Context(), req.Token)
	if err != nil {
		a.mapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		NewToken:  res.Token,
		NewExpiry: res.ExpiresAt.UTC().Format(http.TimeFormat),
	})
}

// Log accepts a client log record.
func (a *API) Log(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.mapError(w, r, err)
		return
	}

	entry := &models.ClientLog{
		Level:     req.Level,
		Message:   req.Message,
		SessionID: req.SessionID,
		Timestamp: req.Timestamp,
	}
	if err := a.logs.Record(r.Context(), entry); err != nil {
		a.mapError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Log received"})
}
