package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/trackmeta/internal/common"
	"github.com/dmitrijs2005/trackmeta/internal/server/services"
)

const (
	msgMissingFields    = "All fields are required"
	msgDuplicateAccount = "Email or username is already registered"
	msgMissingLogin     = "Username and password are required"
	msgBadCredentials   = "Invalid username or password"
	msgTokenRequired    = "Refresh token required"
	msgInvalidRefresh   = "Invalid refresh token"
	msgInvalidLogLevel  = "Invalid log level"
	msgInvalidLogEntry  = "Level, message, sessionId and timestamp are required"
	msgBadBody          = "Invalid request body"
	msgTooManyRequests  = "Too many requests, please try again later."
	msgInternal         = "Internal server error"
)

var errBadBody = errors.New("malformed request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// mapError writes the status and user-safe message for err. Anything that is
// not a known domain error is logged and reported as 500.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, msgBadBody)
	case errors.Is(err, common.ErrMissingFields):
		writeError(w, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, common.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, services.PasswordPolicy)
	case errors.Is(err, common.ErrMissingLogin):
		writeError(w, http.StatusBadRequest, msgMissingLogin)
	case errors.Is(err, common.ErrInvalidLogLevel):
		writeError(w, http.StatusBadRequest, msgInvalidLogLevel)
	case errors.Is(err, common.ErrInvalidLogEntry):
		writeError(w, http.StatusBadRequest, msgInvalidLogEntry)
	case errors.Is(err, common.ErrUsernameTaken):
		writeError(w, http.StatusBadRequest, a.dupeUserMessage)
	case errors.Is(err, common.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, a.dupeEmailMessage)
	case errors.Is(err, common.ErrConflict):
		writeError(w, http.StatusBadRequest, msgDuplicateAccount)
	case errors.Is(err, common.ErrUserNotFound):
		writeError(w, http.StatusNotFound, msgBadCredentials)
	case errors.Is(err, common.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, msgBadCredentials)
	case errors.Is(err, common.ErrTokenRequired):
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusForbidden, msgInvalidRefresh)
	case errors.Is(err, common.ErrValidation):
		writeError(w, http.StatusBadRequest, msgBadBody)
	default:
		a.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
