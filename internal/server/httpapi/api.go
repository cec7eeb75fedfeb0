// Package httpapi exposes the auth server's REST endpoints:
// POST /signup, /login, /refresh-token and /log, plus GET /health.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/trackmeta/internal/logging"
	"github.com/dmitrijs2005/trackmeta/internal/server/models"
	"github.com/dmitrijs2005/trackmeta/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// UserService is the account logic behind /signup, /login and /refresh-token.
type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.LoginResult, error)
	RefreshToken(ctx context.Context, token string) (*services.RefreshResult, error)
}

// ClientLogRecorder stores records received on /log.
type ClientLogRecorder interface {
	Record(ctx context.Context, entry *models.ClientLog) error
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	users   UserService
	logs    ClientLogRecorder
	logger  logging.Logger
	limiter *ipRateLimiter

	dupeUserMessage  string
	dupeEmailMessage string
	corsOrigins      []string
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the logger used for request and error logging.
func WithLogger(l logging.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithDuplicateMessages overrides the duplicate username and email messages.
// Empty values keep the defaults.
func WithDuplicateMessages(user, email string) Option {
	return func(a *API) {
		if user != "" {
			a.dupeUserMessage = user
		}
		if email != "" {
			a.dupeEmailMessage = email
		}
	}
}

// WithRateLimit limits /login and /log to rps requests per second per client
// address with the given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(a *API) {
		if rps <= 0 {
			a.limiter = nil
			return
		}
		a.limiter = newIPRateLimiter(rps, burst)
	}
}

// WithCORSOrigins sets the allowed CORS origins. "*" allows any origin.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = origins }
}

// New creates a new API instance.
func New(users UserService, logs ClientLogRecorder, opts ...Option) *API {
	a := &API{
		users:            users,
		logs:             logs,
		logger:           logging.NewDiscardLogger(),
		limiter:          newIPRateLimiter(5, 10),
		dupeUserMessage:  "Username is already taken",
		dupeEmailMessage: "Email is already registered",
		corsOrigins:      []string{"*"},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(a.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", a.Health)

	r.Post("/signup", a.Signup)
	r.With(a.rateLimit).Post("/login", a.Login)
	r.Post("/refresh-token", a.RefreshToken)
	r.With(a.rateLimit).Post("/log", a.Log)

	return r
}

// Handler returns the router wrapped with CORS handling.
func (a *API) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: a.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(a.Router())
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		a.logger.Info(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
