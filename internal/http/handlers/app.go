package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"landingsvc/internal/domain"
	"landingsvc/internal/landing"
	"landingsvc/internal/middleware"
	"landingsvc/internal/observability"
)

// HealthCheck is a named dependency check used by the readiness endpoints.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Options wires an App.
type Options struct {
	Service   *landing.Service
	Auth      *middleware.Authorizer
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
	Checks    []HealthCheck
	StaticDir string
	// Async runs webhook event handling after the response is written.
	// Defaults to a new goroutine.
	Async func(func())
}

type App struct {
	Service   *landing.Service
	Auth      *middleware.Authorizer
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
	Checks    []HealthCheck
	StaticDir string

	async       func(func())
	pingTimeout time.Duration
}

func NewApp(opts Options) *App {
	async := opts.Async
	if async == nil {
		async = func(fn func()) { go fn() }
	}
	return &App{
		Service:     opts.Service,
		Auth:        opts.Auth,
		Metrics:     opts.Metrics,
		Logger:      opts.Logger.With().Str("component", "http").Logger(),
		Checks:      opts.Checks,
		StaticDir:   opts.StaticDir,
		async:       async,
		pingTimeout: 2 * time.Second,
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorBody{Error: errorDetail{Code: errCode, Message: message}})
}

// fail maps err onto the HTTP error contract and logs server-side failures.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := statusForError(err)
	message := err.Error()
	if code >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).
			Int("status", code).
			Msg("request failed")
		if code == http.StatusInternalServerError {
			message = "internal error"
		}
	}
	a.error(w, code, errCode, message)
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrProviderTimeout):
		return http.StatusGatewayTimeout, "provider_timeout"
	case errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway, "provider_error"
	case errors.Is(err, domain.ErrMalformedOutput):
		return http.StatusBadGateway, "malformed_output"
	case errors.Is(err, domain.ErrQueue):
		return http.StatusServiceUnavailable, "queue_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// Unauthorized renders an authorization failure from middleware.
func (a *App) Unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	a.fail(w, r, err)
}
