package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"landingsvc/internal/http/handlers"
	"landingsvc/internal/middleware"
)

// RouterOptions carries the cross-cutting settings of the public API.
type RouterOptions struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	RateLimit      int
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/health", app.Health)
	r.Get("/health/ready", app.Ready)
	r.Get("/health/detailed", app.Detailed)
	r.Method(http.MethodGet, "/metrics", app.MetricsHandler())
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Head("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)
	r.Handle("/static/*", app.Static())

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.RateLimit(opts.RateLimit, time.Minute),
			middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		)
		r.Post("/generate", app.Generate)
		r.Post("/api/generate", app.Generate)

		r.Group(func(r chi.Router) {
			r.Use(app.Auth.Require(app.Unauthorized))
			r.Get("/status/{sessionId}", app.Status)
			r.Get("/api/status/{sessionId}", app.Status)
			r.Get("/export", app.Export)
			r.Get("/api/export", app.Export)
		})
	})

	return r
}

// NewWebhookRouter serves the signed webhook receiver.
func NewWebhookRouter(app *handlers.App, secret string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(logger),
	)
	r.Get("/health", app.Health)
	r.With(middleware.WebhookSignature(secret, 0)).Post("/webhooks/generate", app.Webhook)
	return r
}
