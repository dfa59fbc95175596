package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"landingsvc/internal/adapter/repo"
	"landingsvc/internal/domain"
	"landingsvc/internal/http/handlers"
	"landingsvc/internal/landing"
	"landingsvc/internal/middleware"
	"landingsvc/internal/providers/llm"
	"landingsvc/internal/storage"
)

func newTestApp(t *testing.T, auth *middleware.Authorizer) *handlers.App {
	t.Helper()
	sessions := repo.NewMemorySessionStore()
	files, err := storage.NewFileStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	pipeline, err := landing.NewPipeline(landing.PipelineOptions{
		Completer:       llm.NewStaticCompleter(),
		Artifacts:       files,
		Sessions:        sessions,
		Logger:          zerolog.Nop(),
		ProviderTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	svc, err := landing.NewService(landing.ServiceOptions{Pipeline: pipeline, Sessions: sessions, Artifacts: files, Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return handlers.NewApp(handlers.Options{
		Service:   svc,
		Auth:      auth,
		Logger:    zerolog.Nop(),
		StaticDir: files.BasePath(),
		Checks:    []handlers.HealthCheck{{Name: "sessions", Ping: sessions.Ping}},
		Async:     func(fn func()) { fn() },
	})
}

func TestRouterRoutes(t *testing.T) {
	app := newTestApp(t, middleware.NewAuthorizer("tok", ""))
	h := NewRouter(app, RouterOptions{Logger: zerolog.Nop(), AllowedOrigins: []string{"*"}, RateLimit: 100})

	for path, id := range map[string]string{"/generate": "r-g", "/api/generate": "r-a"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"brief":"bakery","token":"tok","session_id":"`+id+`"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("POST %s = %d (%s)", path, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("POST %s missing request id", path)
		}
	}

	tests := []struct {
		path string
		want int
	}{
		{"/status/r-g", http.StatusUnauthorized},
		{"/status/r-g?token=tok", http.StatusOK},
		{"/api/status/r-a?token=tok", http.StatusOK},
		{"/status/unknown?token=tok", http.StatusNotFound},
		{"/export?sessionId=r-g&token=tok", http.StatusOK},
		{"/health", http.StatusOK},
		{"/health/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/openapi.json", http.StatusOK},
		{"/static/sessions/r-g/landing.json", http.StatusOK},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.want {
			t.Fatalf("GET %s = %d, want %d", tc.path, rec.Code, tc.want)
		}
	}
}

func TestWebhookRouterRequiresSignature(t *testing.T) {
	app := newTestApp(t, nil)
	h := NewWebhookRouter(app, "hook-secret", zerolog.Nop())
	body := `{"type":"other.event","id":"evt-9"}`

	req := httptest.NewRequest(http.MethodPost, "/webhooks/generate", strings.NewReader(body))
	req.Header.Set(middleware.SignatureHeader, "sha256=deadbeef")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/generate", strings.NewReader(body))
	req.Header.Set(middleware.SignatureHeader, middleware.SignPayload("hook-secret", []byte(body)))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("signed status = %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestStaticCompleterProducesParsableContent(t *testing.T) {
	raw, err := llm.NewStaticCompleter().Complete(context.Background(), domain.CompletionRequest{User: landing.BuildPrompt("bakery", "landing", "").User})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if _, err := landing.ParseResponse(raw); err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
}
