package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"landingsvc/internal/domain"
	"landingsvc/pkg/zip"
)

type statusResponse struct {
	*domain.Session
	Job *domain.JobStatus `json:"job,omitempty"`
}

// Status serves GET /status/{sessionId}.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "sessionId required")
		return
	}
	view, err := a.Service.Status(r.Context(), sessionID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, statusResponse{Session: view.Session, Job: view.Job})
}

// Export serves GET /export?sessionId= as a zip with landing.html and
// landing.json.
func (a *App) Export(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("sessionId"))
	if sessionID == "" {
		sessionID = strings.TrimSpace(q.Get("session_id"))
	}
	if sessionID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "sessionId required")
		return
	}
	export, err := a.Service.Export(r.Context(), sessionID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	archive, err := zip.Archive([]zip.Entry{
		{Filename: "landing.html", Data: export.HTML},
		{Filename: "landing.json", Data: export.JSON},
	}, time.Now().UTC())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=landing-%s.zip", safeFilename(sessionID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
