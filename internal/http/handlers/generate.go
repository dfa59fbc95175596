package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"landingsvc/internal/domain"
	"landingsvc/internal/middleware"
)

const maxRequestBody = 1 << 20

type generateRequest struct {
	Brief     string `json:"brief"`
	PageType  string `json:"page_type"`
	Model     string `json:"model"`
	Locale    string `json:"locale"`
	Async     bool   `json:"async"`
	SessionID string `json:"session_id"`
	Token     string `json:"token"`
}

type generateResponse struct {
	SessionID string                `json:"session_id"`
	Status    domain.SessionStatus  `json:"status"`
	Content   domain.LandingContent `json:"content"`
	URLs      domain.ArtifactURLs   `json:"urls"`
}

type queuedResponse struct {
	SessionIDCamel string          `json:"sessionId"`
	SessionID      string          `json:"session_id"`
	Status         string          `json:"status"`
	Job            domain.JobState `json:"job_state,omitempty"`
}

// Generate serves POST /generate. Synchronous calls return the content;
// async calls return 202 once the job is queued.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&body); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	subject, err := a.Auth.Authorize(middleware.TokenFromRequest(r, body.Token))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	locale := body.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	req := domain.GenerationRequest{
		SessionID: body.SessionID,
		Brief:     body.Brief,
		PageType:  body.PageType,
		Model:     body.Model,
		Locale:    locale,
	}
	log := a.Logger.With().Str("subject", subject).Str("request_id", middleware.RequestIDFromContext(r.Context())).Logger()

	if body.Async {
		if !a.Service.QueueEnabled() {
			a.fail(w, r, fmt.Errorf("%w: async generation is not available", domain.ErrQueue))
			return
		}
		sess, status, err := a.Service.Submit(r.Context(), req)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		log.Info().Str("session_id", sess.SessionID).Msg("generation queued")
		a.json(w, http.StatusAccepted, queuedResponse{
			SessionIDCamel: sess.SessionID,
			SessionID:      sess.SessionID,
			Status:         "queued",
			Job:            status.State,
		})
		return
	}

	// The pipeline outlives a client disconnect so the session still settles.
	sess, result, err := a.Service.GenerateSync(context.WithoutCancel(r.Context()), req)
	if err != nil {
		if sess != nil {
			log.Warn().Err(err).Str("session_id", sess.SessionID).Msg("generation failed")
		}
		a.fail(w, r, err)
		return
	}
	log.Info().Str("session_id", sess.SessionID).Msg("generation completed")
	a.json(w, http.StatusOK, generateResponse{
		SessionID: sess.SessionID,
		Status:    domain.SessionCompleted,
		Content:   result.Content,
		URLs:      result.URLs,
	})
}
