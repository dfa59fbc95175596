package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"landingsvc/internal/domain"
)

// EventGenerationRequested asks for a landing page to be generated.
const EventGenerationRequested = "generation.requested"

type webhookEvent struct {
	Type string           `json:"type"`
	ID   string           `json:"id"`
	Data webhookEventData `json:"data"`
}

type webhookEventData struct {
	SessionID string `json:"session_id"`
	Brief     string `json:"brief"`
	PageType  string `json:"page_type"`
	Model     string `json:"model"`
	Locale    string `json:"locale"`
}

// Webhook acknowledges a signed event and handles it after responding. The
// signature is verified by middleware.WebhookSignature.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "unable to read body")
		return
	}
	var evt webhookEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid event payload")
		return
	}
	a.json(w, http.StatusOK, map[string]bool{"received": true})

	ctx := context.WithoutCancel(r.Context())
	a.async(func() { a.handleEvent(ctx, evt) })
}

func (a *App) handleEvent(ctx context.Context, evt webhookEvent) {
	log := a.Logger.With().Str("event_id", evt.ID).Str("event_type", evt.Type).Logger()
	if evt.Type != EventGenerationRequested {
		log.Info().Msg("webhook event ignored")
		return
	}
	req := domain.GenerationRequest{
		SessionID: evt.Data.SessionID,
		Brief:     evt.Data.Brief,
		PageType:  evt.Data.PageType,
		Model:     evt.Data.Model,
		Locale:    evt.Data.Locale,
	}
	sess, _, err := a.Service.Submit(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("webhook submit failed")
		return
	}
	log.Info().Str("session_id", sess.SessionID).Msg("webhook generation queued")
}
