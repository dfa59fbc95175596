package landing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"landingsvc/internal/domain"
	"landingsvc/internal/observability"
	"landingsvc/internal/storage"
)

// Stage names a step of a pipeline run.
type Stage string

const (
	StageReceived   Stage = "received"
	StageGenerating Stage = "generating"
	StageRendering  Stage = "rendering"
	StageStoring    Stage = "storing"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

const defaultProviderTimeout = 60 * time.Second

// PipelineOptions wires the collaborators of a Pipeline.
type PipelineOptions struct {
	Completer       domain.Completer
	Artifacts       domain.ArtifactStore
	Sessions        domain.SessionStore
	Metrics         *observability.Metrics
	Logger          zerolog.Logger
	ProviderName    string
	ProviderTimeout time.Duration
}

// Pipeline turns a brief into stored landing artifacts. It is shared by the
// synchronous handler and the queue worker and never retries on its own.
type Pipeline struct {
	completer       domain.Completer
	artifacts       domain.ArtifactStore
	sessions        domain.SessionStore
	metrics         *observability.Metrics
	logger          zerolog.Logger
	providerName    string
	providerTimeout time.Duration
	now             func() time.Time
}

func NewPipeline(opts PipelineOptions) (*Pipeline, error) {
	switch {
	case opts.Completer == nil:
		return nil, errors.New("pipeline: completer is required")
	case opts.Artifacts == nil:
		return nil, errors.New("pipeline: artifact store is required")
	case opts.Sessions == nil:
		return nil, errors.New("pipeline: session store is required")
	}
	timeout := opts.ProviderTimeout
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	name := opts.ProviderName
	if name == "" {
		name = "llm"
	}
	return &Pipeline{
		completer:       opts.Completer,
		artifacts:       opts.Artifacts,
		sessions:        opts.Sessions,
		metrics:         opts.Metrics,
		logger:          opts.Logger.With().Str("component", "pipeline").Logger(),
		providerName:    name,
		providerTimeout: timeout,
		now:             time.Now,
	}, nil
}

// Run executes one pass for an existing session. On any stage failure the
// session is marked failed with the error message and the error is returned
// so a queue can apply its retry policy. Running twice for the same session
// overwrites the earlier outcome.
func (p *Pipeline) Run(ctx context.Context, req domain.GenerationRequest) (*domain.Result, error) {
	log := p.logger.With().Str("session_id", req.SessionID).Logger()
	log.Info().Str("stage", string(StageReceived)).Str("model", req.Model).Msg("pipeline: run started")

	if err := p.sessions.MarkProcessing(ctx, req.SessionID); err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	stage := StageGenerating
	start := p.now()
	prompt := BuildPrompt(req.Brief, req.PageType, req.Locale)
	raw, err := p.complete(ctx, req.Model, prompt)
	p.observe(stage, start)
	if err != nil {
		p.countProviderError(err)
		return nil, p.fail(ctx, log, req.SessionID, stage, err)
	}

	stage = StageRendering
	start = p.now()
	parsed, err := ParseResponse(raw)
	if err != nil {
		p.observe(stage, start)
		return nil, p.fail(ctx, log, req.SessionID, stage, err)
	}
	log.Debug().Str("strategy", string(parsed.Strategy)).Msg("pipeline: model output parsed")
	page := Render(parsed.Content, RenderOptions{Locale: req.Locale})
	p.observe(stage, start)

	stage = StageStoring
	start = p.now()
	result, err := p.store(ctx, req.SessionID, parsed.Content, page)
	if err == nil {
		err = p.sessions.Complete(ctx, req.SessionID, *result)
	}
	p.observe(stage, start)
	if err != nil {
		return nil, p.fail(ctx, log, req.SessionID, stage, err)
	}

	log.Info().Str("stage", string(StageDone)).Str("html_url", result.URLs.HTML).Msg("pipeline: run completed")
	return result, nil
}

func (p *Pipeline) complete(ctx context.Context, model string, prompt Prompt) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.providerTimeout)
	defer cancel()
	raw, err := p.completer.Complete(callCtx, domain.CompletionRequest{
		Model:  model,
		System: prompt.System,
		User:   prompt.User,
	})
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, domain.ErrProviderTimeout) {
		err = fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}
	return raw, err
}

func (p *Pipeline) store(ctx context.Context, sessionID string, content domain.LandingContent, page string) (*domain.Result, error) {
	body, err := content.MarshalIndent()
	if err != nil {
		return nil, domain.ArtifactError("encode", err)
	}
	jsonURL, err := p.artifacts.Put(ctx, storage.SessionJSONKey(sessionID), "application/json", body)
	if err != nil {
		return nil, err
	}
	htmlURL, err := p.artifacts.Put(ctx, storage.SessionHTMLKey(sessionID), "text/html; charset=utf-8", []byte(page))
	if err != nil {
		return nil, err
	}
	return &domain.Result{
		Content: content,
		URLs:    domain.ArtifactURLs{JSON: jsonURL, HTML: htmlURL},
	}, nil
}

// fail records the failure on the session even if ctx was cancelled.
func (p *Pipeline) fail(ctx context.Context, log zerolog.Logger, sessionID string, stage Stage, cause error) error {
	log.Error().Err(cause).Str("stage", string(stage)).Msg("pipeline: run failed")
	if err := p.sessions.Fail(context.WithoutCancel(ctx), sessionID, cause.Error()); err != nil {
		log.Error().Err(err).Msg("pipeline: record failure")
		return errors.Join(cause, err)
	}
	return cause
}

func (p *Pipeline) observe(stage Stage, start time.Time) {
	p.metrics.ObserveStage(string(stage), p.now().Sub(start))
}

func (p *Pipeline) countProviderError(err error) {
	kind := "transport"
	var perr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrProviderTimeout):
		kind = "timeout"
	case errors.As(err, &perr) && perr.StatusCode != 0:
		kind = strconv.Itoa(perr.StatusCode)
	}
	p.metrics.CountProviderError(p.providerName, kind)
}
