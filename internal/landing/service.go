package landing

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"landingsvc/internal/domain"
	"landingsvc/internal/observability"
	"landingsvc/internal/storage"
)

const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// ServiceOptions wires a Service.
type ServiceOptions struct {
	Pipeline  *Pipeline
	Sessions  domain.SessionStore
	Artifacts domain.ArtifactStore
	Queue     domain.Queue
	Defaults  domain.RequestDefaults
	Metrics   *observability.Metrics
	Logger    zerolog.Logger
}

// Service exposes the entry points used by the HTTP handlers, the webhook
// receiver and the worker.
type Service struct {
	pipeline  *Pipeline
	sessions  domain.SessionStore
	artifacts domain.ArtifactStore
	queue     domain.Queue
	defaults  domain.RequestDefaults
	metrics   *observability.Metrics
	logger    zerolog.Logger
}

func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Pipeline == nil {
		return nil, errors.New("service: pipeline is required")
	}
	if opts.Sessions == nil {
		return nil, errors.New("service: session store is required")
	}
	return &Service{
		pipeline:  opts.Pipeline,
		sessions:  opts.Sessions,
		artifacts: opts.Artifacts,
		queue:     opts.Queue,
		defaults:  opts.Defaults,
		metrics:   opts.Metrics,
		logger:    opts.Logger.With().Str("component", "landing").Logger(),
	}, nil
}

// Prepare normalizes and validates a request without touching any store.
func (s *Service) Prepare(req domain.GenerationRequest) (domain.GenerationRequest, error) {
	req.Normalize(s.defaults)
	if err := req.Validate(); err != nil {
		return req, err
	}
	return req, nil
}

// QueueEnabled reports whether asynchronous submission is available.
func (s *Service) QueueEnabled() bool {
	return s.queue != nil
}

// GenerateSync records the session and runs the pipeline inline.
func (s *Service) GenerateSync(ctx context.Context, req domain.GenerationRequest) (*domain.Session, *domain.Result, error) {
	req, err := s.Prepare(req)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.sessions.Create(ctx, req)
	if err != nil {
		s.metrics.CountGeneration(ModeSync, "error")
		return nil, nil, err
	}
	result, err := s.pipeline.Run(ctx, sess.Payload)
	if err != nil {
		s.metrics.CountGeneration(ModeSync, "failed")
		return sess, nil, err
	}
	s.metrics.CountGeneration(ModeSync, "completed")
	return sess, result, nil
}

// Submit creates a pending session and enqueues it. When the id was already
// submitted the existing session and job are returned.
func (s *Service) Submit(ctx context.Context, req domain.GenerationRequest) (*domain.Session, domain.JobStatus, error) {
	req, err := s.Prepare(req)
	if err != nil {
		return nil, domain.JobStatus{}, err
	}
	if s.queue == nil {
		return nil, domain.JobStatus{}, fmt.Errorf("%w: no queue configured", domain.ErrQueue)
	}
	sess, err := s.sessions.Create(ctx, req)
	if err != nil {
		return nil, domain.JobStatus{}, err
	}
	status, err := s.queue.Enqueue(ctx, domain.Job{ID: sess.SessionID, Request: sess.Payload})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sess.SessionID).Msg("landing: enqueue failed")
		return sess, domain.JobStatus{}, err
	}
	s.metrics.CountQueueEvent("enqueued")
	s.logger.Info().Str("session_id", sess.SessionID).Str("state", string(status.State)).Msg("landing: job queued")
	return sess, status, nil
}

// Process runs a queued job. The session is created when missing so jobs
// enqueued by other producers are still tracked.
func (s *Service) Process(ctx context.Context, job *domain.Job) error {
	req := job.Request
	if req.SessionID == "" {
		req.SessionID = job.ID
	}
	req, err := s.Prepare(req)
	if err != nil {
		s.metrics.CountGeneration(ModeAsync, "invalid")
		return err
	}
	if _, err := s.sessions.Create(ctx, req); err != nil {
		s.metrics.CountGeneration(ModeAsync, "error")
		return err
	}
	if _, err := s.pipeline.Run(ctx, req); err != nil {
		s.metrics.CountGeneration(ModeAsync, "failed")
		return err
	}
	s.metrics.CountGeneration(ModeAsync, "completed")
	return nil
}

// StatusView is a session plus the queue-side state of its job, if any.
type StatusView struct {
	Session *domain.Session
	Job     *domain.JobStatus
}

func (s *Service) Status(ctx context.Context, sessionID string) (*StatusView, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := &StatusView{Session: sess}
	if s.queue != nil {
		job, err := s.queue.Status(ctx, sessionID)
		switch {
		case err == nil:
			view.Job = &job
		case errors.Is(err, domain.ErrNotFound):
		default:
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("landing: queue status unavailable")
		}
	}
	return view, nil
}

// Export holds the artifact bodies of a completed session.
type Export struct {
	HTML []byte
	JSON []byte
}

// Export loads the stored artifacts of a completed session, re-rendering
// from the recorded result when a blob is no longer available.
func (s *Service) Export(ctx context.Context, sessionID string) (*Export, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != domain.SessionCompleted || sess.Result == nil {
		return nil, fmt.Errorf("session %s has no stored result: %w", sessionID, domain.ErrNotFound)
	}
	out := &Export{}
	if s.artifacts != nil {
		if data, err := s.artifacts.Get(ctx, storage.SessionHTMLKey(sessionID)); err == nil {
			out.HTML = data
		} else {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("landing: html artifact unavailable, re-rendering")
		}
		if data, err := s.artifacts.Get(ctx, storage.SessionJSONKey(sessionID)); err == nil {
			out.JSON = data
		} else {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("landing: json artifact unavailable, re-encoding")
		}
	}
	if out.HTML == nil {
		out.HTML = []byte(Render(sess.Result.Content, RenderOptions{Locale: sess.Payload.Locale}))
	}
	if out.JSON == nil {
		data, err := sess.Result.Content.MarshalIndent()
		if err != nil {
			return nil, err
		}
		out.JSON = data
	}
	return out, nil
}
