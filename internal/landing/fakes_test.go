package landing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"landingsvc/internal/domain"
)

type completerFunc func(ctx context.Context, req domain.CompletionRequest) (string, error)

func (f completerFunc) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	return f(ctx, req)
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	history  map[string][]domain.SessionStatus
	failErr  error
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[string]*domain.Session{}, history: map[string][]domain.SessionStatus{}}
}

func (m *memSessions) Create(ctx context.Context, req domain.GenerationRequest) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[req.SessionID]; ok {
		cp := *s
		return &cp, nil
	}
	now := time.Now()
	s := &domain.Session{SessionID: req.SessionID, Status: domain.SessionPending, Payload: req, CreatedAt: now, UpdatedAt: now}
	m.sessions[req.SessionID] = s
	m.history[req.SessionID] = []domain.SessionStatus{domain.SessionPending}
	cp := *s
	return &cp, nil
}

func (m *memSessions) transition(id string, to domain.SessionStatus, apply func(*domain.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !domain.CanTransition(s.Status, to) {
		return fmt.Errorf("%s -> %s: %w", s.Status, to, domain.ErrInvalidTransition)
	}
	s.Status = to
	apply(s)
	m.history[id] = append(m.history[id], to)
	return nil
}

func (m *memSessions) MarkProcessing(ctx context.Context, id string) error {
	return m.transition(id, domain.SessionProcessing, func(s *domain.Session) {
		s.Result = nil
		s.ErrorMessage = nil
	})
}

func (m *memSessions) Complete(ctx context.Context, id string, result domain.Result) error {
	return m.transition(id, domain.SessionCompleted, func(s *domain.Session) {
		r := result
		s.Result = &r
		s.ErrorMessage = nil
	})
}

func (m *memSessions) Fail(ctx context.Context, id, msg string) error {
	if m.failErr != nil {
		return m.failErr
	}
	return m.transition(id, domain.SessionFailed, func(s *domain.Session) {
		s.ErrorMessage = &msg
		s.Result = nil
	})
}

func (m *memSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) Ping(ctx context.Context) error { return nil }

type memArtifacts struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{objects: map[string][]byte{}}
}

func (m *memArtifacts) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if m.putErr != nil {
		return "", domain.ArtifactError("put", m.putErr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return "http://static.test/" + key, nil
}

func (m *memArtifacts) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ArtifactError("get", domain.ErrNotFound)
	}
	return data, nil
}

func (m *memArtifacts) Ping(ctx context.Context) error { return nil }

type memQueue struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
	err  error
}

func newMemQueue() *memQueue {
	return &memQueue{jobs: map[string]domain.Job{}}
}

func (q *memQueue) Enqueue(ctx context.Context, job domain.Job) (domain.JobStatus, error) {
	if q.err != nil {
		return domain.JobStatus{}, q.err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[job.ID]; !ok {
		q.jobs[job.ID] = job
	}
	return domain.JobStatus{ID: job.ID, State: domain.JobWaiting}, nil
}

func (q *memQueue) Claim(ctx context.Context) (*domain.Job, error) { return nil, nil }

func (q *memQueue) Complete(ctx context.Context, job *domain.Job) error { return nil }

func (q *memQueue) Fail(ctx context.Context, job *domain.Job, cause error) (domain.JobStatus, error) {
	return domain.JobStatus{}, nil
}

func (q *memQueue) Status(ctx context.Context, id string) (domain.JobStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.jobs[id]; !ok {
		return domain.JobStatus{}, domain.ErrNotFound
	}
	return domain.JobStatus{ID: id, State: domain.JobWaiting}, nil
}

func (q *memQueue) Ping(ctx context.Context) error { return nil }

func (q *memQueue) Close() error { return nil }
