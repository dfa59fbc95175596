package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"landingsvc/internal/domain"
)

// MemorySessionStore keeps sessions in process memory. It is used when no
// database is configured and by tests.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*domain.Session), now: time.Now}
}

func (m *MemorySessionStore) Create(ctx context.Context, req domain.GenerationRequest) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[req.SessionID]; ok {
		return cloneSession(existing), nil
	}
	now := m.now().UTC()
	sess := &domain.Session{
		SessionID: req.SessionID,
		Status:    domain.SessionPending,
		Payload:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.sessions[req.SessionID] = sess
	return cloneSession(sess), nil
}

func (m *MemorySessionStore) MarkProcessing(ctx context.Context, sessionID string) error {
	return m.transition(sessionID, domain.SessionProcessing, func(s *domain.Session) {
		s.Result = nil
		s.ErrorMessage = nil
	})
}

func (m *MemorySessionStore) Complete(ctx context.Context, sessionID string, result domain.Result) error {
	return m.transition(sessionID, domain.SessionCompleted, func(s *domain.Session) {
		res := result
		s.Result = &res
		s.ErrorMessage = nil
	})
}

func (m *MemorySessionStore) Fail(ctx context.Context, sessionID, message string) error {
	return m.transition(sessionID, domain.SessionFailed, func(s *domain.Session) {
		msg := message
		s.ErrorMessage = &msg
		s.Result = nil
	})
}

func (m *MemorySessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return cloneSession(sess), nil
}

func (m *MemorySessionStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemorySessionStore) transition(sessionID string, to domain.SessionStatus, apply func(*domain.Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	if !domain.CanTransition(sess.Status, to) {
		return fmt.Errorf("session %s %s -> %s: %w", sessionID, sess.Status, to, domain.ErrInvalidTransition)
	}
	sess.Status = to
	sess.UpdatedAt = m.now().UTC()
	apply(sess)
	return nil
}

func cloneSession(s *domain.Session) *domain.Session {
	cp := *s
	if s.Result != nil {
		res := *s.Result
		cp.Result = &res
	}
	if s.ErrorMessage != nil {
		msg := *s.ErrorMessage
		cp.ErrorMessage = &msg
	}
	return &cp
}

var _ domain.SessionStore = (*MemorySessionStore)(nil)
