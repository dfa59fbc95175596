package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"landingsvc/internal/domain"
	"landingsvc/internal/infra"
	"landingsvc/internal/sqlinline"
)

// SessionRepositoryPG implements domain.SessionStore backed by PostgreSQL.
// Transitions are guarded in the UPDATE statements themselves so concurrent
// writers for the same session cannot move it backwards.
type SessionRepositoryPG struct {
	sql  infra.SQLExecutor
	ping func(context.Context) error
}

// NewSessionRepository creates a SessionRepositoryPG. ping backs Ping and may
// be nil, in which case a marked SELECT 1 is issued.
func NewSessionRepository(sql infra.SQLExecutor, ping func(context.Context) error) *SessionRepositoryPG {
	return &SessionRepositoryPG{sql: sql, ping: ping}
}

// Create inserts a pending session. Re-submitting an existing id returns the
// stored session untouched.
func (r *SessionRepositoryPG) Create(ctx context.Context, req domain.GenerationRequest) (*domain.Session, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, domain.SessionError("create", err)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QCreateSession, req.SessionID, payload)
	sess, err := scanSession(row)
	if err != nil {
		return nil, domain.SessionError("create", err)
	}
	return sess, nil
}

func (r *SessionRepositoryPG) MarkProcessing(ctx context.Context, sessionID string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QMarkSessionProcessing, sessionID)
	if err != nil {
		return domain.SessionError("mark_processing", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.SessionError("mark_processing", fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound))
	}
	return nil
}

func (r *SessionRepositoryPG) Complete(ctx context.Context, sessionID string, result domain.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return domain.SessionError("complete", err)
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QCompleteSession, sessionID, raw)
	if err != nil {
		return domain.SessionError("complete", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainNoop(ctx, "complete", sessionID, domain.SessionCompleted)
	}
	return nil
}

func (r *SessionRepositoryPG) Fail(ctx context.Context, sessionID, message string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QFailSession, sessionID, message)
	if err != nil {
		return domain.SessionError("fail", err)
	}
	if tag.RowsAffected() == 0 {
		return r.explainNoop(ctx, "fail", sessionID, domain.SessionFailed)
	}
	return nil
}

func (r *SessionRepositoryPG) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := scanSession(r.sql.QueryRow(ctx, sqlinline.QSelectSession, sessionID))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
		}
		return nil, domain.SessionError("get", err)
	}
	return sess, nil
}

func (r *SessionRepositoryPG) Ping(ctx context.Context) error {
	if r.ping != nil {
		return r.ping(ctx)
	}
	var one int
	return r.sql.QueryRow(ctx, sqlinline.QPing).Scan(&one)
}

// explainNoop distinguishes a missing session from a rejected transition
// after a guarded UPDATE matched no row.
func (r *SessionRepositoryPG) explainNoop(ctx context.Context, op, sessionID string, to domain.SessionStatus) error {
	sess, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return fmt.Errorf("session %s %s -> %s: %w", sessionID, sess.Status, to, domain.ErrInvalidTransition)
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		sess      domain.Session
		status    string
		payload   []byte
		result    []byte
		errMsg    *string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&sess.SessionID, &status, &payload, &result, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	sess.Status = domain.SessionStatus(status)
	sess.CreatedAt = createdAt
	sess.UpdatedAt = updatedAt
	sess.ErrorMessage = errMsg
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &sess.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	if len(result) > 0 && string(result) != "null" {
		var res domain.Result
		if err := json.Unmarshal(result, &res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		sess.Result = &res
	}
	return &sess, nil
}

var _ domain.SessionStore = (*SessionRepositoryPG)(nil)
