package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"landingsvc/internal/domain"
	"landingsvc/internal/infra"
	"landingsvc/internal/sqlinline"
)

// PostgresQueue stores jobs in landing_jobs and claims them with
// FOR UPDATE SKIP LOCKED so several workers can poll concurrently.
type PostgresQueue struct {
	sql   infra.SQLExecutor
	opts  Options
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	ping  func(context.Context) error
}

func NewPostgresQueue(sql infra.SQLExecutor, ping func(context.Context) error, opts Options) *PostgresQueue {
	return &PostgresQueue{sql: sql, opts: opts.withDefaults(), now: time.Now, sleep: sleepCtx, ping: ping}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, job domain.Job) (domain.JobStatus, error) {
	payload, err := json.Marshal(job.Request)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: encode job: %v", domain.ErrQueue, err)
	}
	if _, err := q.sql.Exec(ctx, sqlinline.QEnqueueJob, job.ID, q.opts.Name, payload, q.opts.MaxAttempts); err != nil {
		return domain.JobStatus{}, q.wrap("enqueue", err)
	}
	return q.Status(ctx, job.ID)
}

// Claim returns the next due job. When none is due it waits one poll interval
// before reporting ErrNoJob.
func (q *PostgresQueue) Claim(ctx context.Context) (*domain.Job, error) {
	row := q.sql.QueryRow(ctx, sqlinline.QClaimJob, q.opts.Name, int(q.opts.StaleAfter/time.Second))
	var (
		job     domain.Job
		payload []byte
	)
	if err := row.Scan(&job.ID, &payload, &job.Attempts); err != nil {
		if infra.IsNoRows(err) {
			if err := q.sleep(ctx, q.opts.PollInterval); err != nil {
				return nil, err
			}
			return nil, ErrNoJob
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, q.wrap("claim", err)
	}
	if err := json.Unmarshal(payload, &job.Request); err != nil {
		return nil, fmt.Errorf("%w: decode job %s: %v", domain.ErrQueue, job.ID, err)
	}
	return &job, nil
}

func (q *PostgresQueue) Complete(ctx context.Context, job *domain.Job) error {
	_, err := q.sql.Exec(ctx, sqlinline.QCompleteJob, job.ID)
	return q.wrap("complete", err)
}

func (q *PostgresQueue) Fail(ctx context.Context, job *domain.Job, cause error) (domain.JobStatus, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	terminal, runAt := retryPlan(q.opts, job.Attempts, q.now())
	state := domain.JobDelayed
	if terminal {
		state = domain.JobFailed
	}
	return q.scanStatus(q.sql.QueryRow(ctx, sqlinline.QFailJob, job.ID, string(state), msg, runAt), "fail", job.ID)
}

func (q *PostgresQueue) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	return q.scanStatus(q.sql.QueryRow(ctx, sqlinline.QSelectJobStatus, jobID), "status", jobID)
}

func (q *PostgresQueue) scanStatus(row interface{ Scan(...any) error }, op, jobID string) (domain.JobStatus, error) {
	var (
		status domain.JobStatus
		state  string
	)
	if err := row.Scan(&status.ID, &state, &status.Attempts, &status.LastError, &status.RunAt); err != nil {
		if infra.IsNoRows(err) {
			return domain.JobStatus{}, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
		}
		return domain.JobStatus{}, q.wrap(op, err)
	}
	status.State = domain.JobState(state)
	return status, nil
}

func (q *PostgresQueue) Ping(ctx context.Context) error {
	if q.ping != nil {
		return q.wrap("ping", q.ping(ctx))
	}
	var one int
	return q.wrap("ping", q.sql.QueryRow(ctx, sqlinline.QPing).Scan(&one))
}

// Close is a no-op; the pool is owned by the caller.
func (q *PostgresQueue) Close() error {
	return nil
}

func (q *PostgresQueue) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: postgres %s: %v", domain.ErrQueue, op, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ domain.Queue = (*PostgresQueue)(nil)
