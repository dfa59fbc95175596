package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"landingsvc/internal/domain"
	"landingsvc/internal/observability"
)

// chanQueue hands out jobs from a channel and records outcomes.
type chanQueue struct {
	jobs chan *domain.Job

	mu        sync.Mutex
	completed []string
	failed    map[string]error
	states    map[string]domain.JobState
	terminal  bool
}

func newChanQueue(jobs ...*domain.Job) *chanQueue {
	ch := make(chan *domain.Job, len(jobs))
	for _, j := range jobs {
		ch <- j
	}
	return &chanQueue{jobs: ch, failed: map[string]error{}, states: map[string]domain.JobState{}}
}

func (q *chanQueue) Enqueue(ctx context.Context, job domain.Job) (domain.JobStatus, error) {
	return domain.JobStatus{}, errors.New("not used")
}

func (q *chanQueue) Claim(ctx context.Context) (*domain.Job, error) {
	select {
	case j := <-q.jobs:
		return j, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, ErrNoJob
	}
}

func (q *chanQueue) Complete(ctx context.Context, job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.completed = append(q.completed, job.ID)
	q.states[job.ID] = domain.JobCompleted
	return nil
}

func (q *chanQueue) Fail(ctx context.Context, job *domain.Job, cause error) (domain.JobStatus, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.failed[job.ID] = cause
	state := domain.JobDelayed
	if q.terminal {
		state = domain.JobFailed
	}
	q.states[job.ID] = state
	return domain.JobStatus{ID: job.ID, State: state}, nil
}

func (q *chanQueue) Status(ctx context.Context, id string) (domain.JobStatus, error) {
	return domain.JobStatus{}, domain.ErrNotFound
}

func (q *chanQueue) Ping(ctx context.Context) error { return nil }

func (q *chanQueue) Close() error { return nil }

func (q *chanQueue) done() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.completed) + len(q.failed)
}

func runWorker(t *testing.T, w *Worker, q *chanQueue, want int) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	require.Eventually(t, func() bool { return q.done() == want }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-errCh)
}

func TestWorkerCompletesAndFailsJobs(t *testing.T) {
	q := newChanQueue(&domain.Job{ID: "ok"}, &domain.Job{ID: "bad"}, &domain.Job{ID: "panic"})
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)
	w, err := NewWorker(WorkerOptions{
		Queue:       q,
		Concurrency: 2,
		Logger:      zerolog.Nop(),
		Metrics:     metrics,
		Handler: func(ctx context.Context, job *domain.Job) error {
			switch job.ID {
			case "bad":
				return errors.New("provider down")
			case "panic":
				panic("nil map")
			}
			return nil
		},
	})
	require.NoError(t, err)

	runWorker(t, w, q, 3)

	require.Equal(t, []string{"ok"}, q.completed)
	require.EqualError(t, q.failed["bad"], "provider down")
	require.ErrorContains(t, q.failed["panic"], "handler panic")
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.QueueJobs.WithLabelValues("completed")))
	require.Equal(t, float64(2), testutil.ToFloat64(metrics.QueueJobs.WithLabelValues("retried")))
}

func TestWorkerRespectsConcurrency(t *testing.T) {
	jobs := make([]*domain.Job, 6)
	for i := range jobs {
		jobs[i] = &domain.Job{ID: string(rune('a' + i))}
	}
	q := newChanQueue(jobs...)
	var inFlight, peak int32
	w, err := NewWorker(WorkerOptions{
		Queue:       q,
		Concurrency: 2,
		Logger:      zerolog.Nop(),
		Handler: func(ctx context.Context, job *domain.Job) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		},
	})
	require.NoError(t, err)

	runWorker(t, w, q, 6)
	require.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}

func TestWorkerRateLimit(t *testing.T) {
	q := newChanQueue(&domain.Job{ID: "1"}, &domain.Job{ID: "2"}, &domain.Job{ID: "3"})
	var mu sync.Mutex
	var starts []time.Time
	w, err := NewWorker(WorkerOptions{
		Queue:       q,
		Concurrency: 3,
		RateMax:     1,
		RateWindow:  50 * time.Millisecond,
		Logger:      zerolog.Nop(),
		Handler: func(ctx context.Context, job *domain.Job) error {
			mu.Lock()
			starts = append(starts, time.Now())
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	begin := time.Now()
	runWorker(t, w, q, 3)
	require.Len(t, starts, 3)
	require.GreaterOrEqual(t, time.Since(begin), 90*time.Millisecond)
}

func TestWorkerTerminalFailureCounted(t *testing.T) {
	q := newChanQueue(&domain.Job{ID: "x"})
	q.terminal = true
	metrics := observability.NewMetrics("test", prometheus.NewRegistry())
	w, err := NewWorker(WorkerOptions{
		Queue:   q,
		Logger:  zerolog.Nop(),
		Metrics: metrics,
		Handler: func(ctx context.Context, job *domain.Job) error { return errors.New("nope") },
	})
	require.NoError(t, err)
	runWorker(t, w, q, 1)
	require.Equal(t, domain.JobFailed, q.states["x"])
	require.Equal(t, float64(1), testutil.ToFloat64(metrics.QueueJobs.WithLabelValues("failed")))
}

func TestNewWorkerValidates(t *testing.T) {
	_, err := NewWorker(WorkerOptions{Handler: func(context.Context, *domain.Job) error { return nil }})
	require.Error(t, err)
	_, err = NewWorker(WorkerOptions{Queue: newChanQueue()})
	require.Error(t, err)
}
