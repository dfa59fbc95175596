package queue

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"landingsvc/internal/domain"
)

func newTestRedisQueue(t *testing.T, opts Options) *RedisQueue {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	opts.Name = "test-" + uuid.NewString()
	q := NewRedisQueue(rdb, opts)
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := rdb.Keys(ctx, "{"+opts.Name+"}:*").Result()
		if len(keys) > 0 {
			_ = rdb.Del(ctx, keys...).Err()
		}
		_ = rdb.Close()
	})
	return q
}

func TestRedisQueueLifecycle(t *testing.T) {
	q := newTestRedisQueue(t, Options{MaxAttempts: 2, Backoff: 10 * time.Millisecond, PollInterval: 100 * time.Millisecond})
	ctx := context.Background()
	job := domain.Job{ID: "s-1", Request: domain.GenerationRequest{SessionID: "s-1", Brief: "bakery"}}

	status, err := q.Enqueue(ctx, job)
	require.NoError(t, err)
	require.Equal(t, domain.JobWaiting, status.State)

	again, err := q.Enqueue(ctx, job)
	require.NoError(t, err)
	require.Equal(t, domain.JobWaiting, again.State)

	claimed, err := q.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, "s-1", claimed.ID)
	require.Equal(t, 1, claimed.Attempts)
	require.Equal(t, "bakery", claimed.Request.Brief)

	_, err = q.Claim(ctx)
	require.ErrorIs(t, err, ErrNoJob, "duplicate enqueue must not create a second job")

	status, err = q.Fail(ctx, claimed, errors.New("boom"))
	require.NoError(t, err)
	require.Equal(t, domain.JobDelayed, status.State)

	time.Sleep(30 * time.Millisecond)
	claimed, err = q.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, claimed.Attempts)

	status, err = q.Fail(ctx, claimed, errors.New("boom again"))
	require.NoError(t, err)
	require.Equal(t, domain.JobFailed, status.State)

	stored, err := q.Status(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, domain.JobFailed, stored.State)
	require.Equal(t, "boom again", stored.LastError)

	status, err = q.Enqueue(ctx, job)
	require.NoError(t, err)
	require.Equal(t, domain.JobWaiting, status.State, "failed jobs may be resubmitted")

	claimed, err = q.Claim(ctx)
	require.NoError(t, err)
	require.NoError(t, q.Complete(ctx, claimed))
	stored, err = q.Status(ctx, "s-1")
	require.NoError(t, err)
	require.Equal(t, domain.JobCompleted, stored.State)
}

func TestRedisQueueStatusUnknown(t *testing.T) {
	q := newTestRedisQueue(t, Options{})
	_, err := q.Status(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedisQueueEnqueueRepairsPartialJob(t *testing.T) {
	q := newTestRedisQueue(t, Options{PollInterval: 100 * time.Millisecond})
	ctx := context.Background()
	require.NoError(t, q.rdb.HSet(ctx, q.jobKey("half"), "state", string(domain.JobWaiting)).Err())

	_, err := q.Status(ctx, "half")
	require.ErrorIs(t, err, domain.ErrNotFound)

	job := domain.Job{ID: "half", Request: domain.GenerationRequest{SessionID: "half", Brief: "retry me"}}
	status, err := q.Enqueue(ctx, job)
	require.NoError(t, err)
	require.Equal(t, domain.JobWaiting, status.State)

	claimed, err := q.Claim(ctx)
	require.NoError(t, err)
	require.Equal(t, "half", claimed.ID)
	require.Equal(t, "retry me", claimed.Request.Brief)
}
