package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"landingsvc/internal/domain"
)

// RedisQueue keeps each job in a hash and moves its id between a wait list,
// an active list and a delayed sorted set scored by run time. Keys share a
// hash tag so the queue also works against Redis Cluster.
type RedisQueue struct {
	rdb  redis.UniversalClient
	opts Options
	now  func() time.Time
}

func NewRedisQueue(rdb redis.UniversalClient, opts Options) *RedisQueue {
	return &RedisQueue{rdb: rdb, opts: opts.withDefaults(), now: time.Now}
}

func (q *RedisQueue) key(suffix string) string {
	return "{" + q.opts.Name + "}:" + suffix
}

func (q *RedisQueue) jobKey(id string) string {
	return q.key("job:" + id)
}

// enqueueScript creates or resets the job hash and pushes the id in one step.
// A hash without a payload is a leftover of an interrupted write and counts as
// absent. Returns 1 when the job was queued, 0 when an existing job was kept.
var enqueueScript = redis.NewScript(`
local state = redis.call('HGET', KEYS[1], 'state')
local hasPayload = redis.call('HEXISTS', KEYS[1], 'payload')
if state and hasPayload == 1 and state ~= ARGV[5] then
  return 0
end
redis.call('HDEL', KEYS[1], 'active_at')
redis.call('HSET', KEYS[1],
  'id', ARGV[1],
  'payload', ARGV[2],
  'state', ARGV[6],
  'attempts', 0,
  'max_attempts', ARGV[3],
  'last_error', '',
  'run_at', ARGV[4])
redis.call('LPUSH', KEYS[2], ARGV[1])
return 1
`)

// Enqueue adds job unless a job with the same id exists and has not failed;
// in that case the existing job is left as is and its status returned.
func (q *RedisQueue) Enqueue(ctx context.Context, job domain.Job) (domain.JobStatus, error) {
	payload, err := json.Marshal(job.Request)
	if err != nil {
		return domain.JobStatus{}, fmt.Errorf("%w: encode job: %v", domain.ErrQueue, err)
	}
	now := q.now()
	queued, err := enqueueScript.Run(ctx, q.rdb,
		[]string{q.jobKey(job.ID), q.key("wait")},
		job.ID, payload, q.opts.MaxAttempts, now.UnixMilli(),
		string(domain.JobFailed), string(domain.JobWaiting),
	).Int()
	if err != nil {
		return domain.JobStatus{}, q.wrap("enqueue", err)
	}
	if queued == 0 {
		return q.Status(ctx, job.ID)
	}
	return domain.JobStatus{ID: job.ID, State: domain.JobWaiting, RunAt: time.UnixMilli(now.UnixMilli())}, nil
}

// Claim promotes due delayed jobs, then blocks up to the poll interval for a
// waiting job and moves it to the active list.
func (q *RedisQueue) Claim(ctx context.Context) (*domain.Job, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}
	if err := q.requeueStale(ctx); err != nil {
		return nil, err
	}
	id, err := q.rdb.BLMove(ctx, q.key("wait"), q.key("active"), "RIGHT", "LEFT", q.opts.PollInterval).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoJob
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, q.wrap("claim", err)
	}

	key := q.jobKey(id)
	attempts, err := q.rdb.HIncrBy(ctx, key, "attempts", 1).Result()
	if err != nil {
		return nil, q.wrap("claim", err)
	}
	if err := q.rdb.HSet(ctx, key, "state", string(domain.JobActive), "active_at", q.now().UnixMilli()).Err(); err != nil {
		return nil, q.wrap("claim", err)
	}
	payload, err := q.rdb.HGet(ctx, key, "payload").Bytes()
	if err != nil {
		return nil, q.wrap("claim", err)
	}
	job := &domain.Job{ID: id, Attempts: int(attempts)}
	if err := json.Unmarshal(payload, &job.Request); err != nil {
		return nil, fmt.Errorf("%w: decode job %s: %v", domain.ErrQueue, id, err)
	}
	return job, nil
}

func (q *RedisQueue) promoteDue(ctx context.Context) error {
	due, err := q.rdb.ZRangeByScore(ctx, q.key("delayed"), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(q.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return q.wrap("promote", err)
	}
	for _, id := range due {
		removed, err := q.rdb.ZRem(ctx, q.key("delayed"), id).Result()
		if err != nil {
			return q.wrap("promote", err)
		}
		if removed == 0 {
			continue
		}
		_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, q.jobKey(id), "state", string(domain.JobWaiting))
			pipe.LPush(ctx, q.key("wait"), id)
			return nil
		})
		if err != nil {
			return q.wrap("promote", err)
		}
	}
	return nil
}

// requeueStale returns jobs abandoned by a crashed worker to the wait list.
func (q *RedisQueue) requeueStale(ctx context.Context) error {
	active, err := q.rdb.LRange(ctx, q.key("active"), 0, -1).Result()
	if err != nil {
		return q.wrap("requeue", err)
	}
	cutoff := q.now().Add(-q.opts.StaleAfter).UnixMilli()
	for _, id := range active {
		activeAt, err := q.rdb.HGet(ctx, q.jobKey(id), "active_at").Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return q.wrap("requeue", err)
		}
		if activeAt == 0 || activeAt > cutoff {
			continue
		}
		removed, err := q.rdb.LRem(ctx, q.key("active"), 1, id).Result()
		if err != nil {
			return q.wrap("requeue", err)
		}
		if removed > 0 {
			if err := q.rdb.LPush(ctx, q.key("wait"), id).Err(); err != nil {
				return q.wrap("requeue", err)
			}
		}
	}
	return nil
}

func (q *RedisQueue) Complete(ctx context.Context, job *domain.Job) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 1, job.ID)
		pipe.HSet(ctx, q.jobKey(job.ID), "state", string(domain.JobCompleted), "last_error", "")
		return nil
	})
	return q.wrap("complete", err)
}

// Fail schedules a retry with exponential backoff or marks the job failed
// once it has used all attempts.
func (q *RedisQueue) Fail(ctx context.Context, job *domain.Job, cause error) (domain.JobStatus, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	terminal, runAt := retryPlan(q.opts, job.Attempts, q.now())
	state := domain.JobDelayed
	if terminal {
		state = domain.JobFailed
	}
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.key("active"), 1, job.ID)
		pipe.HSet(ctx, q.jobKey(job.ID), "state", string(state), "last_error", msg, "run_at", runAt.UnixMilli())
		if !terminal {
			pipe.ZAdd(ctx, q.key("delayed"), redis.Z{Score: float64(runAt.UnixMilli()), Member: job.ID})
		}
		return nil
	})
	if err != nil {
		return domain.JobStatus{}, q.wrap("fail", err)
	}
	return domain.JobStatus{
		ID:        job.ID,
		State:     state,
		Attempts:  job.Attempts,
		LastError: msg,
		RunAt:     time.UnixMilli(runAt.UnixMilli()),
	}, nil
}

func (q *RedisQueue) Status(ctx context.Context, jobID string) (domain.JobStatus, error) {
	fields, err := q.rdb.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return domain.JobStatus{}, q.wrap("status", err)
	}
	if len(fields) == 0 || fields["payload"] == "" {
		return domain.JobStatus{}, fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
	}
	attempts, _ := strconv.Atoi(fields["attempts"])
	status := domain.JobStatus{
		ID:        jobID,
		State:     domain.JobState(fields["state"]),
		Attempts:  attempts,
		LastError: fields["last_error"],
	}
	if ms, err := strconv.ParseInt(fields["run_at"], 10, 64); err == nil {
		status.RunAt = time.UnixMilli(ms)
	}
	return status, nil
}

func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.wrap("ping", q.rdb.Ping(ctx).Err())
}

func (q *RedisQueue) Close() error {
	return q.rdb.Close()
}

func (q *RedisQueue) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: redis %s: %v", domain.ErrQueue, op, err)
}

var _ domain.Queue = (*RedisQueue)(nil)
