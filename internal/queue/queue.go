// Package queue provides at-least-once job queues backed by Redis or
// PostgreSQL, and the worker that drains them.
package queue

import (
	"errors"
	"time"
)

// ErrNoJob is returned by Claim when nothing became ready within the poll
// interval.
var ErrNoJob = errors.New("queue: no job available")

const (
	DefaultMaxAttempts  = 3
	DefaultBackoff      = 5 * time.Second
	DefaultPollInterval = 2 * time.Second
	DefaultStaleAfter   = 15 * time.Minute
)

// Options tunes retry and polling behaviour shared by both backends.
type Options struct {
	Name         string
	MaxAttempts  int
	Backoff      time.Duration
	PollInterval time.Duration
	// StaleAfter is how long a job may stay active before another worker may
	// reclaim it.
	StaleAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "landing-generation"
	}
	if o.MaxAttempts < 1 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StaleAfter <= 0 {
		o.StaleAfter = DefaultStaleAfter
	}
	return o
}

// Backoff returns the delay before retry number attempt (1-based):
// base, 2*base, 4*base, ...
func Backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 30 {
		attempt = 30
	}
	return base * time.Duration(1<<(attempt-1))
}

// retryPlan decides what happens to a job that failed on its attempts-th try.
func retryPlan(opts Options, attempts int, now time.Time) (terminal bool, runAt time.Time) {
	if attempts >= opts.MaxAttempts {
		return true, now
	}
	return false, now.Add(Backoff(opts.Backoff, attempts))
}
