package domain

import (
	"context"
	"time"
)

// CompletionRequest is the provider-neutral input of a single model call.
type CompletionRequest struct {
	Model  string
	System string
	User   string
}

// Completer issues a text completion against an LLM provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SessionStore persists session lifecycle records keyed by session id.
type SessionStore interface {
	Create(ctx context.Context, req GenerationRequest) (*Session, error)
	MarkProcessing(ctx context.Context, sessionID string) error
	Complete(ctx context.Context, sessionID string, result Result) error
	Fail(ctx context.Context, sessionID string, message string) error
	Get(ctx context.Context, sessionID string) (*Session, error)
	Ping(ctx context.Context) error
}

// ArtifactStore persists generated blobs and returns a retrievable URL.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Ping(ctx context.Context) error
}

// JobState enumerates the queue-side lifecycle of a job.
type JobState string

const (
	JobWaiting   JobState = "waiting"
	JobActive    JobState = "active"
	JobDelayed   JobState = "delayed"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Job is a unit of asynchronous work. ID equals the session id so the queue
// can deduplicate repeated submissions.
type Job struct {
	ID       string            `json:"id"`
	Request  GenerationRequest `json:"request"`
	Attempts int               `json:"attempts"`
}

// JobStatus reports the queue-side view of a job.
type JobStatus struct {
	ID        string    `json:"id"`
	State     JobState  `json:"state"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	RunAt     time.Time `json:"run_at,omitempty"`
}

// Queue accepts jobs for asynchronous processing with at-least-once delivery.
type Queue interface {
	Enqueue(ctx context.Context, job Job) (JobStatus, error)
	Claim(ctx context.Context) (*Job, error)
	Complete(ctx context.Context, job *Job) error
	Fail(ctx context.Context, job *Job, cause error) (JobStatus, error)
	Status(ctx context.Context, jobID string) (JobStatus, error)
	Ping(ctx context.Context) error
	Close() error
}
