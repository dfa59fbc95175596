package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPageType = "landing"
	DefaultModel    = "gpt-4o-mini"
)

// GenerationRequest is the immutable input of one pipeline run.
type GenerationRequest struct {
	SessionID string `json:"session_id"`
	Brief     string `json:"brief"`
	PageType  string `json:"page_type"`
	Model     string `json:"model"`
	Locale    string `json:"locale,omitempty"`
}

// RequestDefaults carries the configured fallbacks applied by Normalize.
type RequestDefaults struct {
	PageType string
	Model    string
}

// Normalize trims user input, fills defaults and assigns a session id when the
// caller did not provide one.
func (r *GenerationRequest) Normalize(defaults RequestDefaults) {
	r.SessionID = strings.TrimSpace(r.SessionID)
	r.Brief = strings.TrimSpace(r.Brief)
	r.PageType = strings.TrimSpace(r.PageType)
	r.Model = strings.TrimSpace(r.Model)
	r.Locale = strings.TrimSpace(r.Locale)
	if r.PageType == "" {
		r.PageType = coalesce(defaults.PageType, DefaultPageType)
	}
	if r.Model == "" {
		r.Model = coalesce(defaults.Model, DefaultModel)
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
}

// Validate reports a ValidationError when the request cannot be processed.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Brief) == "" {
		return &ValidationError{Field: "brief", Message: "brief is required"}
	}
	if len(r.SessionID) > 128 {
		return &ValidationError{Field: "session_id", Message: "session_id is too long"}
	}
	if !ValidSessionID(r.SessionID) {
		return &ValidationError{Field: "session_id", Message: "session_id may only contain letters, digits, '-' and '_'"}
	}
	return nil
}

// ValidSessionID reports whether id is a non-empty run of ASCII letters,
// digits, '-' and '_'. Artifact keys embed the id as a path segment.
func ValidSessionID(id string) bool {
	if id == "" {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// SessionStatus enumerates the lifecycle of a generation session.
type SessionStatus string

const (
	SessionPending    SessionStatus = "pending"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// Terminal reports whether the status ends a pipeline run.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionFailed
}

// CanTransition reports whether a session may move from one status to
// another. Within a run the order is pending, processing, then completed or
// failed. A redelivered job re-enters processing from any non-pending state,
// and nothing ever returns to pending.
func CanTransition(from, to SessionStatus) bool {
	switch to {
	case SessionProcessing:
		return from == SessionPending || from == SessionProcessing || from.Terminal()
	case SessionCompleted, SessionFailed:
		return from == SessionProcessing
	default:
		return false
	}
}

// ArtifactURLs points at the persisted outputs of a completed run.
type ArtifactURLs struct {
	JSON string `json:"json"`
	HTML string `json:"html"`
}

// Result is stored on a session once it completes.
type Result struct {
	Content LandingContent `json:"content"`
	URLs    ArtifactURLs   `json:"urls"`
}

// Session records one generation request and its outcome. Result is set only
// when Status is completed and ErrorMessage only when Status is failed.
type Session struct {
	SessionID    string            `json:"session_id"`
	Status       SessionStatus     `json:"status"`
	Payload      GenerationRequest `json:"payload"`
	Result       *Result           `json:"result"`
	ErrorMessage *string           `json:"error_message"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
