package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrProvider          = errors.New("provider failure")
	ErrProviderTimeout   = errors.New("provider timeout")
	ErrMalformedOutput   = errors.New("malformed model output")
	ErrArtifactStore     = errors.New("artifact store failure")
	ErrSessionStore      = errors.New("session store failure")
	ErrQueue             = errors.New("queue failure")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// rawPreviewLimit bounds how much model text is retained on parse failures.
const rawPreviewLimit = 512

// ValidationError reports a user-correctable problem with a request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ProviderError captures a failed call to the LLM provider. StatusCode is zero
// when the endpoint could not be reached at all.
type ProviderError struct {
	Provider   string
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("%s: request failed", e.Provider)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// MalformedOutputError is returned when no parse strategy could recover a JSON
// object from the model reply. Raw holds a truncated prefix of the reply.
type MalformedOutputError struct {
	Raw string
}

// NewMalformedOutputError truncates raw to a diagnostic prefix that ends on
// a rune boundary.
func NewMalformedOutputError(raw string) *MalformedOutputError {
	if len(raw) > rawPreviewLimit {
		cut := rawPreviewLimit
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut] + "..."
	}
	return &MalformedOutputError{Raw: raw}
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %q", e.Raw)
}

func (e *MalformedOutputError) Is(target error) bool { return target == ErrMalformedOutput }

// StoreKind names the persistence layer a StoreError originated from.
type StoreKind string

const (
	StoreKindArtifact StoreKind = "artifact"
	StoreKindSession  StoreKind = "session"
)

// StoreError wraps a downstream persistence failure.
type StoreError struct {
	Kind StoreKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store %s: %v", e.Kind, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrArtifactStore:
		return e.Kind == StoreKindArtifact
	case ErrSessionStore:
		return e.Kind == StoreKindSession
	}
	return false
}

// ArtifactError wraps err as an artifact store failure for op.
func ArtifactError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Kind: StoreKindArtifact, Op: op, Err: err}
}

// SessionError wraps err as a session store failure for op. Not-found and
// transition errors pass through unchanged so callers can still map them.
func SessionError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return &StoreError{Kind: StoreKindSession, Op: op, Err: err}
}
