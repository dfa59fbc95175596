package repo

import (
	"context"
	"errors"
	"testing"

	"landingsvc/internal/domain"
)

func TestMemorySessionStoreLifecycle(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	req := domain.GenerationRequest{SessionID: "m-1", Brief: "brief"}

	sess, err := store.Create(ctx, req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != domain.SessionPending {
		t.Fatalf("status = %q, want pending", sess.Status)
	}
	if err := store.Complete(ctx, "m-1", domain.Result{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Complete from pending err = %v", err)
	}

	if err := store.MarkProcessing(ctx, "m-1"); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := store.Fail(ctx, "m-1", "provider down"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := store.Get(ctx, "m-1")
	if got.Status != domain.SessionFailed || got.ErrorMessage == nil || *got.ErrorMessage != "provider down" || got.Result != nil {
		t.Fatalf("failed session = %#v", got)
	}

	if err := store.MarkProcessing(ctx, "m-1"); err != nil {
		t.Fatalf("redelivery MarkProcessing: %v", err)
	}
	result := domain.Result{Content: domain.LandingContent{Hero: domain.Hero{Title: "T"}}}
	if err := store.Complete(ctx, "m-1", result); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = store.Get(ctx, "m-1")
	if got.Status != domain.SessionCompleted || got.Result == nil || got.ErrorMessage != nil {
		t.Fatalf("completed session = %#v", got)
	}

	again, err := store.Create(ctx, domain.GenerationRequest{SessionID: "m-1", Brief: "other"})
	if err != nil {
		t.Fatalf("Create existing: %v", err)
	}
	if again.Status != domain.SessionCompleted || again.Payload.Brief != "brief" {
		t.Fatalf("existing session should be returned untouched: %#v", again)
	}
}

func TestMemorySessionStoreReturnsCopies(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	if _, err := store.Create(ctx, domain.GenerationRequest{SessionID: "c", Brief: "b"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	sess, _ := store.Get(ctx, "c")
	sess.Status = domain.SessionFailed
	again, _ := store.Get(ctx, "c")
	if again.Status != domain.SessionPending {
		t.Fatal("mutating a returned session must not change the store")
	}
}

func TestMemorySessionStoreUnknown(t *testing.T) {
	store := NewMemorySessionStore()
	if _, err := store.Get(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get err = %v", err)
	}
	if err := store.MarkProcessing(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("MarkProcessing err = %v", err)
	}
}

func TestMemorySessionStoreRedeliveryClearsOutcome(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		finish func(*MemorySessionStore, string) error
	}{
		{"completed", func(s *MemorySessionStore, id string) error {
			return s.Complete(ctx, id, domain.Result{Content: domain.LandingContent{Hero: domain.Hero{Title: "old"}}})
		}},
		{"failed", func(s *MemorySessionStore, id string) error {
			return s.Fail(ctx, id, "old failure")
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemorySessionStore()
			if _, err := store.Create(ctx, domain.GenerationRequest{SessionID: "r", Brief: "b"}); err != nil {
				t.Fatalf("Create: %v", err)
			}
			if err := store.MarkProcessing(ctx, "r"); err != nil {
				t.Fatalf("MarkProcessing: %v", err)
			}
			if err := tc.finish(store, "r"); err != nil {
				t.Fatalf("finish: %v", err)
			}
			if err := store.MarkProcessing(ctx, "r"); err != nil {
				t.Fatalf("redelivery MarkProcessing: %v", err)
			}
			got, _ := store.Get(ctx, "r")
			if got.Status != domain.SessionProcessing {
				t.Fatalf("status = %q, want processing", got.Status)
			}
			if got.Result != nil || got.ErrorMessage != nil {
				t.Fatalf("processing session kept previous outcome: result=%v error=%v", got.Result, got.ErrorMessage)
			}
		})
	}
}
