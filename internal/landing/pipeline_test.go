package landing

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"landingsvc/internal/domain"
	"landingsvc/internal/observability"
	"landingsvc/internal/storage"
)

const validReply = "```json\n{\"hero\":{\"title\":\"<b>Fresh</b>\"},\"benefits\":[{\"title\":\"Warm\",\"text\":\"daily\"}]}\n```"

type pipelineFixture struct {
	sessions  *memSessions
	artifacts *memArtifacts
	metrics   *observability.Metrics
	pipeline  *Pipeline
}

func newPipelineFixture(t *testing.T, completer domain.Completer, timeout time.Duration) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		sessions:  newMemSessions(),
		artifacts: newMemArtifacts(),
		metrics:   observability.NewMetrics("test", prometheus.NewRegistry()),
	}
	p, err := NewPipeline(PipelineOptions{
		Completer:       completer,
		Artifacts:       f.artifacts,
		Sessions:        f.sessions,
		Metrics:         f.metrics,
		Logger:          zerolog.Nop(),
		ProviderName:    "fake",
		ProviderTimeout: timeout,
	})
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}
	f.pipeline = p
	return f
}

func (f *pipelineFixture) create(t *testing.T, id string) domain.GenerationRequest {
	t.Helper()
	req := domain.GenerationRequest{SessionID: id, Brief: "bakery", PageType: "landing", Model: "gpt-4o-mini"}
	sess, err := f.sessions.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Status != domain.SessionPending {
		t.Fatalf("fresh session status = %q, want pending", sess.Status)
	}
	return req
}

func TestPipelineRunSuccess(t *testing.T) {
	var gotReq domain.CompletionRequest
	f := newPipelineFixture(t, completerFunc(func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		gotReq = req
		return validReply, nil
	}), time.Second)
	req := f.create(t, "s-1")

	result, err := f.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gotReq.Model != "gpt-4o-mini" || !strings.Contains(gotReq.User, "bakery") || gotReq.System != SystemInstruction {
		t.Fatalf("unexpected completion request: %#v", gotReq)
	}
	if result.Content.Hero.Title != "<b>Fresh</b>" || len(result.Content.Benefits) != 1 {
		t.Fatalf("unexpected content: %#v", result.Content)
	}
	if result.URLs.HTML != "http://static.test/sessions/s-1/landing.html" {
		t.Fatalf("html url = %q", result.URLs.HTML)
	}

	html := string(f.artifacts.objects[storage.SessionHTMLKey("s-1")])
	if !strings.Contains(html, "&lt;b&gt;Fresh&lt;/b&gt;") {
		t.Fatalf("stored html not escaped:\n%s", html)
	}
	var stored domain.LandingContent
	if err := json.Unmarshal(f.artifacts.objects[storage.SessionJSONKey("s-1")], &stored); err != nil {
		t.Fatalf("stored json invalid: %v", err)
	}
	if stored.Benefits[0].Title != "Warm" {
		t.Fatalf("stored json = %#v", stored)
	}

	sess, _ := f.sessions.Get(context.Background(), "s-1")
	if sess.Status != domain.SessionCompleted || sess.Result == nil || sess.ErrorMessage != nil {
		t.Fatalf("completed session invariants violated: %#v", sess)
	}
	want := []domain.SessionStatus{domain.SessionPending, domain.SessionProcessing, domain.SessionCompleted}
	if got := f.sessions.history["s-1"]; !equalStatuses(got, want) {
		t.Fatalf("history = %v, want %v", got, want)
	}
}

func TestPipelineRunFailures(t *testing.T) {
	tests := []struct {
		name      string
		completer completerFunc
		putErr    error
		wantErr   error
	}{
		{
			name: "provider error",
			completer: func(ctx context.Context, req domain.CompletionRequest) (string, error) {
				return "", &domain.ProviderError{Provider: "fake", StatusCode: 502, Body: "bad gateway"}
			},
			wantErr: domain.ErrProvider,
		},
		{
			name: "provider timeout",
			completer: func(ctx context.Context, req domain.CompletionRequest) (string, error) {
				<-ctx.Done()
				return "", ctx.Err()
			},
			wantErr: domain.ErrProviderTimeout,
		},
		{
			name: "malformed output",
			completer: func(ctx context.Context, req domain.CompletionRequest) (string, error) {
				return "not json at all", nil
			},
			wantErr: domain.ErrMalformedOutput,
		},
		{
			name: "artifact store",
			completer: func(ctx context.Context, req domain.CompletionRequest) (string, error) {
				return `{"hero":{}}`, nil
			},
			putErr:  errors.New("bucket gone"),
			wantErr: domain.ErrArtifactStore,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newPipelineFixture(t, tc.completer, 20*time.Millisecond)
			f.artifacts.putErr = tc.putErr
			req := f.create(t, "s-fail")

			result, err := f.pipeline.Run(context.Background(), req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if result != nil {
				t.Fatalf("result = %#v, want nil", result)
			}
			sess, _ := f.sessions.Get(context.Background(), "s-fail")
			if sess.Status != domain.SessionFailed || sess.ErrorMessage == nil || sess.Result != nil {
				t.Fatalf("failed session invariants violated: %#v", sess)
			}
			if *sess.ErrorMessage != err.Error() {
				t.Fatalf("ErrorMessage = %q, want %q", *sess.ErrorMessage, err.Error())
			}
		})
	}
}

func TestPipelineCountsProviderErrors(t *testing.T) {
	f := newPipelineFixture(t, completerFunc(func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		return "", &domain.ProviderError{Provider: "fake", StatusCode: 429}
	}), time.Second)
	req := f.create(t, "s-429")
	if _, err := f.pipeline.Run(context.Background(), req); err == nil {
		t.Fatal("expected error")
	}
	if got := testutil.ToFloat64(f.metrics.ProviderErrors.WithLabelValues("fake", "429")); got != 1 {
		t.Fatalf("provider_errors_total = %v, want 1", got)
	}
}

func TestPipelineRerunOverwrites(t *testing.T) {
	calls := 0
	f := newPipelineFixture(t, completerFunc(func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		calls++
		if calls == 1 {
			return "garbage", nil
		}
		return `{"hero":{"title":"Second"},"faq":[{"q":"Q","a":"A"}]}`, nil
	}), time.Second)
	req := f.create(t, "s-again")

	if _, err := f.pipeline.Run(context.Background(), req); err == nil {
		t.Fatal("first run should fail")
	}
	result, err := f.pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if result.Content.Hero.Title != "Second" {
		t.Fatalf("hero = %q", result.Content.Hero.Title)
	}
	sess, _ := f.sessions.Get(context.Background(), "s-again")
	if sess.Status != domain.SessionCompleted || sess.ErrorMessage != nil {
		t.Fatalf("session after rerun: %#v", sess)
	}
}

func TestPipelineUnknownSession(t *testing.T) {
	f := newPipelineFixture(t, completerFunc(func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		t.Fatal("completer should not be called")
		return "", nil
	}), time.Second)
	_, err := f.pipeline.Run(context.Background(), domain.GenerationRequest{SessionID: "missing", Brief: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPipelineShapeAcrossRuns(t *testing.T) {
	replies := []string{
		`{"hero":{"title":"One"},"benefits":[{"title":"a","text":"b"}]}`,
		"Sure! {\"hero\":{\"title\":\"Two\"},\"process\":[{\"step_title\":\"x\",\"step_text\":\"y\"}]}",
	}
	i := 0
	f := newPipelineFixture(t, completerFunc(func(ctx context.Context, req domain.CompletionRequest) (string, error) {
		r := replies[i]
		i++
		return r, nil
	}), time.Second)
	req := f.create(t, "s-shape")
	for range replies {
		result, err := f.pipeline.Run(context.Background(), req)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		data, err := result.Content.MarshalIndent()
		if err != nil {
			t.Fatalf("MarshalIndent: %v", err)
		}
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil {
			t.Fatalf("content not a JSON object: %v", err)
		}
		for _, key := range []string{"hero", "seo"} {
			if _, ok := obj[key].(map[string]any); !ok {
				t.Fatalf("content missing %q object: %s", key, data)
			}
		}
		for _, key := range []string{"benefits", "process", "faq"} {
			if _, ok := obj[key].([]any); !ok {
				t.Fatalf("content %q is not an array: %s", key, data)
			}
		}
	}
}

func equalStatuses(a, b []domain.SessionStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
