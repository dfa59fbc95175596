package storage

import (
	"context"
	"errors"
	"testing"

	"landingsvc/internal/domain"
)

func TestFileStorePutGet(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	url, err := store.Put(ctx, SessionHTMLKey("abc"), "text/html", []byte("<p>hi</p>"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "http://localhost:8080/static/sessions/abc/landing.html" {
		t.Fatalf("url = %q", url)
	}
	data, err := store.Get(ctx, "sessions/abc/landing.html")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "<p>hi</p>" {
		t.Fatalf("data = %q", data)
	}
	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestFileStoreGetMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = store.Get(context.Background(), SessionJSONKey("missing"))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "sessions/a/landing.json", want: "sessions/a/landing.json"},
		{key: "/sessions//a/./landing.html", want: "sessions/a/landing.html"},
		{key: `sessions\a\x.json`, want: "sessions/a/x.json"},
		{key: "../etc/passwd", wantErr: true},
		{key: "sessions/../../x", wantErr: true},
		{key: "  ", wantErr: true},
	}
	for _, tc := range tests {
		got, err := sanitizeKey(tc.key)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("sanitizeKey(%q) expected error, got %q", tc.key, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("sanitizeKey(%q) error: %v", tc.key, err)
		}
		if got != tc.want {
			t.Fatalf("sanitizeKey(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = store.Put(context.Background(), "../outside.html", "", []byte("x"))
	if !errors.Is(err, domain.ErrArtifactStore) {
		t.Fatalf("Put() error = %v, want ErrArtifactStore", err)
	}
}
