package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"landingsvc/internal/domain"
)

// FileStore persists artifacts onto the local filesystem. It is intended for
// development and single-node deployments where an object storage service is
// not available. The API serves the directory under its static route.
type FileStore struct {
	basePath string
	baseURL  string
}

// NewFileStore initializes a FileStore rooted at basePath. URLs handed out by
// Put are baseURL joined with the object key.
func NewFileStore(basePath, baseURL string) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if !filepath.IsAbs(basePath) {
		if abs, err := filepath.Abs(basePath); err == nil {
			basePath = abs
		}
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{basePath: basePath, baseURL: baseURL}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Put writes data at key and returns its public URL. Keys are cleaned to
// prevent directory traversal. The content type is implied by the extension.
func (s *FileStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if s == nil {
		return "", domain.ArtifactError("put", errors.New("no store configured"))
	}
	if err := ctx.Err(); err != nil {
		return "", domain.ArtifactError("put", err)
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", domain.ArtifactError("put", err)
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", domain.ArtifactError("put", fmt.Errorf("ensure directory: %w", err))
	}
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", domain.ArtifactError("put", fmt.Errorf("write file: %w", err))
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return "", domain.ArtifactError("put", fmt.Errorf("rename file: %w", err))
	}
	return joinURL(s.baseURL, cleanKey), nil
}

// Get reads the object stored at key. Missing objects report domain.ErrNotFound.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil {
		return nil, domain.ArtifactError("get", errors.New("no store configured"))
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ArtifactError("get", err)
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return nil, domain.ArtifactError("get", err)
	}
	data, err := os.ReadFile(filepath.Join(s.basePath, filepath.FromSlash(cleanKey)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("storage: %s: %w", cleanKey, domain.ErrNotFound)
		}
		return nil, domain.ArtifactError("get", err)
	}
	return data, nil
}

// Ping verifies the root directory is still present and writable.
func (s *FileStore) Ping(ctx context.Context) error {
	if s == nil {
		return domain.ArtifactError("ping", errors.New("no store configured"))
	}
	info, err := os.Stat(s.basePath)
	if err != nil {
		return domain.ArtifactError("ping", err)
	}
	if !info.IsDir() {
		return domain.ArtifactError("ping", fmt.Errorf("%s is not a directory", s.basePath))
	}
	tmp, err := os.CreateTemp(s.basePath, ".ping-*")
	if err != nil {
		return domain.ArtifactError("ping", err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)
	return nil
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.ToSlash(filepath.Clean(key))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("invalid key")
	}
	return cleaned, nil
}

var _ domain.ArtifactStore = (*FileStore)(nil)
