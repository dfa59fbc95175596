package storage

import (
	"path"
	"strings"
)

const (
	landingJSONName = "landing.json"
	landingHTMLName = "landing.html"
)

// SessionPrefix namespaces every artifact of a session.
func SessionPrefix(sessionID string) string {
	return path.Join("sessions", strings.TrimSpace(sessionID))
}

// SessionJSONKey is the object key of the landing.json artifact.
func SessionJSONKey(sessionID string) string {
	return path.Join(SessionPrefix(sessionID), landingJSONName)
}

// SessionHTMLKey is the object key of the landing.html artifact.
func SessionHTMLKey(sessionID string) string {
	return path.Join(SessionPrefix(sessionID), landingHTMLName)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	case strings.HasSuffix(s, ".html"), strings.HasSuffix(s, ".htm"):
		return "text/html; charset=utf-8"
	case strings.HasSuffix(s, ".zip"):
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

func joinURL(base, key string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "/" + key
	}
	return base + "/" + key
}
