package landing

import (
	"encoding/json"
	"regexp"
	"strings"

	"landingsvc/internal/domain"
)

// ParseStrategy names which extraction step recovered the JSON object.
type ParseStrategy string

const (
	StrategyStrict ParseStrategy = "strict"
	StrategyFenced ParseStrategy = "fenced"
	StrategyBraces ParseStrategy = "braces"
)

var fencePattern = regexp.MustCompile("(?s)```(?:[A-Za-z]+)?\\s*\\n?(.*?)```")

// Parsed is the outcome of ParseResponse.
type Parsed struct {
	Object   map[string]any
	Content  domain.LandingContent
	Strategy ParseStrategy
}

// ParseResponse extracts a JSON object from raw model text. It tries, in
// order, the whole text, the first fenced code block and the span from the
// first '{' to the last '}'. Any JSON object is accepted; non-object JSON is
// rejected like unparseable text.
func ParseResponse(raw string) (*Parsed, error) {
	text := strings.TrimSpace(raw)
	if obj, ok := decodeObject(text); ok {
		return newParsed(obj, StrategyStrict), nil
	}
	if inner, ok := fencedBlock(text); ok {
		if obj, ok := decodeObject(inner); ok {
			return newParsed(obj, StrategyFenced), nil
		}
	}
	if span, ok := braceSpan(text); ok {
		if obj, ok := decodeObject(span); ok {
			return newParsed(obj, StrategyBraces), nil
		}
	}
	return nil, domain.NewMalformedOutputError(raw)
}

func newParsed(obj map[string]any, strategy ParseStrategy) *Parsed {
	return &Parsed{Object: obj, Content: domain.ContentFromMap(obj), Strategy: strategy}
}

func decodeObject(text string) (map[string]any, bool) {
	if text == "" {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func fencedBlock(text string) (string, bool) {
	m := fencePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func braceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
