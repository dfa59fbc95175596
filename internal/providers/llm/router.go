package llm

import (
	"context"
	"strings"

	"landingsvc/internal/domain"
)

// Router dispatches completions by model name: gemini-* models go to the
// Gemini completer when one is configured, everything else to Default. With
// no Default, Gemini serves every request and non-Gemini model names are
// replaced by the Gemini default model.
type Router struct {
	Default domain.Completer
	Gemini  domain.Completer
}

func (r *Router) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	c, gemini := r.route(req.Model)
	if gemini && !isGeminiModel(req.Model) {
		req.Model = geminiDefaultModel
	}
	return c.Complete(ctx, req)
}

func (r *Router) route(model string) (domain.Completer, bool) {
	if r.Gemini != nil && (isGeminiModel(model) || r.Default == nil) {
		return r.Gemini, true
	}
	if r.Default != nil {
		return r.Default, false
	}
	return NewStaticCompleter(), false
}

func isGeminiModel(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gemini")
}

// DefaultModel is the model requests use when neither the caller nor
// DEFAULT_MODEL names one.
func DefaultModel(provider string) string {
	if provider == ProviderGemini {
		return geminiDefaultModel
	}
	return domain.DefaultModel
}

// Options selects and configures the completers built by New.
type Options struct {
	Provider   string
	OpenAIKey  string
	OpenAIBase string
	OpenAIOrg  string
	GeminiKey  string
	GeminiBase string
}

// New builds the completer for the configured provider. Missing credentials
// degrade to the static completer; the returned name reports what was chosen.
func New(opts Options) (domain.Completer, string, error) {
	var openaiC, geminiC domain.Completer
	if strings.TrimSpace(opts.OpenAIKey) != "" {
		c, err := NewOpenAICompleter(OpenAIOptions{APIKey: opts.OpenAIKey, BaseURL: opts.OpenAIBase, Organization: opts.OpenAIOrg})
		if err != nil {
			return nil, "", err
		}
		openaiC = c
	}
	if strings.TrimSpace(opts.GeminiKey) != "" {
		c, err := NewGeminiCompleter(GeminiOptions{APIKey: opts.GeminiKey, BaseURL: opts.GeminiBase})
		if err != nil {
			return nil, "", err
		}
		geminiC = c
	}

	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case ProviderStatic:
		return NewStaticCompleter(), ProviderStatic, nil
	case ProviderGemini:
		if geminiC != nil {
			return &Router{Gemini: geminiC}, ProviderGemini, nil
		}
	default:
		if openaiC != nil {
			return &Router{Default: openaiC, Gemini: geminiC}, ProviderOpenAI, nil
		}
		if geminiC != nil {
			return &Router{Gemini: geminiC}, ProviderGemini, nil
		}
	}
	return NewStaticCompleter(), ProviderStatic, nil
}
