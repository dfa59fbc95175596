package llm

import (
	"context"
	"errors"
	"fmt"
	"net"

	"landingsvc/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderStatic = "static"
)

// maxErrorBody bounds how much of an upstream error body is retained.
const maxErrorBody = 2048

// classifyTransportError maps a failed round trip to the provider taxonomy:
// deadlines become ErrProviderTimeout, everything else a ProviderError.
func classifyTransportError(ctx context.Context, provider string, err error) error {
	if isTimeout(ctx, err) {
		return fmt.Errorf("%s: %w: %v", provider, domain.ErrProviderTimeout, err)
	}
	return &domain.ProviderError{Provider: provider, Err: err}
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateBody(body string) string {
	if len(body) > maxErrorBody {
		return body[:maxErrorBody]
	}
	return body
}
