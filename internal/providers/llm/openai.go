package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"landingsvc/internal/domain"
)

// OpenAIOptions configures the OpenAI chat completions client.
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Temperature  float32
}

// OpenAICompleter sends generation prompts to the Chat Completions API and
// asks for a JSON object response.
type OpenAICompleter struct {
	client      *openai.Client
	temperature float32
}

func NewOpenAICompleter(opts OpenAIOptions) (*OpenAICompleter, error) {
	key := strings.TrimSpace(opts.APIKey)
	if key == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(key)
	if baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.OrgID = strings.TrimSpace(opts.Organization)
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	return &OpenAICompleter{client: openai.NewClientWithConfig(cfg), temperature: temperature}, nil
}

func (o *OpenAICompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Temperature: o.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
	})
	if err != nil {
		return "", o.mapError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.ProviderError{Provider: ProviderOpenAI, Err: errors.New("no choices in response")}
	}
	return resp.Choices[0].Message.Content, nil
}

func (o *OpenAICompleter) mapError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &domain.ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       truncateBody(apiErr.Message),
			Err:        err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &domain.ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       truncateBody(reqErr.Error()),
			Err:        err,
		}
	}
	return classifyTransportError(ctx, ProviderOpenAI, err)
}

var _ domain.Completer = (*OpenAICompleter)(nil)
