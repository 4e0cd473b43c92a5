// Package review builds review prompts, invokes a text-generation capability
// and turns the response into a structured verdict. Generation failures are
// resolved fail-closed: an unreviewable submission is rejected, never
// silently approved.
package review

import (
	"context"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
	"github.com/skillhubhq/skillhub/pkg/logger"
)

// Generator is the injected text-generation capability. Implementations must
// be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, temperature float32) (string, error)
	Model() string
}

// OpenAIGenerator fronts an OpenAI-compatible chat-completions endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. baseURL may be empty for the
// default endpoint or point at a compatible gateway.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Model returns the model identifier recorded on verdicts.
func (g *OpenAIGenerator) Model() string {
	return g.model
}

// Generate sends a single-turn completion request, retrying transient
// failures with exponential backoff.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, temperature float32) (string, error) {
	var response openai.ChatCompletionResponse

	err := retry.Do(
		func() error {
			var apiErr error
			response, apiErr = g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
				Model:       g.model,
				Temperature: temperature,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleUser, Content: prompt},
				},
			})
			return apiErr
		},
		retry.RetryIf(isRetryableError),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			logger.G(ctx).WithError(err).WithField("attempt", n+1).Warn("retrying review model call")
		}),
	)
	if err != nil {
		return "", errors.Wrap(err, "review model call failed")
	}

	if len(response.Choices) == 0 {
		return "", errors.New("review model returned no choices")
	}
	return response.Choices[0].Message.Content, nil
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	// Treat transport-level failures as retryable.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
