package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

// Completer generates answers through the OpenAI-compatible chat completions API.
type Completer struct {
	client      *openai.Client
	apiKey      string
	model       string
	temperature float32
	provider    string
	logger      *zap.Logger
}

// CompleterConfig holds the chat completion settings.
type CompleterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Provider    string
	Logger      *zap.Logger
}

// NewCompleter creates an OpenAI-compatible text completion provider.
// A blank APIKey yields a completer that reports itself unconfigured.
func NewCompleter(cfg *CompleterConfig) *Completer {
	return &Completer{
		client:      newClient(cfg.APIKey, cfg.BaseURL),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		provider:    cfg.Provider,
		logger:      cfg.Logger,
	}
}

// Configured reports whether a credential is present.
func (c *Completer) Configured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// Complete sends one system and one user message and returns the first choice.
func (c *Completer) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	}

	call := metrics.StartProviderCall(metrics.KindCompletion, c.provider, c.model)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		call.Done(metrics.OutcomeError)
		return "", parseAPIError("completion", err, domain.ErrCompletionFailed)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		call.Done(metrics.OutcomeEmpty)
		return "", fmt.Errorf("empty completion response: %w", domain.ErrCompletionFailed)
	}

	call.Done(metrics.OutcomeOK)
	call.Tokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		c.logger.Debug("Completion truncated at max tokens",
			zap.String("model", c.model), zap.Int("max_tokens", maxTokens))
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
