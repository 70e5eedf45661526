package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/kailas-cloud/faqdex/internal/domain"
	"github.com/kailas-cloud/faqdex/internal/metrics"
)

const provider = "ollama"

// Completer generates answers with a local Ollama model.
type Completer struct {
	client      *api.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// Config holds the Ollama settings.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// NewCompleter creates an Ollama text completion provider.
func NewCompleter(cfg *Config) (*Completer, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse ollama url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Model == "" {
		return nil, errors.New("ollama model is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Completer{
		client:      api.NewClient(base, httpClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}, nil
}

// Configured is always true: a local Ollama needs no credential.
func (c *Completer) Configured() bool { return true }

// Complete runs a non-streaming chat and returns the assistant message.
func (c *Completer) Complete(ctx context.Context, system, user string, maxTokens int) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: &stream,
		Options: map[string]any{
			"num_predict": maxTokens,
			"temperature": c.temperature,
		},
	}

	var out strings.Builder
	var final api.ChatResponse
	fn := func(resp api.ChatResponse) error {
		out.WriteString(resp.Message.Content)
		if resp.Done {
			final = resp
		}
		return nil
	}

	call := metrics.StartProviderCall(metrics.KindCompletion, provider, c.model)
	start := time.Now()
	err := c.client.Chat(ctx, req, fn)
	duration := time.Since(start)

	if err != nil {
		call.Done(metrics.OutcomeError)
		var se api.StatusError
		if errors.As(err, &se) {
			return "", fmt.Errorf("ollama error %d: %s: %w", se.StatusCode, se.ErrorMessage, domain.ErrCompletionFailed)
		}
		return "", fmt.Errorf("ollama chat: %v: %w", err, domain.ErrCompletionFailed)
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		call.Done(metrics.OutcomeEmpty)
		return "", fmt.Errorf("empty ollama response: %w", domain.ErrCompletionFailed)
	}

	call.Done(metrics.OutcomeOK)
	call.Tokens(final.PromptEvalCount, final.EvalCount)

	c.logger.Debug("Ollama completion",
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.Int("eval_count", final.EvalCount),
	)
	return text, nil
}

// HealthCheck pings the Ollama server.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if err := c.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama heartbeat: %w", err)
	}
	return nil
}
