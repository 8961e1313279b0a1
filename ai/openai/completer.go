package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/deckdex/ai"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel/attribute"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client  llms.Model
	model   string
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return newCompleterWith(client, config.CompletionModel), nil
}

func newCompleterWith(client llms.Model, model string) *Completer {
	logger := slog.Default().With("component", "openai-completer")
	return &Completer{
		client:  client,
		model:   model,
		breaker: newBreaker("openai-chat", logger),
		logger:  logger,
	}
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends the system instruction and prompt and returns the first choice.
func (c *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	var content []llms.MessageContent
	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(req.System)},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
	})

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	attrs := []attribute.KeyValue{
		attribute.String("ai.model", c.model),
		attribute.Bool("ai.json_mode", req.JSON),
		attribute.Float64("ai.temperature", req.Temperature),
		attribute.Int("ai.prompt_length", len(req.Prompt)),
	}
	text, err := execute(ctx, c.breaker, "openai.complete", attrs, func(ctx context.Context) (string, error) {
		response, err := c.client.GenerateContent(ctx, content, opts...)
		if err != nil {
			return "", err
		}
		if len(response.Choices) < 1 {
			return "", ai.ErrNoChoices
		}
		return response.Choices[0].Content, nil
	})
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", err
	}

	c.logger.Debug("completion received", "length", len(text))
	return text, nil
}
