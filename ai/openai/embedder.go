package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/deckdex/ai"
	"github.com/sony/gobreaker"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel/attribute"
)

// Embedder calls an OpenAI-compatible /embeddings endpoint through
// langchaingo. Calls share one circuit breaker.
type Embedder struct {
	embedder embeddings.Embedder
	model    string
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

func newEmbedder(config *ai.Config) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.Token()),
		openai.WithEmbeddingModel(config.EmbeddingModel),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, err
	}

	return newEmbedderWith(embedder, config.EmbeddingModel), nil
}

func newEmbedderWith(embedder embeddings.Embedder, model string) *Embedder {
	logger := slog.Default().With("component", "openai-embedder")
	return &Embedder{
		embedder: embedder,
		model:    model,
		breaker:  newBreaker("openai-embeddings", logger),
		logger:   logger,
	}
}

// NewEmbedder builds a standalone embedder for callers that need no
// completion model.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config)
}

// EmbedText embeds one text. An empty provider response yields an empty
// vector, which the embedding generator rejects on dimensions.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		e.logger.Warn("provider returned no vectors", "model", e.model)
		return []float32{}, nil
	}
	return vectors[0], nil
}

// EmbedTexts embeds texts in one request, in input order.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("embedding", "model", e.model, "count", len(texts))

	attrs := []attribute.KeyValue{
		attribute.String("ai.model", e.model),
		attribute.Int("ai.embedding.inputs", len(texts)),
	}
	vectors, err := execute(ctx, e.breaker, "openai.embed", attrs, func(ctx context.Context) ([][]float32, error) {
		return e.embedder.EmbedDocuments(ctx, texts)
	})
	if err != nil {
		e.logger.Error("embedding request failed", "model", e.model, "count", len(texts), "err", err)
		return nil, err
	}
	return vectors, nil
}
