package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// BatchProcessor handles embedding generation for batches of topics and slides.
type BatchProcessor struct {
	repo     storage.DeckRepository
	embedder ai.Embedder
	retry    backoff
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for embedding API calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(repo storage.DeckRepository, embedder ai.Embedder, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		repo:     repo,
		embedder: embedder,
		retry: backoff{
			attempts:  maxRetries,
			baseDelay: retryBaseDelay,
			logger:    slog.Default().With("component", "reembed-batch"),
		},
	}
}

// Process embeds a batch of items and writes the vectors back in one
// transaction. A batch either updates every item or none.
func (bp *BatchProcessor) Process(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}

	var embeddings [][]float32
	err := bp.retry.embed(ctx, len(items), func() error {
		var err error
		embeddings, err = bp.embedder.EmbedTexts(ctx, texts)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to embed batch of %d items: %w", len(items), err)
	}

	if len(embeddings) != len(items) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(items), len(embeddings))
	}
	for i, vec := range embeddings {
		if err := core.ValidateEmbedding(vec); err != nil {
			return fmt.Errorf("%s %d: %w", items[i].Kind, items[i].ID, err)
		}
	}

	err = bp.repo.WithTransaction(ctx, func(ctx context.Context) error {
		for i, item := range items {
			if err := bp.update(ctx, item, embeddings[i]); err != nil {
				return fmt.Errorf("%s %d: %w", item.Kind, item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update embeddings: %w", err)
	}

	return nil
}

func (bp *BatchProcessor) update(ctx context.Context, item Item, vec []float32) error {
	switch item.Kind {
	case KindTopic:
		return bp.repo.UpdateTopicEmbedding(ctx, item.ID, vec)
	case KindSlide:
		return bp.repo.UpdateSlideEmbedding(ctx, item.ID, vec)
	default:
		return fmt.Errorf("unknown item kind %q", item.Kind)
	}
}
