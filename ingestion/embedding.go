package ingestion

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/deckdex/ai"
	"golang.org/x/time/rate"
)

// itemEmbedder embeds incremental items one at a time, spacing provider calls
// with a shared limiter. Failures are logged and yield a nil vector.
type itemEmbedder struct {
	embedder ai.Embedder
	limiter  *rate.Limiter
	logger   *slog.Logger
}

func newItemEmbedder(embedder ai.Embedder, limiter *rate.Limiter, logger *slog.Logger) *itemEmbedder {
	return &itemEmbedder{
		embedder: embedder,
		limiter:  limiter,
		logger:   logger.With("processor", "embeddings"),
	}
}

// embed returns the embedding of text, or nil when text is blank or the
// provider fails. Only context cancellation is returned as an error.
func (ie *itemEmbedder) embed(ctx context.Context, kind string, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		ie.logger.Debug("skipping embedding for empty text", "kind", kind)
		return nil, nil
	}

	if err := ie.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vec, err := ie.embedder.EmbedText(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		ie.logger.Warn("failed to generate embedding, storing without one", "kind", kind, "err", err)
		return nil, nil
	}
	return vec, nil
}
