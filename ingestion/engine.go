// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"golang.org/x/time/rate"
)

// DefaultEmbeddingDelay is the minimum spacing between embedding calls on
// the incremental path.
const DefaultEmbeddingDelay = 350 * time.Millisecond

// Engine writes decks, topics and slides to a repository.
type Engine struct {
	repo    storage.DeckRepository
	limiter *rate.Limiter
	items   *itemEmbedder
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithEmbeddingDelay sets the minimum spacing between incremental embedding
// calls. Zero disables spacing.
func WithEmbeddingDelay(delay time.Duration) Option {
	return func(e *Engine) error {
		if delay < 0 {
			return fmt.Errorf("embedding delay must be non-negative, got %v", delay)
		}
		e.limiter = newLimiter(delay)
		return nil
	}
}

// WithLimiter shares an existing limiter, so several engines respect one
// provider budget.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(e *Engine) error {
		if limiter != nil {
			e.limiter = limiter
		}
		return nil
	}
}

// NewEngine creates an ingestion engine.
func NewEngine(repo storage.DeckRepository, embedder ai.Embedder, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	e := &Engine{
		repo:    repo,
		limiter: newLimiter(DefaultEmbeddingDelay),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	e.logger = e.logger.With("component", "ingestion")
	e.items = newItemEmbedder(embedder, e.limiter, e.logger)
	return e, nil
}

func newLimiter(delay time.Duration) *rate.Limiter {
	if delay == 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// IngestBatch creates or replaces the deck identified by the payload's
// external file id, then replaces its topics and slides. Everything happens
// in one transaction: on failure nothing is persisted.
func (e *Engine) IngestBatch(ctx context.Context, payload *Payload) (*Result, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	deck := payload.toDeck()
	topics := payload.toTopics()
	slides := payload.toSlides()
	logger := e.logger.With("external_file_id", deck.ExternalFileID)

	var result *Result
	err := e.repo.WithTransaction(ctx, func(ctx context.Context) error {
		stored, err := e.upsertDeck(ctx, deck)
		if err != nil {
			return err
		}

		if len(topics) > 0 {
			if _, err := e.repo.AddTopics(ctx, stored.ID, topics...); err != nil {
				return stageError(StageInsertTopics, err)
			}
		}
		if len(slides) > 0 {
			if _, err := e.repo.AddSlides(ctx, stored.ID, slides...); err != nil {
				return stageError(StageInsertSlides, err)
			}
		}

		result = &Result{DeckID: stored.ID, ExternalFileID: stored.ExternalFileID}
		return nil
	})
	if err != nil {
		logger.Error("batch ingestion failed", "err", err)
		return nil, err
	}

	logger.Info("deck ingested",
		"deck_id", result.DeckID,
		"topics", len(topics),
		"slides", len(slides))
	return result, nil
}

// upsertDeck inserts deck, or clears the children of the existing deck with
// the same external file id and overwrites its metadata.
func (e *Engine) upsertDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error) {
	existing, err := e.repo.GetDeckByExternalID(ctx, deck.ExternalFileID)
	switch {
	case err == nil:
		if err := e.repo.DeleteDeckChildren(ctx, existing.ID); err != nil {
			return nil, stageError(StageDeleteChildren, err)
		}
		deck.ID = existing.ID
		updated, err := e.repo.UpdateDeck(ctx, deck)
		if err != nil {
			return nil, stageError(StageUpdateDeck, err)
		}
		e.logger.Debug("replacing existing deck", "deck_id", updated.ID)
		return updated, nil

	case errors.Is(err, storage.ErrNotFound):
		added, err := e.repo.AddDeck(ctx, deck)
		if err != nil {
			return nil, stageError(StageInsertDeck, err)
		}
		return added, nil

	default:
		return nil, stageError(StageLookupDeck, err)
	}
}

// CreateDeck starts an incremental ingestion. An existing deck with the same
// external file id is reset: its topics and slides are removed and its
// metadata replaced.
func (e *Engine) CreateDeck(ctx context.Context, input DeckInput) (*core.Deck, error) {
	deck := input.toDeck()
	if err := core.ValidateDeck(deck); err != nil {
		return nil, err
	}

	var stored *core.Deck
	err := e.repo.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		stored, err = e.upsertDeck(ctx, deck)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("deck created", "deck_id", stored.ID, "external_file_id", stored.ExternalFileID)
	return stored, nil
}

// AppendTopics embeds each topic summary and stores the topic. Topics whose
// embedding fails are stored without one.
func (e *Engine) AppendTopics(ctx context.Context, deckID core.ID, drafts []analysis.TopicDraft) ([]*core.Topic, error) {
	if _, err := e.repo.GetDeck(ctx, deckID); err != nil {
		return nil, stageError(StageLookupDeck, err)
	}

	stored := make([]*core.Topic, 0, len(drafts))
	for _, draft := range drafts {
		vec, err := e.items.embed(ctx, "topic", draft.Summary)
		if err != nil {
			return stored, err
		}

		topic := &core.Topic{
			Title:            draft.Title,
			Summary:          draft.Summary,
			StoryContext:     core.NormalizeStoryContext(string(draft.StoryContext)),
			Keywords:         draft.Keywords,
			ReuseSuggestions: draft.ReuseSuggestions,
			SlideNumbers:     draft.SlideNumbers,
			Embedding:        vec,
		}
		added, err := e.repo.AddTopics(ctx, deckID, topic)
		if err != nil {
			return stored, stageError(StageInsertTopics, err)
		}
		stored = append(stored, added...)
	}

	e.logger.Info("topics appended", "deck_id", deckID, "topics", len(stored))
	return stored, nil
}

// AppendSlides embeds each slide caption and stores the slide. Slides whose
// embedding fails, or that have no caption, are stored without one.
func (e *Engine) AppendSlides(ctx context.Context, deckID core.ID, inputs []SlideInput) ([]*core.Slide, error) {
	slides := make([]*core.Slide, len(inputs))
	for i, in := range inputs {
		slides[i] = &core.Slide{
			Number:   in.Number,
			Caption:  in.Caption,
			Type:     in.Type,
			Keywords: in.Keywords,
			Reusable: core.NormalizeReusable(in.Reusable),
		}
	}
	if err := core.ValidateSlides(slides); err != nil {
		return nil, err
	}

	if _, err := e.repo.GetDeck(ctx, deckID); err != nil {
		return nil, stageError(StageLookupDeck, err)
	}

	stored := make([]*core.Slide, 0, len(slides))
	for _, slide := range slides {
		vec, err := e.items.embed(ctx, "slide", slide.Caption)
		if err != nil {
			return stored, err
		}
		slide.Embedding = vec

		added, err := e.repo.AddSlides(ctx, deckID, slide)
		if err != nil {
			return stored, stageError(StageInsertSlides, err)
		}
		stored = append(stored, added...)
	}

	e.logger.Info("slides appended", "deck_id", deckID, "slides", len(stored))
	return stored, nil
}

// IngestAnalysis runs the incremental path for a fully analyzed deck.
func (e *Engine) IngestAnalysis(ctx context.Context, doc *Analysis) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrValidation, ErrNilPayload)
	}

	deck, err := e.CreateDeck(ctx, doc.DeckInput)
	if err != nil {
		return nil, err
	}
	if _, err := e.AppendTopics(ctx, deck.ID, doc.Topics); err != nil {
		return nil, err
	}
	if _, err := e.AppendSlides(ctx, deck.ID, doc.Slides); err != nil {
		return nil, err
	}
	return &Result{DeckID: deck.ID, ExternalFileID: deck.ExternalFileID}, nil
}
