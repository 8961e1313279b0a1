// Package storagetest provides a conformance suite for storage.DeckRepository
// implementations. Each backend runs it from its own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty repository. The suite closes it.
type Factory func(t *testing.T) storage.DeckRepository

// Vector returns a full-width embedding whose first components are values and
// whose remaining components are zero.
func Vector(values ...float32) []float32 {
	v := make([]float32, core.EmbeddingDimensions)
	copy(v, values)
	return v
}

// Run executes the conformance suite against repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo storage.DeckRepository)
	}{
		{"DeckLifecycle", testDeckLifecycle},
		{"TopicsAndSlides", testTopicsAndSlides},
		{"Cascade", testCascade},
		{"ReplaceChildren", testReplaceChildren},
		{"VectorSearch", testVectorSearch},
		{"TextSearch", testTextSearch},
		{"UpdateEmbeddings", testUpdateEmbeddings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newRepo(t)
			defer repo.Close()
			tt.fn(t, repo)
		})
	}
}

func testDeckLifecycle(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{
		ExternalFileID: "file-1",
		SourceURL:      "https://example.com/file-1",
		Title:          "Retail Modernization",
		Summary:        "Supply chain rebuild",
		Themes:         []string{"supply_chain"},
	})
	require.NoError(t, err)
	assert.NotZero(t, deck.ID)
	assert.False(t, deck.CreatedAt.IsZero())
	assert.Equal(t, deck.CreatedAt, deck.UpdatedAt)

	t.Run("duplicate external id", func(t *testing.T) {
		_, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "file-1"})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("blank external id", func(t *testing.T) {
		_, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "  "})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("get by id and external id", func(t *testing.T) {
		byID, err := repo.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, "Retail Modernization", byID.Title)
		assert.Equal(t, []string{"supply_chain"}, byID.Themes)

		byExt, err := repo.GetDeckByExternalID(ctx, "file-1")
		require.NoError(t, err)
		assert.Equal(t, deck.ID, byExt.ID)
		assert.Equal(t, "https://example.com/file-1", byExt.SourceURL)
	})

	t.Run("missing decks", func(t *testing.T) {
		_, err := repo.GetDeck(ctx, core.ID(999999))
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = repo.GetDeckByExternalID(ctx, "nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = repo.UpdateDeck(ctx, &core.Deck{ID: 999999, ExternalFileID: "nope"})
		assert.ErrorIs(t, err, storage.ErrNotFound)

		assert.ErrorIs(t, repo.DeleteDeck(ctx, core.ID(999999)), storage.ErrNotFound)
	})

	t.Run("update preserves creation time", func(t *testing.T) {
		updated, err := repo.UpdateDeck(ctx, &core.Deck{
			ID:             deck.ID,
			ExternalFileID: "file-1",
			Title:          "Retail Modernization v2",
		})
		require.NoError(t, err)

		found, err := repo.GetDeck(ctx, deck.ID)
		require.NoError(t, err)
		assert.Equal(t, "Retail Modernization v2", found.Title)
		assert.Empty(t, found.Summary)
		assert.True(t, found.CreatedAt.Equal(deck.CreatedAt))
		assert.False(t, updated.UpdatedAt.Before(deck.UpdatedAt))
	})
}

func testTopicsAndSlides(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "file-2", Title: "Deck"})
	require.NoError(t, err)

	topics, err := repo.AddTopics(ctx, deck.ID,
		&core.Topic{Title: "First", StoryContext: core.StoryContextCredibility, SlideNumbers: []int{1, 2}},
		&core.Topic{Title: "Second", StoryContext: core.StoryContextResults, SlideNumbers: []int{3}, Embedding: Vector(1)},
	)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.NotZero(t, topics[0].ID)
	assert.Equal(t, deck.ID, topics[1].DeckID)

	_, err = repo.AddSlides(ctx, deck.ID,
		&core.Slide{Number: 3, Caption: "Results"},
		&core.Slide{Number: 1, Caption: "Cover", Type: core.SlideTypeCover},
		&core.Slide{Number: 2, Caption: "Team", Reusable: core.ReusableYes},
	)
	require.NoError(t, err)

	t.Run("topics come back in creation order", func(t *testing.T) {
		stored, err := repo.GetTopics(ctx, deck.ID)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "First", stored[0].Title)
		assert.Equal(t, []int{1, 2}, stored[0].SlideNumbers)
		assert.Nil(t, stored[0].Embedding)
		assert.Equal(t, "Second", stored[1].Title)
		assert.Len(t, stored[1].Embedding, core.EmbeddingDimensions)
	})

	t.Run("slides come back ordered by number", func(t *testing.T) {
		stored, err := repo.GetSlides(ctx, deck.ID)
		require.NoError(t, err)
		require.Len(t, stored, 3)
		for i, slide := range stored {
			assert.Equal(t, i+1, slide.Number)
		}
		assert.Equal(t, core.SlideTypeCover, stored[0].Type)
		assert.Equal(t, core.ReusableYes, stored[1].Reusable)
	})

	t.Run("slide number already taken", func(t *testing.T) {
		_, err := repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 2})
		assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	})

	t.Run("duplicate numbers in one call", func(t *testing.T) {
		_, err := repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 7}, &core.Slide{Number: 7})
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("children require a live deck", func(t *testing.T) {
		_, err := repo.AddTopics(ctx, core.ID(999999), &core.Topic{Title: "Orphan"})
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = repo.AddSlides(ctx, core.ID(999999), &core.Slide{Number: 1})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("wrong embedding width", func(t *testing.T) {
		_, err := repo.AddTopics(ctx, deck.ID, &core.Topic{Title: "Short", Embedding: []float32{1, 2, 3}})
		assert.ErrorIs(t, err, core.ErrInvalidEmbedding)

		_, err = repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 9, Embedding: make([]float32, 1535)})
		assert.ErrorIs(t, err, core.ErrInvalidEmbedding)
	})

	t.Run("non-positive slide number", func(t *testing.T) {
		_, err := repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 0})
		assert.ErrorIs(t, err, core.ErrInvalidSlideNumber)
	})
}

func testCascade(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	keep, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "keep"})
	require.NoError(t, err)
	drop, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "drop"})
	require.NoError(t, err)

	for _, deck := range []*core.Deck{keep, drop} {
		_, err := repo.AddTopics(ctx, deck.ID, &core.Topic{Title: "t"})
		require.NoError(t, err)
		_, err = repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 1}, &core.Slide{Number: 2})
		require.NoError(t, err)
	}

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Counts{Decks: 2, Topics: 2, Slides: 4}, *counts)

	require.NoError(t, repo.DeleteDeck(ctx, drop.ID))

	counts, err = repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, storage.Counts{Decks: 1, Topics: 1, Slides: 2}, *counts)

	_, err = repo.GetDeckByExternalID(ctx, "drop")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The external id is free again.
	_, err = repo.AddDeck(ctx, &core.Deck{ExternalFileID: "drop"})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteDeckChildren(ctx, keep.ID))
	topics, err := repo.GetTopics(ctx, keep.ID)
	require.NoError(t, err)
	assert.Empty(t, topics)
	slides, err := repo.GetSlides(ctx, keep.ID)
	require.NoError(t, err)
	assert.Empty(t, slides)

	_, err = repo.GetDeck(ctx, keep.ID)
	require.NoError(t, err)
}

func testReplaceChildren(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "f1", Title: "Original"})
	require.NoError(t, err)
	_, err = repo.AddTopics(ctx, deck.ID, &core.Topic{Title: "a"}, &core.Topic{Title: "b"})
	require.NoError(t, err)
	_, err = repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 1}, &core.Slide{Number: 2}, &core.Slide{Number: 3})
	require.NoError(t, err)

	err = repo.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := repo.GetDeckByExternalID(ctx, "f1")
		if err != nil {
			return err
		}
		if err := repo.DeleteDeckChildren(ctx, existing.ID); err != nil {
			return err
		}
		existing.Title = "Replaced"
		if _, err := repo.UpdateDeck(ctx, existing); err != nil {
			return err
		}
		if _, err := repo.AddTopics(ctx, existing.ID, &core.Topic{Title: "c"}); err != nil {
			return err
		}
		_, err = repo.AddSlides(ctx, existing.ID, &core.Slide{Number: 1})
		return err
	})
	require.NoError(t, err)

	found, err := repo.GetDeckByExternalID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, found.ID)
	assert.Equal(t, "Replaced", found.Title)

	topics, err := repo.GetTopics(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "c", topics[0].Title)

	slides, err := repo.GetSlides(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, slides, 1)
}

func testVectorSearch(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "vec", Title: "Vector Deck"})
	require.NoError(t, err)

	_, err = repo.AddTopics(ctx, deck.ID,
		&core.Topic{Title: "exact", Embedding: Vector(1, 0)},
		&core.Topic{Title: "close", Embedding: Vector(0.8, 0.6)},
		&core.Topic{Title: "orthogonal", Embedding: Vector(0, 1)},
		&core.Topic{Title: "unembedded"},
	)
	require.NoError(t, err)
	_, err = repo.AddSlides(ctx, deck.ID,
		&core.Slide{Number: 1, Caption: "close", Embedding: Vector(0.8, 0.6)},
		&core.Slide{Number: 2, Caption: "far", Embedding: Vector(-1, 0)},
		&core.Slide{Number: 3, Caption: "unembedded"},
	)
	require.NoError(t, err)

	t.Run("topics above threshold sorted by similarity", func(t *testing.T) {
		matches, err := repo.FindSimilarTopics(ctx, Vector(1, 0), 0.7, 10)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "exact", matches[0].Topic.Title)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-5)
		assert.Equal(t, "close", matches[1].Topic.Title)
		assert.InDelta(t, 0.8, matches[1].Similarity, 1e-5)
		assert.Equal(t, "Vector Deck", matches[0].DeckTitle)
	})

	t.Run("limit truncates", func(t *testing.T) {
		matches, err := repo.FindSimilarTopics(ctx, Vector(1, 0), 0.0, 1)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "exact", matches[0].Topic.Title)
	})

	t.Run("slides", func(t *testing.T) {
		matches, err := repo.FindSimilarSlides(ctx, Vector(1, 0), 0.6, 10)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, 1, matches[0].Slide.Number)
		assert.Equal(t, "Vector Deck", matches[0].DeckTitle)
	})

	t.Run("empty query vector", func(t *testing.T) {
		_, err := repo.FindSimilarTopics(ctx, nil, 0.7, 10)
		assert.ErrorIs(t, err, storage.ErrInvalidQuery)
	})
}

func testTextSearch(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{
		ExternalFileID: "text",
		Title:          "Retail AI Strategy",
		Summary:        "How stores adopt forecasting",
	})
	require.NoError(t, err)
	_, err = repo.AddDeck(ctx, &core.Deck{ExternalFileID: "other", Title: "Banking"})
	require.NoError(t, err)

	_, err = repo.AddTopics(ctx, deck.ID,
		&core.Topic{Title: "Demand Forecasting", Summary: "Models"},
		&core.Topic{Title: "Team", Summary: "Who we are"},
	)
	require.NoError(t, err)
	_, err = repo.AddSlides(ctx, deck.ID,
		&core.Slide{Number: 1, Caption: "FORECASTING accuracy chart"},
		&core.Slide{Number: 2, Caption: "Team photo"},
		&core.Slide{Number: 3},
	)
	require.NoError(t, err)

	decks, err := repo.SearchDecks(ctx, "forecasting", 10)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, deck.ID, decks[0].ID)

	topics, err := repo.SearchTopics(ctx, "Forecasting", 10)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "Demand Forecasting", topics[0].Topic.Title)
	assert.Equal(t, "Retail AI Strategy", topics[0].DeckTitle)

	slides, err := repo.SearchSlides(ctx, "forecasting", 10)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, 1, slides[0].Slide.Number)

	slides, err = repo.SearchSlides(ctx, "a", 1)
	require.NoError(t, err)
	assert.Len(t, slides, 1)

	decks, err = repo.SearchDecks(ctx, "   ", 10)
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func testUpdateEmbeddings(t *testing.T, repo storage.DeckRepository) {
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "backfill"})
	require.NoError(t, err)
	topics, err := repo.AddTopics(ctx, deck.ID, &core.Topic{Title: "t", Summary: "s"})
	require.NoError(t, err)
	slides, err := repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 4, Caption: "c"})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateTopicEmbedding(ctx, topics[0].ID, Vector(0, 1)))
	require.NoError(t, repo.UpdateSlideEmbedding(ctx, slides[0].ID, Vector(0, 1)))

	topicMatches, err := repo.FindSimilarTopics(ctx, Vector(0, 1), 0.9, 5)
	require.NoError(t, err)
	require.Len(t, topicMatches, 1)
	assert.Equal(t, topics[0].ID, topicMatches[0].Topic.ID)

	slideMatches, err := repo.FindSimilarSlides(ctx, Vector(0, 1), 0.9, 5)
	require.NoError(t, err)
	require.Len(t, slideMatches, 1)
	assert.Equal(t, 4, slideMatches[0].Slide.Number)

	assert.ErrorIs(t, repo.UpdateTopicEmbedding(ctx, core.ID(999999), Vector(1)), storage.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateSlideEmbedding(ctx, core.ID(999999), Vector(1)), storage.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateTopicEmbedding(ctx, topics[0].ID, []float32{1}), core.ErrInvalidEmbedding)
}
