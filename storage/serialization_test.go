package storage

import (
	"testing"
	"time"

	"github.com/poiesic/deckdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalID(t *testing.T) {
	tests := []struct {
		name string
		id   core.ID
	}{
		{"zero ID", core.ID(0)},
		{"small ID", core.ID(42)},
		{"large ID", core.ID(18446744073709551615)}, // max uint64
		{"content-based ID", core.IDFromContent("test content")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalID(tt.id)
			require.NotEmpty(t, data)

			decoded, err := UnmarshalID(data)
			require.NoError(t, err)
			assert.Equal(t, tt.id, decoded)
		})
	}
}

func TestUnmarshalID_Invalid(t *testing.T) {
	_, err := UnmarshalID([]byte{})
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalDeck(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	tests := []struct {
		name string
		deck *core.Deck
	}{
		{
			name: "full deck",
			deck: &core.Deck{
				ID:             7,
				ExternalFileID: "file-123",
				SourceURL:      "https://example.com/deck",
				Title:          "Retail Modernization",
				Summary:        "How a retailer rebuilt its supply chain.",
				Themes:         []string{"supply_chain", "ai"},
				Audiences:      []string{"cto"},
				UseCases:       []string{"pitch", "workshop"},
				CreatedAt:      now,
				UpdatedAt:      now.Add(time.Minute),
			},
		},
		{
			name: "minimal deck",
			deck: &core.Deck{
				ID:             1,
				ExternalFileID: "f",
			},
		},
		{
			name: "unicode content",
			deck: &core.Deck{
				ID:             2,
				ExternalFileID: "ü-42",
				Title:          "Präsentation 🚀",
				CreatedAt:      now,
				UpdatedAt:      now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := MarshalDeck(tt.deck)
			decoded, err := UnmarshalDeck(data)
			require.NoError(t, err)
			assert.Equal(t, tt.deck, decoded)
		})
	}
}

func TestUnmarshalDeck_Truncated(t *testing.T) {
	data := MarshalDeck(&core.Deck{ID: 3, ExternalFileID: "file", Title: "A reasonably long title"})
	_, err := UnmarshalDeck(data[:len(data)/2])
	assert.ErrorIs(t, err, ErrSerializationFailed)
}

func TestMarshalUnmarshalTopic(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	embedding := make([]float32, core.EmbeddingDimensions)
	for i := range embedding {
		embedding[i] = float32(i) / 1000
	}

	topic := &core.Topic{
		ID:               11,
		DeckID:           7,
		Title:            "Inventory Forecasting",
		Summary:          "Demand models cut stockouts by 30%.",
		StoryContext:     core.StoryContextResults,
		Keywords:         []string{"forecasting", "inventory"},
		ReuseSuggestions: []string{"Use in retail pitches"},
		SlideNumbers:     []int{4, 5, 6},
		Embedding:        embedding,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	decoded, err := UnmarshalTopic(MarshalTopic(topic))
	require.NoError(t, err)
	assert.Equal(t, topic, decoded)

	topic.Embedding = nil
	decoded, err = UnmarshalTopic(MarshalTopic(topic))
	require.NoError(t, err)
	assert.Nil(t, decoded.Embedding)
}

func TestMarshalUnmarshalSlide(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)

	slide := &core.Slide{
		ID:        21,
		DeckID:    7,
		Number:    12,
		Caption:   "Quarterly stockout rate by region",
		Type:      core.SlideTypeDataChart,
		Keywords:  []string{"stockouts"},
		Reusable:  core.ReusableNeedsEdit,
		Embedding: []float32{0.25, -0.5, 1},
		CreatedAt: now,
		UpdatedAt: now,
	}

	decoded, err := UnmarshalSlide(MarshalSlide(slide))
	require.NoError(t, err)
	assert.Equal(t, slide, decoded)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestRankTopics(t *testing.T) {
	matches := []*TopicMatch{
		{Topic: &core.Topic{ID: 1}, Similarity: 0.4},
		{Topic: &core.Topic{ID: 2}, Similarity: 0.9},
		{Topic: &core.Topic{ID: 3}, Similarity: 0.6},
	}

	ranked := RankTopics(matches, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, core.ID(2), ranked[0].Topic.ID)
	assert.Equal(t, core.ID(3), ranked[1].Topic.ID)
}

func TestTextMatcher(t *testing.T) {
	m := NewTextMatcher("  Supply CHAIN ")
	assert.True(t, m.Matches("Retail", "Rebuilding the supply chain"))
	assert.False(t, m.Matches("Retail", "Logistics"))
	assert.False(t, NewTextMatcher("   ").Matches("anything"))
}

func TestUnmarshalNormalizesDecodedValues(t *testing.T) {
	t.Run("zero timestamps stay zero", func(t *testing.T) {
		decoded, err := UnmarshalSlide(MarshalSlide(&core.Slide{ID: 1, DeckID: 2, Number: 1}))
		require.NoError(t, err)
		assert.True(t, decoded.CreatedAt.IsZero())
		assert.Equal(t, time.Time{}, decoded.UpdatedAt)
	})

	t.Run("timestamps decode in UTC", func(t *testing.T) {
		local := time.Date(2025, 3, 4, 5, 6, 7, 8000, time.FixedZone("test", 3600))
		decoded, err := UnmarshalDeck(MarshalDeck(&core.Deck{ID: 1, CreatedAt: local, UpdatedAt: local}))
		require.NoError(t, err)
		assert.Equal(t, time.UTC, decoded.CreatedAt.Location())
		assert.True(t, local.Equal(decoded.CreatedAt))
	})

	t.Run("empty collections decode as nil", func(t *testing.T) {
		decoded, err := UnmarshalTopic(MarshalTopic(&core.Topic{ID: 1, DeckID: 2, Keywords: []string{}, Embedding: []float32{}}))
		require.NoError(t, err)
		assert.Nil(t, decoded.Keywords)
		assert.Nil(t, decoded.Embedding)
		assert.Nil(t, decoded.SlideNumbers)
	})

	t.Run("truncated slide is rejected", func(t *testing.T) {
		data := MarshalSlide(&core.Slide{ID: 1, DeckID: 2, Caption: "caption", Embedding: []float32{1, 2, 3}})
		_, err := UnmarshalSlide(data[:len(data)-3])
		assert.ErrorIs(t, err, ErrSerializationFailed)
	})
}
