package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/ai/mock"
	"github.com/poiesic/deckdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T) (*Generator, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	g, err := NewGenerator(embedder)
	require.NoError(t, err)
	return g, embedder
}

func TestNewGenerator(t *testing.T) {
	t.Run("requires embedder", func(t *testing.T) {
		g, err := NewGenerator(nil)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
		assert.Nil(t, g)
	})

	t.Run("nil logger falls back to default", func(t *testing.T) {
		g, err := NewGenerator(mock.NewMockEmbedder(), WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, g.logger)
	})
}

func TestEmbedText(t *testing.T) {
	ctx := context.Background()

	t.Run("returns provider vector", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		vec, err := g.EmbedText(ctx, "pricing strategy")
		require.NoError(t, err)
		assert.Len(t, vec, core.EmbeddingDimensions)
		assert.Equal(t, mock.DeterministicVector("pricing strategy"), vec)
		assert.Equal(t, 1, embedder.CallCount())
	})

	blank := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"mixed whitespace", "\n\t \r\n"},
	}
	for _, tc := range blank {
		t.Run("rejects "+tc.name+" text without calling provider", func(t *testing.T) {
			g, embedder := newTestGenerator(t)

			vec, err := g.EmbedText(ctx, tc.text)
			require.Error(t, err)
			assert.Nil(t, vec)
			assert.ErrorIs(t, err, core.ErrEmptyText)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.Equal(t, 0, embedder.CallCount())
		})
	}

	t.Run("truncates long input to max runes", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		long := strings.Repeat("é", MaxInputRunes+500)
		_, err := g.EmbedText(ctx, long)
		require.NoError(t, err)

		texts := embedder.Texts()
		require.Len(t, texts, 1)
		assert.Equal(t, MaxInputRunes, utf8.RuneCountInString(texts[0]))
		assert.True(t, strings.HasPrefix(long, texts[0]))
	})

	t.Run("input at limit is passed unchanged", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		exact := strings.Repeat("a", MaxInputRunes)
		_, err := g.EmbedText(ctx, exact)
		require.NoError(t, err)
		assert.Equal(t, []string{exact}, embedder.Texts())
	})

	t.Run("rejects wrong dimensions", func(t *testing.T) {
		for _, size := range []int{0, 3, core.EmbeddingDimensions - 1, core.EmbeddingDimensions + 1} {
			g, embedder := newTestGenerator(t)
			embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
				return make([]float32, size), nil
			}

			vec, err := g.EmbedText(ctx, "hello")
			assert.ErrorIs(t, err, core.ErrInvalidEmbedding, "size %d", size)
			assert.Nil(t, vec)
		}
	})

	t.Run("wraps provider failure", func(t *testing.T) {
		g, embedder := newTestGenerator(t)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.New("rate limited")
		}

		_, err := g.EmbedText(ctx, "hello")
		require.Error(t, err)
		assert.ErrorIs(t, err, ai.ErrEmbeddingProvider)
		assert.Equal(t, "embedding provider error: rate limited", err.Error())
	})

	t.Run("does not double wrap provider errors", func(t *testing.T) {
		g, embedder := newTestGenerator(t)
		embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
			return nil, errors.Join(ai.ErrEmbeddingProvider, errors.New("boom"))
		}

		_, err := g.EmbedText(ctx, "hello")
		require.Error(t, err)
		assert.Equal(t, 1, strings.Count(err.Error(), "embedding provider error"))
	})
}

func TestEmbedTexts(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch makes no call", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		vecs, err := g.EmbedTexts(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, vecs)
		assert.Equal(t, 0, embedder.CallCount())
	})

	t.Run("preserves order", func(t *testing.T) {
		g, _ := newTestGenerator(t)

		vecs, err := g.EmbedTexts(ctx, []string{"one", "two"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Equal(t, mock.DeterministicVector("one"), vecs[0])
		assert.Equal(t, mock.DeterministicVector("two"), vecs[1])
	})

	t.Run("rejects batch containing blank text", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		_, err := g.EmbedTexts(ctx, []string{"one", " "})
		assert.ErrorIs(t, err, core.ErrEmptyText)
		assert.Contains(t, err.Error(), "text 1")
		assert.Equal(t, 0, embedder.CallCount())
	})

	t.Run("truncates each element", func(t *testing.T) {
		g, embedder := newTestGenerator(t)

		_, err := g.EmbedTexts(ctx, []string{"short", strings.Repeat("x", MaxInputRunes+1)})
		require.NoError(t, err)

		texts := embedder.Texts()
		require.Len(t, texts, 2)
		assert.Equal(t, "short", texts[0])
		assert.Len(t, texts[1], MaxInputRunes)
	})

	t.Run("detects count mismatch", func(t *testing.T) {
		g, embedder := newTestGenerator(t)
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{mock.AxisVector(0)}, nil
		}

		_, err := g.EmbedTexts(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, ErrResultMismatch)
		assert.ErrorIs(t, err, ai.ErrEmbeddingProvider)
	})

	t.Run("rejects wrong dimension element", func(t *testing.T) {
		g, embedder := newTestGenerator(t)
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return [][]float32{mock.AxisVector(0), {1, 2, 3}}, nil
		}

		_, err := g.EmbedTexts(ctx, []string{"a", "b"})
		assert.ErrorIs(t, err, core.ErrInvalidEmbedding)
		assert.Contains(t, err.Error(), "text 1")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}
