package sqlite

import (
	"context"
	"database/sql/driver"
	"math"
	"path/filepath"
	"testing"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"github.com/poiesic/deckdex/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) storage.DeckRepository {
	repo, err := OpenMemory()
	require.NoError(t, err)
	return repo
}

func TestStoreConformance(t *testing.T) {
	storagetest.Run(t, newTestStore)
}

func TestOpen_FileSystem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deckdex.db")
	ctx := context.Background()

	repo, err := Open(path)
	require.NoError(t, err)
	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "durable", Title: "Durable"})
	require.NoError(t, err)
	_, err = repo.AddSlides(ctx, deck.ID, &core.Slide{Number: 1, Embedding: storagetest.Vector(1)})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = Open(path)
	require.NoError(t, err)
	defer repo.Close()

	found, err := repo.GetDeckByExternalID(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, found.ID)

	slides, err := repo.GetSlides(ctx, deck.ID)
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, storagetest.Vector(1), slides[0].Embedding)
}

func TestEmbeddingEncoding(t *testing.T) {
	vec := []float32{0.5, -1.25, 3}
	decoded, err := decodeEmbedding(encodeEmbedding(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, decoded)

	assert.Nil(t, encodeEmbedding(nil))

	_, err = decodeEmbedding([]byte{1, 2, 3})
	assert.ErrorIs(t, err, storage.ErrSerializationFailed)
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%\_done%`, likePattern(" 100%_done "))
}

func TestVecCosine(t *testing.T) {
	got, err := vecCosine(nil, []driver.Value{encodeEmbedding([]float32{1, 0}), encodeEmbedding([]float32{1, 0})})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-6)

	got, err = vecCosine(nil, []driver.Value{nil, encodeEmbedding([]float32{1, 0})})
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = vecCosine(nil, []driver.Value{"text", "text"})
	assert.Error(t, err)
}

func TestListEncoding(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		s, err := encodeList[string](nil)
		require.NoError(t, err)
		assert.Equal(t, "[]", s)

		out, err := decodeList[string](s)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("round trip", func(t *testing.T) {
		s, err := encodeList([]int{3, 1, 2})
		require.NoError(t, err)
		out, err := decodeList[int](s)
		require.NoError(t, err)
		assert.Equal(t, []int{3, 1, 2}, out)
	})

	t.Run("unencodable value is reported", func(t *testing.T) {
		_, err := encodeList([]float64{math.NaN()})
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})

	t.Run("deck lists", func(t *testing.T) {
		themes, audiences, useCases, err := deckLists(&core.Deck{Themes: []string{"ai"}, UseCases: []string{"pitch"}})
		require.NoError(t, err)
		assert.Equal(t, `["ai"]`, themes)
		assert.Equal(t, "[]", audiences)
		assert.Equal(t, `["pitch"]`, useCases)
	})
}
