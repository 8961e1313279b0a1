package badger

import (
	"context"
	"testing"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"github.com/poiesic/deckdex/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) storage.DeckRepository {
	repo, err := NewMemoryRepository()
	require.NoError(t, err)
	return repo
}

func TestDeckRepositoryConformance(t *testing.T) {
	storagetest.Run(t, newTestRepository)
}

func TestExternalIndexSurvivesRename(t *testing.T) {
	repo := newTestRepository(t)
	defer repo.Close()
	ctx := context.Background()

	deck, err := repo.AddDeck(ctx, &core.Deck{ExternalFileID: "old-id"})
	require.NoError(t, err)

	deck.ExternalFileID = "new-id"
	_, err = repo.UpdateDeck(ctx, deck)
	require.NoError(t, err)

	_, err = repo.GetDeckByExternalID(ctx, "old-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	found, err := repo.GetDeckByExternalID(ctx, "new-id")
	require.NoError(t, err)
	assert.Equal(t, deck.ID, found.ID)
}

func TestSequencesSkipZero(t *testing.T) {
	repo := newTestRepository(t)
	defer repo.Close()

	deck, err := repo.AddDeck(context.Background(), &core.Deck{ExternalFileID: "first"})
	require.NoError(t, err)
	assert.NotEqual(t, core.ID(0), deck.ID)
}

func TestKeysOrderNumerically(t *testing.T) {
	assert.Less(t, string(makeSlideKey(1, 2)), string(makeSlideKey(1, 10)))
	assert.Less(t, string(makeTopicKey(1, 255)), string(makeTopicKey(1, 256)))
	assert.Less(t, string(makeSlideKey(1, 999)), string(makeSlideKey(2, 1)))
}
