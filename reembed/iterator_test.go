package reembed

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemIterator_SelectAll(t *testing.T) {
	fx := seedRepo(t)

	sel, err := NewItemIterator(fx.repo, 10, false).Select(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, sel.Skipped, "blank topic and blank slide")
	require.Len(t, sel.Items, 4)
	assert.Equal(t, Item{Kind: KindTopic, ID: fx.topics[0].ID, Text: "pricing strategy"}, sel.Items[0])
	assert.Equal(t, Item{Kind: KindTopic, ID: fx.topics[1].ID, Text: "market sizing"}, sel.Items[1])
	assert.Equal(t, Item{Kind: KindSlide, ID: fx.slides[0].ID, Text: "cover slide"}, sel.Items[2])
	assert.Equal(t, Item{Kind: KindSlide, ID: fx.slides[1].ID, Text: "revenue chart"}, sel.Items[3])
}

func TestItemIterator_SelectMissingOnly(t *testing.T) {
	fx := seedRepo(t)

	sel, err := NewItemIterator(fx.repo, 10, true).Select(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, sel.Skipped)
	require.Len(t, sel.Items, 2)
	assert.Equal(t, fx.topics[0].ID, sel.Items[0].ID)
	assert.Equal(t, fx.slides[0].ID, sel.Items[1].ID)
}

func TestItemIterator_SelectCanceled(t *testing.T) {
	fx := seedRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewItemIterator(fx.repo, 10, false).Select(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestItemIterator_ForEachBatches(t *testing.T) {
	items := make([]Item, 7)
	for i := range items {
		items[i] = Item{Kind: KindSlide, Text: "x"}
	}

	var sizes []int
	err := NewItemIterator(nil, 3, false).ForEach(context.Background(), items, func(batch []Item) error {
		sizes = append(sizes, len(batch))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, sizes)
}

func TestItemIterator_ForEachStopsOnError(t *testing.T) {
	items := make([]Item, 5)
	boom := errors.New("boom")

	calls := 0
	err := NewItemIterator(nil, 2, false).ForEach(context.Background(), items, func(batch []Item) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestItemIterator_ForEachCanceledBetweenBatches(t *testing.T) {
	items := make([]Item, 6)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := NewItemIterator(nil, 2, false).ForEach(ctx, items, func(batch []Item) error {
		calls++
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestNewItemIterator_DefaultBatchSize(t *testing.T) {
	assert.Equal(t, DefaultBatchSize, NewItemIterator(nil, 0, false).batchSize)
	assert.Equal(t, DefaultBatchSize, NewItemIterator(nil, -5, false).batchSize)
}
