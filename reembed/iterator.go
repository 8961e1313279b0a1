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


package reembed

import (
	"context"
	"strings"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

const (
	// DefaultBatchSize is the default number of items to embed in each batch
	DefaultBatchSize = 100
)

// ItemKind names the entity an Item was read from.
type ItemKind string

const (
	KindTopic ItemKind = "topic"
	KindSlide ItemKind = "slide"
)

// Item is one embeddable topic or slide.
type Item struct {
	Kind ItemKind
	ID   core.ID
	Text string
}

// Selection is the set of items chosen for re-embedding.
type Selection struct {
	Items   []Item
	Skipped int // Items with blank text or, in missing-only mode, an existing vector
}

// ItemIterator walks stored topics and slides in batches.
type ItemIterator struct {
	repo        storage.DeckRepository
	batchSize   int
	missingOnly bool
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items per batch (defaults when <= 0)
// missingOnly: select only items stored without an embedding
func NewItemIterator(repo storage.DeckRepository, batchSize int, missingOnly bool) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		repo:        repo,
		batchSize:   batchSize,
		missingOnly: missingOnly,
	}
}

// Select reads every topic and slide and keeps the ones to re-embed.
// Topics come first, in storage order, followed by slides.
func (it *ItemIterator) Select(ctx context.Context) (*Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	topics, err := it.repo.AllTopics(ctx)
	if err != nil {
		return nil, err
	}
	slides, err := it.repo.AllSlides(ctx)
	if err != nil {
		return nil, err
	}

	sel := &Selection{Items: make([]Item, 0, len(topics)+len(slides))}
	for _, topic := range topics {
		sel.add(KindTopic, topic.ID, topic.Summary, topic.Embedding, it.missingOnly)
	}
	for _, slide := range slides {
		sel.add(KindSlide, slide.ID, slide.Caption, slide.Embedding, it.missingOnly)
	}
	return sel, nil
}

func (s *Selection) add(kind ItemKind, id core.ID, text string, embedding []float32, missingOnly bool) {
	if strings.TrimSpace(text) == "" || (missingOnly && len(embedding) > 0) {
		s.Skipped++
		return
	}
	s.Items = append(s.Items, Item{Kind: kind, ID: id, Text: text})
}

// ForEach calls fn for each batch of items.
// Iteration stops on first error from fn or when all items are processed.
// Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, items []Item, fn func([]Item) error) error {
	for i := 0; i < len(items); i += it.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+it.batchSize, len(items))
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}

	return ctx.Err()
}
