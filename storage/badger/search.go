package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// deckTitles caches deck titles for the duration of one read transaction.
type deckTitles struct {
	repo   *DeckRepository
	tx     *badger.Txn
	titles map[core.ID]string
}

func (d *deckTitles) get(id core.ID) (string, error) {
	if title, ok := d.titles[id]; ok {
		return title, nil
	}
	deck, err := d.repo.readDeck(d.tx, id)
	if err != nil {
		return "", err
	}
	title := ""
	if deck != nil {
		title = deck.Title
	}
	d.titles[id] = title
	return title, nil
}

func (r *DeckRepository) newDeckTitles(tx *badger.Txn) *deckTitles {
	return &deckTitles{repo: r, tx: tx, titles: make(map[core.ID]string)}
}

// FindSimilarTopics scans every topic embedding and keeps those at or above
// minSimilarity.
func (r *DeckRepository) FindSimilarTopics(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.TopicMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	var results []*storage.TopicMatch

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		err := scanPrefix(tx, []byte(topicPrefix), storage.UnmarshalTopic, func(_ []byte, t *core.Topic) bool {
			// Skip topics without embeddings
			if len(t.Embedding) == 0 {
				return true
			}
			similarity := storage.CosineSimilarity(vector, t.Embedding)
			if similarity >= minSimilarity {
				results = append(results, &storage.TopicMatch{Topic: t, Similarity: similarity})
			}
			return true
		})
		if err != nil {
			return err
		}
		results = storage.RankTopics(results, limit)

		titles := r.newDeckTitles(tx)
		for _, m := range results {
			if m.DeckTitle, err = titles.get(m.Topic.DeckID); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindSimilarSlides scans every slide embedding and keeps those at or above
// minSimilarity.
func (r *DeckRepository) FindSimilarSlides(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.SlideMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	var results []*storage.SlideMatch

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		err := scanPrefix(tx, []byte(slidePrefix), storage.UnmarshalSlide, func(_ []byte, s *core.Slide) bool {
			if len(s.Embedding) == 0 {
				return true
			}
			similarity := storage.CosineSimilarity(vector, s.Embedding)
			if similarity >= minSimilarity {
				results = append(results, &storage.SlideMatch{Slide: s, Similarity: similarity})
			}
			return true
		})
		if err != nil {
			return err
		}
		results = storage.RankSlides(results, limit)

		titles := r.newDeckTitles(tx)
		for _, m := range results {
			if m.DeckTitle, err = titles.get(m.Slide.DeckID); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchDecks matches the query against deck titles and summaries.
func (r *DeckRepository) SearchDecks(ctx context.Context, query string, limit int) ([]*core.Deck, error) {
	matcher := storage.NewTextMatcher(query)
	var results []*core.Deck

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(deckPrefix), storage.UnmarshalDeck, func(_ []byte, d *core.Deck) bool {
			if matcher.Matches(d.Title, d.Summary) {
				results = append(results, d)
			}
			return limit <= 0 || len(results) < limit
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchTopics matches the query against topic titles and summaries.
func (r *DeckRepository) SearchTopics(ctx context.Context, query string, limit int) ([]*storage.TopicMatch, error) {
	matcher := storage.NewTextMatcher(query)
	var results []*storage.TopicMatch

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		err := scanPrefix(tx, []byte(topicPrefix), storage.UnmarshalTopic, func(_ []byte, t *core.Topic) bool {
			if matcher.Matches(t.Title, t.Summary) {
				results = append(results, &storage.TopicMatch{Topic: t})
			}
			return limit <= 0 || len(results) < limit
		})
		if err != nil {
			return err
		}
		titles := r.newDeckTitles(tx)
		for _, m := range results {
			if m.DeckTitle, err = titles.get(m.Topic.DeckID); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchSlides matches the query against slide captions.
func (r *DeckRepository) SearchSlides(ctx context.Context, query string, limit int) ([]*storage.SlideMatch, error) {
	matcher := storage.NewTextMatcher(query)
	var results []*storage.SlideMatch

	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		err := scanPrefix(tx, []byte(slidePrefix), storage.UnmarshalSlide, func(_ []byte, s *core.Slide) bool {
			if matcher.Matches(s.Caption) {
				results = append(results, &storage.SlideMatch{Slide: s})
			}
			return limit <= 0 || len(results) < limit
		})
		if err != nil {
			return err
		}
		titles := r.newDeckTitles(tx)
		for _, m := range results {
			if m.DeckTitle, err = titles.get(m.Slide.DeckID); err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}
