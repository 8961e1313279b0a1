package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// DeckRepository implements storage.DeckRepository for BadgerDB.
type DeckRepository struct {
	backend     *Backend
	ownsBackend bool
	deckSeq     *badger.Sequence
	topicSeq    *badger.Sequence
	slideSeq    *badger.Sequence
}

var _ storage.DeckRepository = (*DeckRepository)(nil)

// NewRepository opens (or creates) a BadgerDB database at path and returns a
// repository that owns it. Close releases the database.
func NewRepository(path string) (storage.DeckRepository, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	repo, err := newDeckRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	repo.ownsBackend = true
	return repo, nil
}

func newDeckRepository(backend *Backend) (*DeckRepository, error) {
	repo := &DeckRepository{backend: backend}
	var err error
	if repo.deckSeq, err = backend.GetSequence(deckIDSeq); err != nil {
		return nil, err
	}
	if repo.topicSeq, err = backend.GetSequence(topicIDSeq); err != nil {
		repo.releaseSequences()
		return nil, err
	}
	if repo.slideSeq, err = backend.GetSequence(slideIDSeq); err != nil {
		repo.releaseSequences()
		return nil, err
	}
	return repo, nil
}

func (r *DeckRepository) releaseSequences() error {
	var firstErr error
	for _, seq := range []*badger.Sequence{r.deckSeq, r.topicSeq, r.slideSeq} {
		if seq == nil {
			continue
		}
		if err := seq.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close releases the ID sequences, and the database if the repository owns it.
func (r *DeckRepository) Close() error {
	err := r.releaseSequences()
	if r.ownsBackend && !r.backend.IsClosed() {
		if cerr := r.backend.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// WithTransaction delegates to the backend.
func (r *DeckRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// nextID draws from seq, skipping 0 which means "no entity".
func nextID(seq *badger.Sequence) (core.ID, error) {
	id, err := seq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if id == 0 {
		if id, err = seq.Next(); err != nil {
			return 0, err
		}
	}
	return core.ID(id), nil
}

// AddDeck inserts a new deck.
func (r *DeckRepository) AddDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error) {
	if err := core.ValidateDeck(deck); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		existing, err := r.readDeckByExternalID(tx, deck.ExternalFileID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: deck with external file id %q", storage.ErrDuplicateKey, deck.ExternalFileID)
		}
		if err := r.occupiedExternalKey(tx, deck.ExternalFileID); err != nil {
			return err
		}

		if deck.ID, err = nextID(r.deckSeq); err != nil {
			return err
		}
		deck.CreatedAt = now()
		deck.UpdatedAt = deck.CreatedAt

		if err := tx.Set(makeDeckKey(deck.ID), storage.MarshalDeck(deck)); err != nil {
			return err
		}
		return tx.Set(makeDeckExternalKey(deck.ExternalFileID), storage.MarshalID(deck.ID))
	}, true)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// occupiedExternalKey rejects an external id whose index slot already points
// at a deck with a different external id.
func (r *DeckRepository) occupiedExternalKey(tx *badger.Txn, externalFileID string) error {
	_, found, err := readValue(tx, makeDeckExternalKey(externalFileID), storage.UnmarshalID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: external file id %q collides with an indexed deck", storage.ErrDuplicateKey, externalFileID)
	}
	return nil
}

// UpdateDeck replaces a deck's metadata.
func (r *DeckRepository) UpdateDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error) {
	if err := core.ValidateDeck(deck); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		old, err := r.readDeck(tx, deck.ID)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if old.ExternalFileID != deck.ExternalFileID {
			if err := r.occupiedExternalKey(tx, deck.ExternalFileID); err != nil {
				return err
			}
			if err := tx.Delete(makeDeckExternalKey(old.ExternalFileID)); err != nil {
				return err
			}
			if err := tx.Set(makeDeckExternalKey(deck.ExternalFileID), storage.MarshalID(deck.ID)); err != nil {
				return err
			}
		}

		deck.CreatedAt = old.CreatedAt
		deck.UpdatedAt = now()
		return tx.Set(makeDeckKey(deck.ID), storage.MarshalDeck(deck))
	}, true)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// GetDeck retrieves a deck by ID.
func (r *DeckRepository) GetDeck(ctx context.Context, id core.ID) (*core.Deck, error) {
	var result *core.Deck
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = r.readDeck(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDeckByExternalID retrieves a deck by its external file id.
func (r *DeckRepository) GetDeckByExternalID(ctx context.Context, externalFileID string) (*core.Deck, error) {
	var result *core.Deck
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		var err error
		result, err = r.readDeckByExternalID(tx, externalFileID)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteDeck removes a deck and cascades to its topics and slides.
func (r *DeckRepository) DeleteDeck(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		deck, err := r.readDeck(tx, id)
		if err != nil {
			return err
		}
		if deck == nil {
			return storage.ErrNotFound
		}
		if err := r.deleteChildren(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(makeDeckExternalKey(deck.ExternalFileID)); err != nil {
			return err
		}
		return tx.Delete(makeDeckKey(id))
	}, true)
}

// DeleteDeckChildren removes every topic and slide of a deck.
func (r *DeckRepository) DeleteDeckChildren(ctx context.Context, deckID core.ID) error {
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return r.deleteChildren(tx, deckID)
	}, true)
}

func (r *DeckRepository) deleteChildren(tx *badger.Txn, deckID core.ID) error {
	// Keys are collected before deleting so no iterator is open during writes.
	var keys [][]byte
	err := scanPrefix(tx, makeDeckTopicsPrefix(deckID), storage.UnmarshalTopic, func(key []byte, t *core.Topic) bool {
		keys = append(keys, key, makeTopicIndexKey(t.ID))
		return true
	})
	if err != nil {
		return err
	}
	err = scanPrefix(tx, makeDeckSlidesPrefix(deckID), storage.UnmarshalSlide, func(key []byte, s *core.Slide) bool {
		keys = append(keys, key, makeSlideIndexKey(s.ID))
		return true
	})
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// AddTopics inserts topics for a deck.
func (r *DeckRepository) AddTopics(ctx context.Context, deckID core.ID, topics ...*core.Topic) ([]*core.Topic, error) {
	for _, topic := range topics {
		if err := core.ValidateTopic(topic); err != nil {
			return nil, err
		}
	}
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		if err := r.requireDeck(tx, deckID); err != nil {
			return err
		}
		ts := now()
		for _, topic := range topics {
			id, err := nextID(r.topicSeq)
			if err != nil {
				return err
			}
			topic.ID = id
			topic.DeckID = deckID
			topic.CreatedAt = ts
			topic.UpdatedAt = ts

			key := makeTopicKey(deckID, id)
			if err := tx.Set(key, storage.MarshalTopic(topic)); err != nil {
				return err
			}
			if err := tx.Set(makeTopicIndexKey(id), key); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// AddSlides inserts slides for a deck.
func (r *DeckRepository) AddSlides(ctx context.Context, deckID core.ID, slides ...*core.Slide) ([]*core.Slide, error) {
	if err := core.ValidateSlides(slides); err != nil {
		return nil, err
	}
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		if err := r.requireDeck(tx, deckID); err != nil {
			return err
		}
		ts := now()
		for _, slide := range slides {
			key := makeSlideKey(deckID, slide.Number)
			_, taken, err := readValue(tx, key, storage.UnmarshalSlide)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: slide %d of deck %d", storage.ErrDuplicateKey, slide.Number, deckID)
			}

			if slide.ID, err = nextID(r.slideSeq); err != nil {
				return err
			}
			slide.DeckID = deckID
			slide.CreatedAt = ts
			slide.UpdatedAt = ts

			if err := tx.Set(key, storage.MarshalSlide(slide)); err != nil {
				return err
			}
			if err := tx.Set(makeSlideIndexKey(slide.ID), key); err != nil {
				return err
			}
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return slides, nil
}

// GetTopics returns a deck's topics in creation order.
func (r *DeckRepository) GetTopics(ctx context.Context, deckID core.ID) ([]*core.Topic, error) {
	var topics []*core.Topic
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, makeDeckTopicsPrefix(deckID), storage.UnmarshalTopic, func(_ []byte, t *core.Topic) bool {
			topics = append(topics, t)
			return true
		})
	}, false)
	return topics, err
}

// GetSlides returns a deck's slides ordered by slide number.
func (r *DeckRepository) GetSlides(ctx context.Context, deckID core.ID) ([]*core.Slide, error) {
	var slides []*core.Slide
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, makeDeckSlidesPrefix(deckID), storage.UnmarshalSlide, func(_ []byte, s *core.Slide) bool {
			slides = append(slides, s)
			return true
		})
	}, false)
	return slides, err
}

// AllTopics returns every stored topic.
func (r *DeckRepository) AllTopics(ctx context.Context) ([]*core.Topic, error) {
	var topics []*core.Topic
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(topicPrefix), storage.UnmarshalTopic, func(_ []byte, t *core.Topic) bool {
			topics = append(topics, t)
			return true
		})
	}, false)
	return topics, err
}

// AllSlides returns every stored slide.
func (r *DeckRepository) AllSlides(ctx context.Context) ([]*core.Slide, error) {
	var slides []*core.Slide
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		return scanPrefix(tx, []byte(slidePrefix), storage.UnmarshalSlide, func(_ []byte, s *core.Slide) bool {
			slides = append(slides, s)
			return true
		})
	}, false)
	return slides, err
}

// UpdateTopicEmbedding replaces the embedding of one topic.
func (r *DeckRepository) UpdateTopicEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	if err := core.ValidateEmbedding(embedding); err != nil {
		return err
	}
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		key, found, err := readValue(tx, makeTopicIndexKey(id), copyBytes)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		topic, found, err := readValue(tx, key, storage.UnmarshalTopic)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		topic.Embedding = embedding
		topic.UpdatedAt = now()
		return tx.Set(key, storage.MarshalTopic(topic))
	}, true)
}

// UpdateSlideEmbedding replaces the embedding of one slide.
func (r *DeckRepository) UpdateSlideEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	if err := core.ValidateEmbedding(embedding); err != nil {
		return err
	}
	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		key, found, err := readValue(tx, makeSlideIndexKey(id), copyBytes)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		slide, found, err := readValue(tx, key, storage.UnmarshalSlide)
		if err != nil {
			return err
		}
		if !found {
			return storage.ErrNotFound
		}
		slide.Embedding = embedding
		slide.UpdatedAt = now()
		return tx.Set(key, storage.MarshalSlide(slide))
	}, true)
}

// Counts returns the number of stored decks, topics and slides.
func (r *DeckRepository) Counts(ctx context.Context) (*storage.Counts, error) {
	counts := &storage.Counts{}
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		counts.Decks = countPrefix(tx, []byte(deckPrefix))
		counts.Topics = countPrefix(tx, []byte(topicPrefix))
		counts.Slides = countPrefix(tx, []byte(slidePrefix))
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *DeckRepository) requireDeck(tx *badger.Txn, deckID core.ID) error {
	deck, err := r.readDeck(tx, deckID)
	if err != nil {
		return err
	}
	if deck == nil {
		return fmt.Errorf("%w: deck %d", storage.ErrNotFound, deckID)
	}
	return nil
}

// readDeck returns nil if the deck doesn't exist.
func (r *DeckRepository) readDeck(tx *badger.Txn, id core.ID) (*core.Deck, error) {
	deck, _, err := readValue(tx, makeDeckKey(id), storage.UnmarshalDeck)
	return deck, err
}

// readDeckByExternalID follows the hashed index and confirms the match.
// Returns nil if no deck has that external id.
func (r *DeckRepository) readDeckByExternalID(tx *badger.Txn, externalFileID string) (*core.Deck, error) {
	id, found, err := readValue(tx, makeDeckExternalKey(externalFileID), storage.UnmarshalID)
	if err != nil || !found {
		return nil, err
	}
	deck, err := r.readDeck(tx, id)
	if err != nil || deck == nil {
		return nil, err
	}
	if deck.ExternalFileID != externalFileID {
		return nil, nil
	}
	return deck, nil
}

// now truncates to the microsecond precision records are encoded with.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func copyBytes(val []byte) ([]byte, error) {
	return append([]byte(nil), val...), nil
}
