package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

const (
	deckColumns  = `d.id, d.external_file_id, d.source_url, d.title, d.summary, d.themes, d.audiences, d.use_cases, d.created_at, d.updated_at`
	topicColumns = `t.id, t.deck_id, t.title, t.summary, t.story_context, t.keywords, t.reuse_suggestions, t.slide_numbers, t.embedding, t.created_at, t.updated_at`
	slideColumns = `s.id, s.deck_id, s.slide_number, s.caption, s.slide_type, s.keywords, s.reusable, s.embedding, s.created_at, s.updated_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*core.Deck, error) {
	var (
		d                           core.Deck
		themes, audiences, useCases string
		createdAt, updatedAt        int64
		err                         error
	)
	if err = row.Scan(&d.ID, &d.ExternalFileID, &d.SourceURL, &d.Title, &d.Summary,
		&themes, &audiences, &useCases, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if d.Themes, err = decodeList[string](themes); err != nil {
		return nil, err
	}
	if d.Audiences, err = decodeList[string](audiences); err != nil {
		return nil, err
	}
	if d.UseCases, err = decodeList[string](useCases); err != nil {
		return nil, err
	}
	d.CreatedAt = decodeTime(createdAt)
	d.UpdatedAt = decodeTime(updatedAt)
	return &d, nil
}

func scanTopic(row rowScanner, extra ...any) (*core.Topic, error) {
	var (
		t                              core.Topic
		storyContext                   string
		keywords, suggestions, numbers string
		embedding                      []byte
		createdAt, updatedAt           int64
		err                            error
	)
	dest := []any{&t.ID, &t.DeckID, &t.Title, &t.Summary, &storyContext,
		&keywords, &suggestions, &numbers, &embedding, &createdAt, &updatedAt}
	if err = row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.StoryContext = core.StoryContext(storyContext)
	if t.Keywords, err = decodeList[string](keywords); err != nil {
		return nil, err
	}
	if t.ReuseSuggestions, err = decodeList[string](suggestions); err != nil {
		return nil, err
	}
	if t.SlideNumbers, err = decodeList[int](numbers); err != nil {
		return nil, err
	}
	if t.Embedding, err = decodeEmbedding(embedding); err != nil {
		return nil, err
	}
	t.CreatedAt = decodeTime(createdAt)
	t.UpdatedAt = decodeTime(updatedAt)
	return &t, nil
}

func scanSlide(row rowScanner, extra ...any) (*core.Slide, error) {
	var (
		s                    core.Slide
		slideType, keywords  string
		embedding            []byte
		createdAt, updatedAt int64
		err                  error
	)
	dest := []any{&s.ID, &s.DeckID, &s.Number, &s.Caption, &slideType,
		&keywords, &s.Reusable, &embedding, &createdAt, &updatedAt}
	if err = row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	s.Type = core.SlideType(slideType)
	if s.Keywords, err = decodeList[string](keywords); err != nil {
		return nil, err
	}
	if s.Embedding, err = decodeEmbedding(embedding); err != nil {
		return nil, err
	}
	s.CreatedAt = decodeTime(createdAt)
	s.UpdatedAt = decodeTime(updatedAt)
	return &s, nil
}

// collect drains rows through scan, closing them before returning.
func collect[T any](rows *sql.Rows, err error, scan func(rowScanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// AddDeck inserts a new deck.
func (s *Store) AddDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error) {
	if err := core.ValidateDeck(deck); err != nil {
		return nil, err
	}
	themes, audiences, useCases, err := deckLists(deck)
	if err != nil {
		return nil, err
	}
	ts := now()
	res, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO decks (external_file_id, source_url, title, summary, themes, audiences, use_cases, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deck.ExternalFileID, deck.SourceURL, deck.Title, deck.Summary,
		themes, audiences, useCases,
		encodeTime(ts), encodeTime(ts))
	if err != nil {
		return nil, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	deck.ID = core.ID(id)
	deck.CreatedAt = ts
	deck.UpdatedAt = ts
	return deck, nil
}

// UpdateDeck replaces a deck's metadata.
func (s *Store) UpdateDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error) {
	if err := core.ValidateDeck(deck); err != nil {
		return nil, err
	}
	themes, audiences, useCases, err := deckLists(deck)
	if err != nil {
		return nil, err
	}
	var updated *core.Deck
	err = s.WithTransaction(ctx, func(ctx context.Context) error {
		old, err := s.GetDeck(ctx, deck.ID)
		if err != nil {
			return err
		}
		ts := now()
		_, err = s.q(ctx).ExecContext(ctx,
			`UPDATE decks SET external_file_id = ?, source_url = ?, title = ?, summary = ?,
			 themes = ?, audiences = ?, use_cases = ?, updated_at = ? WHERE id = ?`,
			deck.ExternalFileID, deck.SourceURL, deck.Title, deck.Summary,
			themes, audiences, useCases,
			encodeTime(ts), int64(deck.ID))
		if err != nil {
			return mapError(err)
		}
		deck.CreatedAt = old.CreatedAt
		deck.UpdatedAt = ts
		updated = deck
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetDeck retrieves a deck by ID.
func (s *Store) GetDeck(ctx context.Context, id core.ID) (*core.Deck, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks d WHERE d.id = ?`, int64(id))
	return notFound(scanDeck(row))
}

// GetDeckByExternalID retrieves a deck by its external file id.
func (s *Store) GetDeckByExternalID(ctx context.Context, externalFileID string) (*core.Deck, error) {
	row := s.q(ctx).QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks d WHERE d.external_file_id = ?`, externalFileID)
	return notFound(scanDeck(row))
}

func notFound[T any](v T, err error) (T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return v, storage.ErrNotFound
	}
	return v, mapError(err)
}

// DeleteDeck removes a deck. Topics and slides cascade through foreign keys.
func (s *Store) DeleteDeck(ctx context.Context, id core.ID) error {
	res, err := s.q(ctx).ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, int64(id))
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDeckChildren removes every topic and slide of a deck.
func (s *Store) DeleteDeckChildren(ctx context.Context, deckID core.ID) error {
	return s.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM topics WHERE deck_id = ?`, int64(deckID)); err != nil {
			return mapError(err)
		}
		if _, err := s.q(ctx).ExecContext(ctx, `DELETE FROM slides WHERE deck_id = ?`, int64(deckID)); err != nil {
			return mapError(err)
		}
		return nil
	})
}

func (s *Store) requireDeck(ctx context.Context, deckID core.ID) error {
	var exists int
	err := s.q(ctx).QueryRowContext(ctx, `SELECT 1 FROM decks WHERE id = ?`, int64(deckID)).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: deck %d", storage.ErrNotFound, deckID)
	}
	return mapError(err)
}

// AddTopics inserts topics for a deck.
func (s *Store) AddTopics(ctx context.Context, deckID core.ID, topics ...*core.Topic) ([]*core.Topic, error) {
	for _, topic := range topics {
		if err := core.ValidateTopic(topic); err != nil {
			return nil, err
		}
	}
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireDeck(ctx, deckID); err != nil {
			return err
		}
		ts := now()
		for _, topic := range topics {
			keywords, suggestions, numbers, err := topicLists(topic)
			if err != nil {
				return err
			}
			res, err := s.q(ctx).ExecContext(ctx,
				`INSERT INTO topics (deck_id, title, summary, story_context, keywords, reuse_suggestions, slide_numbers, embedding, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				int64(deckID), topic.Title, topic.Summary, string(topic.StoryContext),
				keywords, suggestions, numbers,
				encodeEmbedding(topic.Embedding), encodeTime(ts), encodeTime(ts))
			if err != nil {
				return mapError(err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			topic.ID = core.ID(id)
			topic.DeckID = deckID
			topic.CreatedAt = ts
			topic.UpdatedAt = ts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

// AddSlides inserts slides for a deck.
func (s *Store) AddSlides(ctx context.Context, deckID core.ID, slides ...*core.Slide) ([]*core.Slide, error) {
	if err := core.ValidateSlides(slides); err != nil {
		return nil, err
	}
	err := s.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireDeck(ctx, deckID); err != nil {
			return err
		}
		ts := now()
		for _, slide := range slides {
			keywords, err := encodeList(slide.Keywords)
			if err != nil {
				return err
			}
			res, err := s.q(ctx).ExecContext(ctx,
				`INSERT INTO slides (deck_id, slide_number, caption, slide_type, keywords, reusable, embedding, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				int64(deckID), slide.Number, slide.Caption, string(slide.Type),
				keywords, slide.Reusable,
				encodeEmbedding(slide.Embedding), encodeTime(ts), encodeTime(ts))
			if err != nil {
				return mapError(err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			slide.ID = core.ID(id)
			slide.DeckID = deckID
			slide.CreatedAt = ts
			slide.UpdatedAt = ts
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slides, nil
}

// GetTopics returns a deck's topics in creation order.
func (s *Store) GetTopics(ctx context.Context, deckID core.ID) ([]*core.Topic, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+topicColumns+` FROM topics t WHERE t.deck_id = ? ORDER BY t.id`, int64(deckID))
	return collect(rows, err, func(r rowScanner) (*core.Topic, error) { return scanTopic(r) })
}

// GetSlides returns a deck's slides ordered by slide number.
func (s *Store) GetSlides(ctx context.Context, deckID core.ID) ([]*core.Slide, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+slideColumns+` FROM slides s WHERE s.deck_id = ? ORDER BY s.slide_number`, int64(deckID))
	return collect(rows, err, func(r rowScanner) (*core.Slide, error) { return scanSlide(r) })
}

// AllTopics returns every stored topic.
func (s *Store) AllTopics(ctx context.Context) ([]*core.Topic, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+topicColumns+` FROM topics t ORDER BY t.deck_id, t.id`)
	return collect(rows, err, func(r rowScanner) (*core.Topic, error) { return scanTopic(r) })
}

// AllSlides returns every stored slide.
func (s *Store) AllSlides(ctx context.Context) ([]*core.Slide, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `SELECT `+slideColumns+` FROM slides s ORDER BY s.deck_id, s.slide_number`)
	return collect(rows, err, func(r rowScanner) (*core.Slide, error) { return scanSlide(r) })
}

// UpdateTopicEmbedding replaces the embedding of one topic.
func (s *Store) UpdateTopicEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	if err := core.ValidateEmbedding(embedding); err != nil {
		return err
	}
	return s.updateEmbedding(ctx, `UPDATE topics SET embedding = ?, updated_at = ? WHERE id = ?`, id, embedding)
}

// UpdateSlideEmbedding replaces the embedding of one slide.
func (s *Store) UpdateSlideEmbedding(ctx context.Context, id core.ID, embedding []float32) error {
	if err := core.ValidateEmbedding(embedding); err != nil {
		return err
	}
	return s.updateEmbedding(ctx, `UPDATE slides SET embedding = ?, updated_at = ? WHERE id = ?`, id, embedding)
}

func (s *Store) updateEmbedding(ctx context.Context, query string, id core.ID, embedding []float32) error {
	res, err := s.q(ctx).ExecContext(ctx, query, encodeEmbedding(embedding), encodeTime(now()), int64(id))
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Counts returns the number of stored decks, topics and slides.
func (s *Store) Counts(ctx context.Context) (*storage.Counts, error) {
	counts := &storage.Counts{}
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM decks), (SELECT COUNT(*) FROM topics), (SELECT COUNT(*) FROM slides)`,
	).Scan(&counts.Decks, &counts.Topics, &counts.Slides)
	if err != nil {
		return nil, mapError(err)
	}
	return counts, nil
}
