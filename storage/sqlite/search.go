package sqlite

import (
	"context"
	"strings"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// FindSimilarTopics ranks embedded topics with vec_cosine inside SQLite.
func (s *Store) FindSimilarTopics(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.TopicMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT * FROM (
			SELECT `+topicColumns+`, d.title AS deck_title, vec_cosine(t.embedding, ?) AS similarity
			FROM topics t JOIN decks d ON d.id = t.deck_id
			WHERE t.embedding IS NOT NULL
		) WHERE similarity >= ? ORDER BY similarity DESC, id LIMIT ?`,
		encodeEmbedding(vector), float64(minSimilarity), limit)
	return collect(rows, err, scanTopicMatch)
}

// FindSimilarSlides ranks embedded slides with vec_cosine inside SQLite.
func (s *Store) FindSimilarSlides(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*storage.SlideMatch, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT * FROM (
			SELECT `+slideColumns+`, d.title AS deck_title, vec_cosine(s.embedding, ?) AS similarity
			FROM slides s JOIN decks d ON d.id = s.deck_id
			WHERE s.embedding IS NOT NULL
		) WHERE similarity >= ? ORDER BY similarity DESC, id LIMIT ?`,
		encodeEmbedding(vector), float64(minSimilarity), limit)
	return collect(rows, err, scanSlideMatch)
}

// likePattern builds a substring pattern with LIKE wildcards escaped.
// SQLite's LIKE is case-insensitive for ASCII.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(query)) + "%"
}

// sqlLimit maps "no limit" onto SQLite's -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

// SearchDecks matches the query against deck titles and summaries.
func (s *Store) SearchDecks(ctx context.Context, query string, limit int) ([]*core.Deck, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	pattern := likePattern(query)
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+deckColumns+` FROM decks d
		 WHERE d.title LIKE ? ESCAPE '\' OR d.summary LIKE ? ESCAPE '\'
		 ORDER BY d.id LIMIT ?`,
		pattern, pattern, sqlLimit(limit))
	return collect(rows, err, scanDeck)
}

// SearchTopics matches the query against topic titles and summaries.
func (s *Store) SearchTopics(ctx context.Context, query string, limit int) ([]*storage.TopicMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	pattern := likePattern(query)
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+topicColumns+`, d.title, 0.0 FROM topics t JOIN decks d ON d.id = t.deck_id
		 WHERE t.title LIKE ? ESCAPE '\' OR t.summary LIKE ? ESCAPE '\'
		 ORDER BY t.deck_id, t.id LIMIT ?`,
		pattern, pattern, sqlLimit(limit))
	return collect(rows, err, scanTopicMatch)
}

// SearchSlides matches the query against slide captions.
func (s *Store) SearchSlides(ctx context.Context, query string, limit int) ([]*storage.SlideMatch, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}
	pattern := likePattern(query)
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+slideColumns+`, d.title, 0.0 FROM slides s JOIN decks d ON d.id = s.deck_id
		 WHERE s.caption LIKE ? ESCAPE '\'
		 ORDER BY s.deck_id, s.slide_number LIMIT ?`,
		pattern, sqlLimit(limit))
	return collect(rows, err, scanSlideMatch)
}

func scanTopicMatch(row rowScanner) (*storage.TopicMatch, error) {
	m := &storage.TopicMatch{}
	var similarity float64
	topic, err := scanTopic(row, &m.DeckTitle, &similarity)
	if err != nil {
		return nil, err
	}
	m.Topic = topic
	m.Similarity = float32(similarity)
	return m, nil
}

func scanSlideMatch(row rowScanner) (*storage.SlideMatch, error) {
	m := &storage.SlideMatch{}
	var similarity float64
	slide, err := scanSlide(row, &m.DeckTitle, &similarity)
	if err != nil {
		return nil, err
	}
	m.Slide = slide
	m.Similarity = float32(similarity)
	return m, nil
}
