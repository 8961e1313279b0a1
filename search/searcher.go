package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/poiesic/deckdex/search"

const (
	// DefaultLimit is used when a non-positive limit is requested.
	DefaultLimit = 20

	// DefaultThreshold is the minimum cosine similarity for semantic hits.
	DefaultThreshold float32 = 0.7

	deckMatchScore  float32 = 0.8
	topicMatchScore float32 = 0.9
	slideMatchScore float32 = 0.85
)

// Index is the storage the Searcher reads from.
type Index interface {
	storage.TextSearcher
	storage.VectorSearcher
}

// Searcher provides hybrid lexical and semantic search over decks.
type Searcher struct {
	index     Index
	embedder  ai.Embedder
	threshold float32
	logger    *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum similarity for semantic hits.
func WithThreshold(threshold float32) Option {
	return func(s *Searcher) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold must be within [-1, 1], got %v", threshold)
		}
		s.threshold = threshold
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(index Index, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		index:     index,
		embedder:  embedder,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "search")

	return s, nil
}

// Search returns up to limit results for query, ranked by score.
// A limit of zero or less means DefaultLimit.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, limit, nil)
}

// SearchWithMonitor is Search with a monitor that receives callbacks at each
// stage of the search.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, limit int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "search.Search")
	defer span.End()
	span.SetAttributes(
		attribute.Int("search.query_length", len(query)),
		attribute.Int("search.limit", limit),
	)

	monitor.Start(query, limit)

	// Embed first so a provider outage is detected before any lookup
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn("failed to generate query embedding, falling back to lexical search only", "err", err)
		monitor.Degraded(err)
		span.SetAttributes(attribute.Bool("search.degraded", true))
		embedding = nil
	}

	lexical, err := s.lexicalSearch(ctx, query, limit)
	if err != nil {
		s.logger.Error("error running lexical search", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	monitor.AfterLexicalSearch(lexical)

	var semantic []*core.SearchResult
	if embedding != nil {
		semantic, err = s.semanticSearch(ctx, embedding, limit)
		if err != nil {
			s.logger.Error("error running semantic search", "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	monitor.AfterSemanticSearch(semantic)

	results := merge(limit, lexical, semantic)
	monitor.Finish(results)

	span.SetAttributes(attribute.Int("search.results", len(results)))
	s.logger.Debug("search complete",
		"lexical", len(lexical),
		"semantic", len(semantic),
		"results", len(results))
	return results, nil
}

func (s *Searcher) lexicalSearch(ctx context.Context, query string, limit int) ([]*core.SearchResult, error) {
	decks, err := s.index.SearchDecks(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	topics, err := s.index.SearchTopics(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	slides, err := s.index.SearchSlides(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(decks)+len(topics)+len(slides))
	for _, deck := range decks {
		results = append(results, deckResult(deck, deckMatchScore))
	}
	for _, match := range topics {
		results = append(results, topicResult(match, topicMatchScore))
	}
	for _, match := range slides {
		results = append(results, slideResult(match, slideMatchScore))
	}
	return results, nil
}

func (s *Searcher) semanticSearch(ctx context.Context, embedding []float32, limit int) ([]*core.SearchResult, error) {
	topics, err := s.index.FindSimilarTopics(ctx, embedding, s.threshold, limit)
	if err != nil {
		return nil, err
	}
	slides, err := s.index.FindSimilarSlides(ctx, embedding, s.threshold, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*core.SearchResult, 0, len(topics)+len(slides))
	for _, match := range topics {
		results = append(results, topicResult(match, match.Similarity))
	}
	for _, match := range slides {
		results = append(results, slideResult(match, match.Similarity))
	}
	return results, nil
}

// Deck hits are reported as topic results without a topic id.
func deckResult(deck *core.Deck, score float32) *core.SearchResult {
	return &core.SearchResult{
		Type:      core.ResultTypeTopic,
		DeckID:    deck.ID,
		DeckTitle: deck.Title,
		Summary:   cmp.Or(deck.Summary, deck.Title),
		Score:     score,
	}
}

func topicResult(match *storage.TopicMatch, score float32) *core.SearchResult {
	return &core.SearchResult{
		Type:      core.ResultTypeTopic,
		DeckID:    match.Topic.DeckID,
		DeckTitle: match.DeckTitle,
		TopicID:   match.Topic.ID,
		Summary:   cmp.Or(match.Topic.Summary, match.Topic.Title),
		Score:     score,
	}
}

func slideResult(match *storage.SlideMatch, score float32) *core.SearchResult {
	return &core.SearchResult{
		Type:        core.ResultTypeSlide,
		DeckID:      match.Slide.DeckID,
		DeckTitle:   match.DeckTitle,
		SlideID:     match.Slide.ID,
		SlideNumber: match.Slide.Number,
		Summary:     cmp.Or(match.Slide.Caption, fmt.Sprintf("Slide %d", match.Slide.Number)),
		Score:       score,
	}
}
