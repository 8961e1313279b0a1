package storage

import (
	"context"

	"github.com/poiesic/deckdex/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// Repository calls made with the context passed to fn join the transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// TopicMatch is a topic hit annotated with its deck title and similarity.
// Similarity is zero for lexical hits.
type TopicMatch struct {
	Topic      *core.Topic
	DeckTitle  string
	Similarity float32
}

// SlideMatch is a slide hit annotated with its deck title and similarity.
// Similarity is zero for lexical hits.
type SlideMatch struct {
	Slide      *core.Slide
	DeckTitle  string
	Similarity float32
}

// VectorSearcher is the vector lookup contract consumed by search and chat.
type VectorSearcher interface {
	// FindSimilarTopics returns topics with cosine similarity >= minSimilarity,
	// up to limit results, ordered by similarity (highest first).
	// Topics without embeddings are never returned.
	FindSimilarTopics(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*TopicMatch, error)

	// FindSimilarSlides is the slide counterpart of FindSimilarTopics.
	FindSimilarSlides(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*SlideMatch, error)
}

// TextSearcher performs case-insensitive substring matching.
type TextSearcher interface {
	// SearchDecks matches the query against deck title and summary.
	SearchDecks(ctx context.Context, query string, limit int) ([]*core.Deck, error)

	// SearchTopics matches the query against topic title and summary.
	SearchTopics(ctx context.Context, query string, limit int) ([]*TopicMatch, error)

	// SearchSlides matches the query against slide captions.
	SearchSlides(ctx context.Context, query string, limit int) ([]*SlideMatch, error)
}

// Counts reports how many records of each kind are stored.
type Counts struct {
	Decks  int `json:"decks"`
	Topics int `json:"topics"`
	Slides int `json:"slides"`
}

// DeckRepository provides operations for decks and their topics and slides.
type DeckRepository interface {
	Repository
	VectorSearcher
	TextSearcher

	// AddDeck inserts a new deck. Generates the ID and sets CreatedAt/UpdatedAt.
	// Returns ErrDuplicateKey if a deck with the same ExternalFileID exists.
	AddDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error)

	// UpdateDeck replaces a deck's metadata and refreshes UpdatedAt.
	// CreatedAt is preserved. Returns ErrNotFound if the deck doesn't exist.
	UpdateDeck(ctx context.Context, deck *core.Deck) (*core.Deck, error)

	// GetDeck retrieves a deck by ID.
	// Returns ErrNotFound if the deck doesn't exist.
	GetDeck(ctx context.Context, id core.ID) (*core.Deck, error)

	// GetDeckByExternalID retrieves a deck by its external file id.
	// Returns ErrNotFound if no deck has that id.
	GetDeckByExternalID(ctx context.Context, externalFileID string) (*core.Deck, error)

	// DeleteDeck removes a deck together with all of its topics and slides.
	// Returns ErrNotFound if the deck doesn't exist.
	DeleteDeck(ctx context.Context, id core.ID) error

	// DeleteDeckChildren removes all topics and slides of a deck, keeping the deck.
	DeleteDeckChildren(ctx context.Context, deckID core.ID) error

	// AddTopics inserts topics for a deck in one operation.
	// Returns ErrNotFound if the deck doesn't exist.
	AddTopics(ctx context.Context, deckID core.ID, topics ...*core.Topic) ([]*core.Topic, error)

	// AddSlides inserts slides for a deck in one operation.
	// Returns ErrNotFound if the deck doesn't exist and ErrDuplicateKey if a
	// slide number is already taken for that deck.
	AddSlides(ctx context.Context, deckID core.ID, slides ...*core.Slide) ([]*core.Slide, error)

	// GetTopics returns a deck's topics in creation order.
	GetTopics(ctx context.Context, deckID core.ID) ([]*core.Topic, error)

	// GetSlides returns a deck's slides ordered by slide number.
	GetSlides(ctx context.Context, deckID core.ID) ([]*core.Slide, error)

	// AllTopics returns every stored topic.
	AllTopics(ctx context.Context) ([]*core.Topic, error)

	// AllSlides returns every stored slide.
	AllSlides(ctx context.Context) ([]*core.Slide, error)

	// UpdateTopicEmbedding replaces the embedding of one topic.
	// Returns ErrNotFound if the topic doesn't exist.
	UpdateTopicEmbedding(ctx context.Context, id core.ID, embedding []float32) error

	// UpdateSlideEmbedding replaces the embedding of one slide.
	// Returns ErrNotFound if the slide doesn't exist.
	UpdateSlideEmbedding(ctx context.Context, id core.ID, embedding []float32) error

	// Counts returns the number of stored decks, topics and slides.
	Counts(ctx context.Context) (*Counts, error)
}
