package api

import (
	"context"

	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/ingestion"
	"github.com/poiesic/deckdex/search"
)

// DeckReader loads stored decks with their children.
type DeckReader interface {
	GetDeck(ctx context.Context, id core.ID) (*core.Deck, error)
	GetDeckByExternalID(ctx context.Context, externalFileID string) (*core.Deck, error)
	GetTopics(ctx context.Context, deckID core.ID) ([]*core.Topic, error)
	GetSlides(ctx context.Context, deckID core.ID) ([]*core.Slide, error)
}

// Ingester persists analyzed decks.
type Ingester interface {
	IngestBatch(ctx context.Context, payload *ingestion.Payload) (*ingestion.Result, error)
}

// Searcher runs hybrid search. A nil monitor is allowed.
type Searcher interface {
	SearchWithMonitor(ctx context.Context, query string, limit int, monitor search.SearchMonitor) ([]*core.SearchResult, error)
}

// Answerer answers chat messages from stored content.
type Answerer interface {
	Answer(ctx context.Context, message string, limit int) (*core.ChatAnswer, error)
}

// Analyzer turns slide text into metadata, topics and labels.
type Analyzer interface {
	DeckMetadata(ctx context.Context, slides []analysis.SlideText) (*analysis.DeckMetadata, error)
	SegmentTopics(ctx context.Context, slides []analysis.SlideText) ([]analysis.TopicDraft, error)
	LabelSlides(ctx context.Context, slides []analysis.SlideText) []analysis.SlideLabelResult
}

// Services are the components the handlers call. All are required.
type Services struct {
	Decks    DeckReader
	Ingester Ingester
	Searcher Searcher
	Answerer Answerer
	Analyzer Analyzer
}

func (s Services) validate() error {
	switch {
	case s.Decks == nil:
		return errMissingService("Decks")
	case s.Ingester == nil:
		return errMissingService("Ingester")
	case s.Searcher == nil:
		return errMissingService("Searcher")
	case s.Answerer == nil:
		return errMissingService("Answerer")
	case s.Analyzer == nil:
		return errMissingService("Analyzer")
	}
	return nil
}
