package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// EmbeddingDimensions is the fixed length of every stored embedding vector.
const EmbeddingDimensions = 1536

// ID is a unique identifier for domain entities.
// IDs come from database sequences; zero means "no entity".
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// StoryContext classifies the narrative role a topic plays in its deck.
type StoryContext string

const (
	StoryContextCredibility    StoryContext = "credibility"
	StoryContextMarketProblem  StoryContext = "market_problem"
	StoryContextSolutionVision StoryContext = "solution_vision"
	StoryContextImplementation StoryContext = "implementation"
	StoryContextResults        StoryContext = "results"
	StoryContextOther          StoryContext = "other"
)

// StoryContexts lists every valid StoryContext value.
var StoryContexts = []StoryContext{
	StoryContextCredibility,
	StoryContextMarketProblem,
	StoryContextSolutionVision,
	StoryContextImplementation,
	StoryContextResults,
	StoryContextOther,
}

// SlideType classifies what kind of content a slide carries.
type SlideType string

const (
	SlideTypeCaseStudy     SlideType = "case_study"
	SlideTypeVision        SlideType = "vision"
	SlideTypeMarketContext SlideType = "market_context"
	SlideTypeDataChart     SlideType = "data_chart"
	SlideTypeModel         SlideType = "model"
	SlideTypeProcess       SlideType = "process"
	SlideTypeRoadmap       SlideType = "roadmap"
	SlideTypeCover         SlideType = "cover"
	SlideTypeCredits       SlideType = "credits"
	SlideTypeOther         SlideType = "other"
)

// SlideTypes lists every valid SlideType value.
var SlideTypes = []SlideType{
	SlideTypeCaseStudy,
	SlideTypeVision,
	SlideTypeMarketContext,
	SlideTypeDataChart,
	SlideTypeModel,
	SlideTypeProcess,
	SlideTypeRoadmap,
	SlideTypeCover,
	SlideTypeCredits,
	SlideTypeOther,
}

// Reusability values. Stored as text, not as a boolean.
const (
	ReusableYes       = "yes"
	ReusableNo        = "no"
	ReusableNeedsEdit = "needs_edit"
)

// Deck is one ingested presentation.
type Deck struct {
	ID             ID
	ExternalFileID string // Idempotency key supplied by the caller
	SourceURL      string // Optional link back to the source document
	Title          string
	Summary        string
	Themes         []string
	Audiences      []string
	UseCases       []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Topic is a logical segment of a deck's narrative.
type Topic struct {
	ID               ID
	DeckID           ID
	Title            string
	Summary          string
	StoryContext     StoryContext
	Keywords         []string
	ReuseSuggestions []string
	SlideNumbers     []int
	Embedding        []float32 // Nil when the topic is not semantically searchable
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Slide is the label of a single slide.
type Slide struct {
	ID        ID
	DeckID    ID
	Number    int
	Caption   string
	Type      SlideType
	Keywords  []string
	Reusable  string
	Embedding []float32 // Nil when the slide is not semantically searchable
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResultType identifies what kind of entity a SearchResult points at.
type ResultType string

const (
	ResultTypeTopic ResultType = "topic"
	ResultTypeSlide ResultType = "slide"
)

// SearchResult is a read-only, query-time projection. It is never persisted.
type SearchResult struct {
	Type        ResultType `json:"type"`
	DeckID      ID         `json:"deckId"`
	DeckTitle   string     `json:"deckTitle"`
	TopicID     ID         `json:"topicId,omitempty"`
	SlideID     ID         `json:"slideId,omitempty"`
	SlideNumber int        `json:"slideNumber,omitempty"`
	Summary     string     `json:"summary"`
	Score       float32    `json:"score"`
}

// ChatReference cites one snippet that contributed to a chat answer.
type ChatReference struct {
	DeckID      ID     `json:"deckId"`
	DeckTitle   string `json:"deckTitle"`
	TopicID     ID     `json:"topicId,omitempty"`
	TopicTitle  string `json:"topicTitle,omitempty"`
	SlideID     ID     `json:"slideId,omitempty"`
	SlideNumber int    `json:"slideNumber,omitempty"`
}

// ChatAnswer is the synthesized answer plus its machine-readable citations.
type ChatAnswer struct {
	Answer     string          `json:"answer"`
	References []ChatReference `json:"references"`
}
