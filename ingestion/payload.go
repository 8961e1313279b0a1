package ingestion

import (
	"fmt"
	"strings"

	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/core"
)

// Payload is a complete, pre-embedded deck submitted for batch ingestion.
type Payload struct {
	ExternalFileID string         `json:"externalFileId"`
	SourceURL      string         `json:"sourceUrl,omitempty"`
	Deck           DeckPayload    `json:"deck"`
	Topics         []TopicPayload `json:"topics"`
	Slides         []SlidePayload `json:"slides"`
}

// DeckPayload is the deck-level metadata of a Payload.
type DeckPayload struct {
	Title     string   `json:"title"`
	Summary   *string  `json:"summary"`
	Themes    []string `json:"themes"`
	Audiences []string `json:"audiences"`
	UseCases  []string `json:"useCases"`
}

// TopicPayload is one topic of a Payload.
type TopicPayload struct {
	Title            string    `json:"title"`
	Summary          string    `json:"summary"`
	StoryContext     string    `json:"storyContext"`
	Keywords         []string  `json:"keywords"`
	ReuseSuggestions []string  `json:"reuseSuggestions"`
	SlideNumbers     []int     `json:"slideNumbers"`
	Embedding        []float32 `json:"embedding"`
}

// SlidePayload is one slide of a Payload.
type SlidePayload struct {
	SlideNumber int       `json:"slideNumber"`
	Caption     *string   `json:"caption"`
	SlideType   *string   `json:"slideType"`
	Keywords    []string  `json:"keywords"`
	Reusable    *string   `json:"reusable"`
	Embedding   []float32 `json:"embedding"`
}

// Result identifies the deck written by an ingestion.
type Result struct {
	DeckID         core.ID `json:"deckId"`
	ExternalFileID string  `json:"externalFileId"`
}

// Validate checks the payload before anything is written. Every failure
// wraps core.ErrValidation.
func (p *Payload) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: %w", core.ErrValidation, ErrNilPayload)
	}
	if strings.TrimSpace(p.ExternalFileID) == "" {
		return fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyExternalFileID)
	}

	for i, topic := range p.toTopics() {
		if topic.Embedding == nil {
			return fmt.Errorf("%w: topic %d: %w", core.ErrValidation, i, ErrMissingEmbedding)
		}
		if err := core.ValidateTopic(topic); err != nil {
			return fmt.Errorf("topic %d: %w", i, err)
		}
	}

	slides := p.toSlides()
	for _, slide := range slides {
		if slide.Embedding == nil {
			return fmt.Errorf("%w: slide %d: %w", core.ErrValidation, slide.Number, ErrMissingEmbedding)
		}
	}
	return core.ValidateSlides(slides)
}

func (p *Payload) toDeck() *core.Deck {
	return &core.Deck{
		ExternalFileID: strings.TrimSpace(p.ExternalFileID),
		SourceURL:      p.SourceURL,
		Title:          p.Deck.Title,
		Summary:        deref(p.Deck.Summary),
		Themes:         p.Deck.Themes,
		Audiences:      p.Deck.Audiences,
		UseCases:       p.Deck.UseCases,
	}
}

func (p *Payload) toTopics() []*core.Topic {
	topics := make([]*core.Topic, len(p.Topics))
	for i, t := range p.Topics {
		topics[i] = &core.Topic{
			Title:            t.Title,
			Summary:          t.Summary,
			StoryContext:     core.NormalizeStoryContext(t.StoryContext),
			Keywords:         t.Keywords,
			ReuseSuggestions: t.ReuseSuggestions,
			SlideNumbers:     t.SlideNumbers,
			Embedding:        emptyAsNil(t.Embedding),
		}
	}
	return topics
}

func (p *Payload) toSlides() []*core.Slide {
	slides := make([]*core.Slide, len(p.Slides))
	for i, s := range p.Slides {
		slide := &core.Slide{
			Number:    s.SlideNumber,
			Caption:   deref(s.Caption),
			Keywords:  s.Keywords,
			Embedding: emptyAsNil(s.Embedding),
		}
		if s.SlideType != nil {
			slide.Type = core.NormalizeSlideType(*s.SlideType)
		}
		if s.Reusable != nil {
			slide.Reusable = core.NormalizeReusable(*s.Reusable)
		}
		slides[i] = slide
	}
	return slides
}

// DeckInput is the deck-level input of the incremental path.
type DeckInput struct {
	ExternalFileID string                `json:"externalFileId"`
	SourceURL      string                `json:"sourceUrl,omitempty"`
	Metadata       analysis.DeckMetadata `json:"deck"`
}

func (in DeckInput) toDeck() *core.Deck {
	return &core.Deck{
		ExternalFileID: strings.TrimSpace(in.ExternalFileID),
		SourceURL:      in.SourceURL,
		Title:          in.Metadata.Title,
		Summary:        in.Metadata.Summary,
		Themes:         in.Metadata.Themes,
		Audiences:      in.Metadata.Audiences,
		UseCases:       in.Metadata.UseCases,
	}
}

// SlideInput is a labeled slide of the incremental path.
type SlideInput struct {
	Number int `json:"slideNumber"`
	analysis.SlideLabel
}

// Analysis is a fully analyzed deck ready for the incremental path. It is
// what the analyze command writes and the append command reads.
type Analysis struct {
	DeckInput
	Topics []analysis.TopicDraft `json:"topics"`
	Slides []SlideInput          `json:"slides"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyAsNil(v []float32) []float32 {
	if len(v) == 0 {
		return nil
	}
	return v
}
