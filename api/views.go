package api

import (
	"time"

	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/core"
)

// Response shapes. Embeddings are never returned.

type deckView struct {
	ID             core.ID   `json:"id"`
	ExternalFileID string    `json:"externalFileId"`
	SourceURL      string    `json:"sourceUrl,omitempty"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"`
	Themes         []string  `json:"themes"`
	Audiences      []string  `json:"audiences"`
	UseCases       []string  `json:"useCases"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type topicView struct {
	ID               core.ID           `json:"id"`
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	StoryContext     core.StoryContext `json:"storyContext"`
	Keywords         []string          `json:"keywords"`
	ReuseSuggestions []string          `json:"reuseSuggestions"`
	SlideNumbers     []int             `json:"slideNumbers"`
	Searchable       bool              `json:"searchable"`
}

type slideView struct {
	ID         core.ID        `json:"id"`
	Number     int            `json:"slideNumber"`
	Caption    string         `json:"caption"`
	Type       core.SlideType `json:"slideType"`
	Keywords   []string       `json:"keywords"`
	Reusable   string         `json:"reusable"`
	Searchable bool           `json:"searchable"`
}

type deckDetail struct {
	Deck   deckView    `json:"deck"`
	Topics []topicView `json:"topics"`
	Slides []slideView `json:"slides"`
}

func newDeckDetail(deck *core.Deck, topics []*core.Topic, slides []*core.Slide) deckDetail {
	detail := deckDetail{
		Deck: deckView{
			ID:             deck.ID,
			ExternalFileID: deck.ExternalFileID,
			SourceURL:      deck.SourceURL,
			Title:          deck.Title,
			Summary:        deck.Summary,
			Themes:         orEmpty(deck.Themes),
			Audiences:      orEmpty(deck.Audiences),
			UseCases:       orEmpty(deck.UseCases),
			CreatedAt:      deck.CreatedAt,
			UpdatedAt:      deck.UpdatedAt,
		},
		Topics: make([]topicView, 0, len(topics)),
		Slides: make([]slideView, 0, len(slides)),
	}
	for _, t := range topics {
		detail.Topics = append(detail.Topics, topicView{
			ID:               t.ID,
			Title:            t.Title,
			Summary:          t.Summary,
			StoryContext:     t.StoryContext,
			Keywords:         orEmpty(t.Keywords),
			ReuseSuggestions: orEmpty(t.ReuseSuggestions),
			SlideNumbers:     orEmpty(t.SlideNumbers),
			Searchable:       t.Embedding != nil,
		})
	}
	for _, s := range slides {
		detail.Slides = append(detail.Slides, slideView{
			ID:         s.ID,
			Number:     s.Number,
			Caption:    s.Caption,
			Type:       s.Type,
			Keywords:   orEmpty(s.Keywords),
			Reusable:   s.Reusable,
			Searchable: s.Embedding != nil,
		})
	}
	return detail
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

type analyzeRequest struct {
	Slides []analysis.SlideText `json:"slides"`
}

type slideLabelView struct {
	Number int                  `json:"number"`
	Label  *analysis.SlideLabel `json:"label,omitempty"`
	Error  string               `json:"error,omitempty"`
}

type analyzeResponse struct {
	Metadata *analysis.DeckMetadata `json:"metadata"`
	Topics   []analysis.TopicDraft  `json:"topics"`
	Slides   []slideLabelView       `json:"slides"`
}

type chatRequest struct {
	Message string `json:"message"`
	Limit   *int   `json:"limit"`
}
