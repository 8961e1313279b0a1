package analysis

import (
	"fmt"
	"strings"

	"github.com/poiesic/deckdex/core"
)

// SlideText is the extracted text of one slide.
type SlideText struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// DeckMetadata describes a deck as a whole.
type DeckMetadata struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Themes    []string `json:"themes"`
	Audiences []string `json:"audiences"`
	UseCases  []string `json:"useCases"`
}

// TopicDraft is a topic segment before it is persisted.
type TopicDraft struct {
	Title            string            `json:"title"`
	Summary          string            `json:"summary"`
	StoryContext     core.StoryContext `json:"storyContext"`
	Keywords         []string          `json:"keywords"`
	ReuseSuggestions []string          `json:"reuseSuggestions"`
	SlideNumbers     []int             `json:"slideNumbers"`
}

// SlideLabel is the model's label for a single slide.
type SlideLabel struct {
	Type     core.SlideType `json:"slideType"`
	Caption  string         `json:"caption"`
	Keywords []string       `json:"keywords"`
	Reusable string         `json:"reusable"`
}

// SlideLabelResult is the outcome of labeling one slide in a batch.
// Exactly one of Label and Err is set.
type SlideLabelResult struct {
	Number int
	Label  *SlideLabel
	Err    error
}

// FormatDeckText renders slides in the "Slide N:" layout the prompts expect.
func FormatDeckText(slides []SlideText) string {
	blocks := make([]string, len(slides))
	for i, slide := range slides {
		blocks[i] = fmt.Sprintf("Slide %d:\n%s", slide.Number, slide.Text)
	}
	return strings.Join(blocks, "\n\n")
}

func hasText(slides []SlideText) bool {
	for _, slide := range slides {
		if strings.TrimSpace(slide.Text) != "" {
			return true
		}
	}
	return false
}
