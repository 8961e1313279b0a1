package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
)

// snippetSeparator divides rendered snippets in the prompt.
const snippetSeparator = "\n---\n\n"

// snippet is one retrieved topic or slide as presented to the model.
type snippet struct {
	deckTitle string

	// Topic fields, empty for slide snippets.
	topicTitle       string
	topicSummary     string
	reuseSuggestions []string
	slideNumbers     []int

	// Slide fields, empty for topic snippets.
	slideCaption string
	slideNumber  int
}

func topicSnippet(match *storage.TopicMatch) (snippet, core.ChatReference) {
	s := snippet{
		deckTitle:        match.DeckTitle,
		topicTitle:       match.Topic.Title,
		topicSummary:     match.Topic.Summary,
		reuseSuggestions: match.Topic.ReuseSuggestions,
		slideNumbers:     match.Topic.SlideNumbers,
	}
	ref := core.ChatReference{
		DeckID:     match.Topic.DeckID,
		DeckTitle:  match.DeckTitle,
		TopicID:    match.Topic.ID,
		TopicTitle: match.Topic.Title,
	}
	return s, ref
}

func slideSnippet(match *storage.SlideMatch) (snippet, core.ChatReference) {
	s := snippet{
		deckTitle:    match.DeckTitle,
		slideCaption: match.Slide.Caption,
		slideNumber:  match.Slide.Number,
	}
	ref := core.ChatReference{
		DeckID:      match.Slide.DeckID,
		DeckTitle:   match.DeckTitle,
		SlideID:     match.Slide.ID,
		SlideNumber: match.Slide.Number,
	}
	return s, ref
}

// render formats the snippet at 1-based position n.
func (s snippet) render(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Snippet %d:\n", n)
	fmt.Fprintf(&b, "Deck: %s\n", s.deckTitle)
	if s.topicTitle != "" {
		fmt.Fprintf(&b, "Topic: %s\n", s.topicTitle)
		if s.topicSummary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", s.topicSummary)
		}
		if len(s.reuseSuggestions) > 0 {
			fmt.Fprintf(&b, "Reuse suggestions: %s\n", strings.Join(s.reuseSuggestions, "; "))
		}
		if len(s.slideNumbers) > 0 {
			fmt.Fprintf(&b, "Covers slides: %s\n", joinInts(s.slideNumbers, ", "))
		}
	}
	if s.slideCaption != "" {
		fmt.Fprintf(&b, "Slide %d: %s\n", s.slideNumber, s.slideCaption)
	}
	return b.String()
}

func renderSnippets(snippets []snippet) string {
	rendered := make([]string, len(snippets))
	for i, s := range snippets {
		rendered[i] = s.render(i + 1)
	}
	return strings.Join(rendered, snippetSeparator)
}

func joinInts(values []int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
