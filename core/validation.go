// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"slices"
	"strings"
)

// ValidateEmbedding checks that a vector has exactly EmbeddingDimensions components.
func ValidateEmbedding(vector []float32) error {
	if len(vector) != EmbeddingDimensions {
		return fmt.Errorf("%w: %w: expected %d, got %d",
			ErrValidation, ErrInvalidEmbedding, EmbeddingDimensions, len(vector))
	}
	return nil
}

// ValidateDeck validates a Deck according to domain rules.
//
// Validation rules:
//   - ExternalFileID must not be blank
//
// NOT validated:
//   - Title and summary (the analyzer may legitimately return empty strings)
//   - ID (0 is valid before insertion)
func ValidateDeck(deck *Deck) error {
	if deck == nil {
		return fmt.Errorf("%w: %w: deck is nil", ErrValidation, ErrInvalidDeck)
	}
	if strings.TrimSpace(deck.ExternalFileID) == "" {
		return fmt.Errorf("%w: %w: %w", ErrValidation, ErrInvalidDeck, ErrEmptyExternalFileID)
	}
	return nil
}

// ValidateTopic validates a Topic according to domain rules.
//
// Validation rules:
//   - Every slide number must be positive
//   - Embedding, when present, must have EmbeddingDimensions components
func ValidateTopic(topic *Topic) error {
	if topic == nil {
		return fmt.Errorf("%w: %w: topic is nil", ErrValidation, ErrInvalidTopic)
	}
	for _, n := range topic.SlideNumbers {
		if n < 1 {
			return fmt.Errorf("%w: %w: %w: got %d", ErrValidation, ErrInvalidTopic, ErrInvalidSlideNumber, n)
		}
	}
	if topic.Embedding != nil {
		if err := ValidateEmbedding(topic.Embedding); err != nil {
			return fmt.Errorf("%w: topic %q: %w", ErrInvalidTopic, topic.Title, err)
		}
	}
	return nil
}

// ValidateSlide validates a Slide according to domain rules.
//
// Validation rules:
//   - Number must be positive
//   - Embedding, when present, must have EmbeddingDimensions components
func ValidateSlide(slide *Slide) error {
	if slide == nil {
		return fmt.Errorf("%w: %w: slide is nil", ErrValidation, ErrInvalidSlide)
	}
	if slide.Number < 1 {
		return fmt.Errorf("%w: %w: %w: got %d", ErrValidation, ErrInvalidSlide, ErrInvalidSlideNumber, slide.Number)
	}
	if slide.Embedding != nil {
		if err := ValidateEmbedding(slide.Embedding); err != nil {
			return fmt.Errorf("%w: slide %d: %w", ErrInvalidSlide, slide.Number, err)
		}
	}
	return nil
}

// ValidateSlides validates each slide and checks slide numbers are unique.
func ValidateSlides(slides []*Slide) error {
	seen := make(map[int]bool, len(slides))
	for _, slide := range slides {
		if err := ValidateSlide(slide); err != nil {
			return err
		}
		if seen[slide.Number] {
			return fmt.Errorf("%w: %w: %w: %d", ErrValidation, ErrInvalidSlide, ErrDuplicateSlideNumber, slide.Number)
		}
		seen[slide.Number] = true
	}
	return nil
}

// NormalizeStoryContext maps free-form provider output onto a StoryContext.
// Unknown values become StoryContextOther.
func NormalizeStoryContext(value string) StoryContext {
	sc := StoryContext(normalizeTag(value))
	if slices.Contains(StoryContexts, sc) {
		return sc
	}
	return StoryContextOther
}

// NormalizeSlideType maps free-form provider output onto a SlideType.
// Unknown values become SlideTypeOther.
func NormalizeSlideType(value string) SlideType {
	st := SlideType(normalizeTag(value))
	if slices.Contains(SlideTypes, st) {
		return st
	}
	return SlideTypeOther
}

// NormalizeReusable lowercases and trims a reusability flag.
func NormalizeReusable(value string) string {
	return normalizeTag(value)
}

func normalizeTag(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.Trim(value, "'\"")
	return strings.ReplaceAll(value, " ", "_")
}
