package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/poiesic/deckdex/core"
)

// RejectKind says why model output was rejected.
type RejectKind string

const (
	// KindInvalidSyntax means the output was not JSON at all. Worth retrying.
	KindInvalidSyntax RejectKind = "invalid syntax"

	// KindSchemaMismatch means the JSON lacked fields or had the wrong types.
	KindSchemaMismatch RejectKind = "schema mismatch"
)

// Outcome is the result of parsing model output into a T.
// It is either Parsed[T] or Refused[T].
type Outcome[T any] interface {
	result() (T, *Rejected)
}

// Parsed carries a successfully parsed record.
type Parsed[T any] struct {
	Record T
}

func (p Parsed[T]) result() (T, *Rejected) {
	return p.Record, nil
}

// Refused is the Outcome for output that could not be parsed into a T.
type Refused[T any] struct {
	Rejected
}

func (r Refused[T]) result() (T, *Rejected) {
	var zero T
	return zero, &r.Rejected
}

// Rejected carries the reason output could not be parsed. No partial record
// is kept.
type Rejected struct {
	Kind   RejectKind
	Detail string
}

// Err converts the rejection into an error wrapping ErrMalformedContent.
func (r Rejected) Err() error {
	return fmt.Errorf("%w: %s: %s", ErrMalformedContent, r.Kind, r.Detail)
}

// Retryable reports whether asking the model again may help.
func (r Rejected) Retryable() bool {
	return r.Kind == KindInvalidSyntax
}

func syntaxRejection(format string, args ...any) Rejected {
	return Rejected{Kind: KindInvalidSyntax, Detail: fmt.Sprintf(format, args...)}
}

func schemaRejection(format string, args ...any) Rejected {
	return Rejected{Kind: KindSchemaMismatch, Detail: fmt.Sprintf(format, args...)}
}

type deckMetadataWire struct {
	Title     *string   `json:"deck_title"`
	Summary   *string   `json:"deck_summary"`
	Themes    *[]string `json:"main_themes"`
	Audiences *[]string `json:"primary_audiences"`
	UseCases  *[]string `json:"use_cases_for_other_presentations"`
}

type topicWire struct {
	Title            *string   `json:"topic_title"`
	Summary          *string   `json:"topic_summary"`
	StoryContext     *string   `json:"story_context"`
	Keywords         *[]string `json:"topics"`
	ReuseSuggestions *[]string `json:"reuse_suggestions"`
	SlideNumbers     *[]int    `json:"slide_numbers"`
}

type slideLabelWire struct {
	Type     *string   `json:"slide_type"`
	Caption  *string   `json:"slide_caption"`
	Keywords *[]string `json:"topics"`
	Reusable *string   `json:"reusable"`
}

// topicWrapperKeys are object keys models use to wrap a topic array.
var topicWrapperKeys = []string{"topics", "items", "data", "results", "segments"}

// ParseDeckMetadata parses a deck metadata response.
func ParseDeckMetadata(text string) Outcome[DeckMetadata] {
	data, rejected := decode(text)
	if rejected != nil {
		return Refused[DeckMetadata]{*rejected}
	}

	var wire deckMetadataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Refused[DeckMetadata]{schemaRejection("deck metadata: %v", err)}
	}

	var missing fieldList
	missing.need("deck_title", wire.Title != nil)
	missing.need("deck_summary", wire.Summary != nil)
	missing.need("main_themes", wire.Themes != nil)
	missing.need("primary_audiences", wire.Audiences != nil)
	missing.need("use_cases_for_other_presentations", wire.UseCases != nil)
	if len(missing) > 0 {
		return Refused[DeckMetadata]{schemaRejection("deck metadata: %s", missing)}
	}

	return Parsed[DeckMetadata]{Record: DeckMetadata{
		Title:     strings.TrimSpace(*wire.Title),
		Summary:   strings.TrimSpace(*wire.Summary),
		Themes:    *wire.Themes,
		Audiences: *wire.Audiences,
		UseCases:  *wire.UseCases,
	}}
}

// ParseTopics parses a topic segmentation response. The topics may be a bare
// array, an object wrapping the array, or a single topic object.
func ParseTopics(text string) Outcome[[]TopicDraft] {
	data, rejected := decode(text)
	if rejected != nil {
		return Refused[[]TopicDraft]{*rejected}
	}

	elems, rejected := topicElements(data)
	if rejected != nil {
		return Refused[[]TopicDraft]{*rejected}
	}

	drafts := make([]TopicDraft, 0, len(elems))
	for i, raw := range elems {
		var wire topicWire
		if err := json.Unmarshal(raw, &wire); err != nil {
			return Refused[[]TopicDraft]{schemaRejection("topic %d: %v", i, err)}
		}

		var missing fieldList
		missing.need("topic_title", wire.Title != nil)
		missing.need("topic_summary", wire.Summary != nil)
		missing.need("story_context", wire.StoryContext != nil)
		missing.need("topics", wire.Keywords != nil)
		missing.need("reuse_suggestions", wire.ReuseSuggestions != nil)
		missing.need("slide_numbers", wire.SlideNumbers != nil)
		if len(missing) > 0 {
			return Refused[[]TopicDraft]{schemaRejection("topic %d: %s", i, missing)}
		}
		for _, n := range *wire.SlideNumbers {
			if n < 1 {
				return Refused[[]TopicDraft]{schemaRejection("topic %d: slide number %d is not positive", i, n)}
			}
		}

		drafts = append(drafts, TopicDraft{
			Title:            strings.TrimSpace(*wire.Title),
			Summary:          strings.TrimSpace(*wire.Summary),
			StoryContext:     core.NormalizeStoryContext(*wire.StoryContext),
			Keywords:         *wire.Keywords,
			ReuseSuggestions: *wire.ReuseSuggestions,
			SlideNumbers:     *wire.SlideNumbers,
		})
	}
	return Parsed[[]TopicDraft]{Record: drafts}
}

// ParseSlideLabel parses a slide label response.
func ParseSlideLabel(text string) Outcome[SlideLabel] {
	data, rejected := decode(text)
	if rejected != nil {
		return Refused[SlideLabel]{*rejected}
	}

	var wire slideLabelWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Refused[SlideLabel]{schemaRejection("slide label: %v", err)}
	}

	var missing fieldList
	missing.need("slide_type", wire.Type != nil)
	missing.need("slide_caption", wire.Caption != nil)
	missing.need("topics", wire.Keywords != nil)
	missing.need("reusable", wire.Reusable != nil)
	if len(missing) > 0 {
		return Refused[SlideLabel]{schemaRejection("slide label: %s", missing)}
	}

	return Parsed[SlideLabel]{Record: SlideLabel{
		Type:     core.NormalizeSlideType(*wire.Type),
		Caption:  strings.TrimSpace(*wire.Caption),
		Keywords: *wire.Keywords,
		Reusable: core.NormalizeReusable(*wire.Reusable),
	}}
}

// decode cleans the response and checks it is well-formed JSON.
func decode(text string) ([]byte, *Rejected) {
	cleaned := cleanResponse(text)
	if cleaned == "" {
		r := syntaxRejection("empty response")
		return nil, &r
	}
	data := []byte(cleaned)
	if !json.Valid(data) {
		var v any
		err := json.Unmarshal(data, &v)
		r := syntaxRejection("%v", err)
		return nil, &r
	}
	return data, nil
}

func topicElements(data []byte) ([]json.RawMessage, *Rejected) {
	var elems []json.RawMessage
	switch firstByte(data) {
	case '[':
		if err := json.Unmarshal(data, &elems); err != nil {
			r := schemaRejection("topics: %v", err)
			return nil, &r
		}
		return elems, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			r := schemaRejection("topics: %v", err)
			return nil, &r
		}
		if _, ok := obj["topic_title"]; ok {
			return []json.RawMessage{data}, nil
		}
		for _, key := range topicWrapperKeys {
			raw, ok := obj[key]
			if !ok || firstByte(raw) != '[' {
				continue
			}
			if err := json.Unmarshal(raw, &elems); err != nil {
				r := schemaRejection("topics: %v", err)
				return nil, &r
			}
			return elems, nil
		}
	}
	r := schemaRejection("expected array or object with topics array")
	return nil, &r
}

func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

// fieldList collects missing or null field names.
type fieldList []string

func (f *fieldList) need(name string, present bool) {
	if !present {
		*f = append(*f, name)
	}
}

func (f fieldList) String() string {
	return "missing or null fields: " + strings.Join(f, ", ")
}
