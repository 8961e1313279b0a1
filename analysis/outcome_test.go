package analysis

import (
	"errors"
	"testing"

	"github.com/poiesic/deckdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDeckJSON = `{
  "deck_title": " Retail Media Playbook ",
  "deck_summary": "How brands win on retail media networks.",
  "main_themes": ["retail media", "measurement"],
  "primary_audiences": ["CMOs"],
  "use_cases_for_other_presentations": ["Pitching commerce capabilities"]
}`

const validTopicJSON = `{
  "topic_title": "Market shift",
  "topic_summary": "Retail media is growing fast.",
  "story_context": "Market Problem",
  "topics": ["growth"],
  "reuse_suggestions": ["Open a pitch with it"],
  "slide_numbers": [2, 3]
}`

const validSlideJSON = `{
  "slide_type": "DATA_CHART",
  "slide_caption": "Spend doubled since 2021.",
  "topics": ["spend"],
  "reusable": " Needs_Edit "
}`

func requireRejected[T any](t *testing.T, outcome Outcome[T]) Rejected {
	t.Helper()
	refused, ok := outcome.(Refused[T])
	require.True(t, ok, "expected Refused, got %T", outcome)
	return refused.Rejected
}

func requireParsed[T any](t *testing.T, outcome Outcome[T]) T {
	t.Helper()
	parsed, ok := outcome.(Parsed[T])
	require.True(t, ok, "expected Parsed, got %#v", outcome)
	return parsed.Record
}

func TestParseDeckMetadata(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		md := requireParsed(t, ParseDeckMetadata(validDeckJSON))
		assert.Equal(t, "Retail Media Playbook", md.Title)
		assert.Equal(t, []string{"retail media", "measurement"}, md.Themes)
		assert.Equal(t, []string{"CMOs"}, md.Audiences)
		assert.Equal(t, []string{"Pitching commerce capabilities"}, md.UseCases)
	})

	t.Run("fenced", func(t *testing.T) {
		md := requireParsed(t, ParseDeckMetadata("```json\n"+validDeckJSON+"\n```"))
		assert.Equal(t, "Retail Media Playbook", md.Title)
	})

	t.Run("not json", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata("Sure! Here is the summary."))
		assert.Equal(t, KindInvalidSyntax, r.Kind)
		assert.True(t, r.Retryable())
	})

	t.Run("empty", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata("  "))
		assert.Equal(t, KindInvalidSyntax, r.Kind)
	})

	t.Run("missing field", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata(`{"deck_title": "x", "deck_summary": "y", "main_themes": [], "primary_audiences": []}`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
		assert.False(t, r.Retryable())
		assert.Contains(t, r.Detail, "use_cases_for_other_presentations")
	})

	t.Run("wrong type", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata(`{"deck_title": 7, "deck_summary": "y", "main_themes": [], "primary_audiences": [], "use_cases_for_other_presentations": []}`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})

	t.Run("null array", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata(`{"deck_title": "x", "deck_summary": "y", "main_themes": null, "primary_audiences": [], "use_cases_for_other_presentations": []}`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
		assert.Contains(t, r.Detail, "main_themes")
	})

	t.Run("array instead of object", func(t *testing.T) {
		r := requireRejected(t, ParseDeckMetadata(`[1, 2]`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})
}

func TestParseTopics(t *testing.T) {
	t.Run("bare array", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics("[" + validTopicJSON + "]"))
		require.Len(t, topics, 1)
		assert.Equal(t, "Market shift", topics[0].Title)
		assert.Equal(t, core.StoryContextMarketProblem, topics[0].StoryContext)
		assert.Equal(t, []string{"growth"}, topics[0].Keywords)
		assert.Equal(t, []int{2, 3}, topics[0].SlideNumbers)
	})

	t.Run("wrapped in topics key", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics(`{"topics": [` + validTopicJSON + `,` + validTopicJSON + `]}`))
		assert.Len(t, topics, 2)
	})

	t.Run("wrapped in other key", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics(`{"segments": [` + validTopicJSON + `]}`))
		assert.Len(t, topics, 1)
	})

	t.Run("single topic object", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics(validTopicJSON))
		require.Len(t, topics, 1)
		assert.Equal(t, "Market shift", topics[0].Title)
	})

	t.Run("unknown story context becomes other", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics(`[{"topic_title": "a", "topic_summary": "b", "story_context": "origin story", "topics": [], "reuse_suggestions": [], "slide_numbers": [1]}]`))
		assert.Equal(t, core.StoryContextOther, topics[0].StoryContext)
	})

	t.Run("empty array", func(t *testing.T) {
		topics := requireParsed(t, ParseTopics(`{"topics": []}`))
		assert.Empty(t, topics)
	})

	t.Run("object without topics", func(t *testing.T) {
		r := requireRejected(t, ParseTopics(`{"answer": "none"}`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})

	t.Run("element missing slide numbers", func(t *testing.T) {
		r := requireRejected(t, ParseTopics(`[{"topic_title": "a", "topic_summary": "b", "story_context": "other", "topics": [], "reuse_suggestions": []}]`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
		assert.Contains(t, r.Detail, "slide_numbers")
	})

	t.Run("non-positive slide number", func(t *testing.T) {
		r := requireRejected(t, ParseTopics(`[{"topic_title": "a", "topic_summary": "b", "story_context": "other", "topics": [], "reuse_suggestions": [], "slide_numbers": [0]}]`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})

	t.Run("non-integer slide number", func(t *testing.T) {
		r := requireRejected(t, ParseTopics(`[{"topic_title": "a", "topic_summary": "b", "story_context": "other", "topics": [], "reuse_suggestions": [], "slide_numbers": ["two"]}]`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})

	t.Run("truncated json", func(t *testing.T) {
		r := requireRejected(t, ParseTopics(`[{"topic_title": "a"`))
		assert.Equal(t, KindInvalidSyntax, r.Kind)
	})
}

func TestParseSlideLabel(t *testing.T) {
	t.Run("valid with normalization", func(t *testing.T) {
		label := requireParsed(t, ParseSlideLabel(validSlideJSON))
		assert.Equal(t, core.SlideTypeDataChart, label.Type)
		assert.Equal(t, "Spend doubled since 2021.", label.Caption)
		assert.Equal(t, core.ReusableNeedsEdit, label.Reusable)
		assert.Equal(t, []string{"spend"}, label.Keywords)
	})

	t.Run("unknown slide type becomes other", func(t *testing.T) {
		label := requireParsed(t, ParseSlideLabel(`{"slide_type": "agenda", "slide_caption": "", "topics": [], "reusable": "yes"}`))
		assert.Equal(t, core.SlideTypeOther, label.Type)
	})

	t.Run("repairs unquoted key", func(t *testing.T) {
		label := requireParsed(t, ParseSlideLabel(`{"slide_type": "cover", slide_caption": "Title page", "topics": [], "reusable": "no"}`))
		assert.Equal(t, "Title page", label.Caption)
	})

	t.Run("keywords not an array", func(t *testing.T) {
		r := requireRejected(t, ParseSlideLabel(`{"slide_type": "cover", "slide_caption": "x", "topics": "a, b", "reusable": "no"}`))
		assert.Equal(t, KindSchemaMismatch, r.Kind)
	})
}

func TestRejectedErr(t *testing.T) {
	err := Rejected{Kind: KindInvalidSyntax, Detail: "unexpected end of JSON input"}.Err()
	assert.True(t, errors.Is(err, ErrMalformedContent))
	assert.Equal(t, "malformed content error: invalid syntax: unexpected end of JSON input", err.Error())

	err = Rejected{Kind: KindSchemaMismatch, Detail: "missing or null fields: reusable"}.Err()
	assert.Equal(t, "malformed content error: schema mismatch: missing or null fields: reusable", err.Error())
}

func TestOutcomeResult(t *testing.T) {
	t.Run("parsed carries its record", func(t *testing.T) {
		var outcome Outcome[SlideLabel] = Parsed[SlideLabel]{Record: SlideLabel{Caption: "x"}}
		label, rejected := outcome.result()
		assert.Nil(t, rejected)
		assert.Equal(t, "x", label.Caption)
	})

	t.Run("refused carries zero record and reason", func(t *testing.T) {
		outcome := ParseDeckMetadata("not json")
		md, rejected := outcome.result()
		require.NotNil(t, rejected)
		assert.Equal(t, KindInvalidSyntax, rejected.Kind)
		assert.Equal(t, DeckMetadata{}, md)
	})
}
