package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/ai/mock"
	"github.com/poiesic/deckdex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSlides = []SlideText{
	{Number: 1, Text: "Retail Media Playbook"},
	{Number: 2, Text: "Spend doubled since 2021"},
}

func newTestAnalyzer(t *testing.T, completer *mock.MockCompleter, opts ...Option) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(completer, opts...)
	require.NoError(t, err)
	t.Cleanup(a.Release)
	return a
}

func TestNewAnalyzer(t *testing.T) {
	t.Run("requires completer", func(t *testing.T) {
		a, err := NewAnalyzer(nil)
		assert.ErrorIs(t, err, ErrCompleterRequired)
		assert.Nil(t, a)
	})

	t.Run("defaults", func(t *testing.T) {
		a := newTestAnalyzer(t, mock.NewMockCompleter(""))
		assert.Equal(t, DefaultTemperature, a.temperature)
		assert.Equal(t, DefaultParseAttempts, a.attempts)
		assert.Equal(t, DefaultPoolSize, a.pool.Cap())
	})

	t.Run("options", func(t *testing.T) {
		a := newTestAnalyzer(t, mock.NewMockCompleter(""),
			WithTemperature(0.1), WithParseAttempts(0), WithPoolSize(2))
		assert.Equal(t, 0.1, a.temperature)
		assert.Equal(t, 1, a.attempts)
		assert.Equal(t, 2, a.pool.Cap())
	})

	t.Run("negative temperature rejected", func(t *testing.T) {
		_, err := NewAnalyzer(mock.NewMockCompleter(""), WithTemperature(-1))
		assert.Error(t, err)
	})
}

func TestFormatDeckText(t *testing.T) {
	assert.Equal(t, "Slide 1:\nRetail Media Playbook\n\nSlide 2:\nSpend doubled since 2021", FormatDeckText(testSlides))
	assert.Equal(t, "", FormatDeckText(nil))
}

func TestDeckMetadata(t *testing.T) {
	ctx := context.Background()

	t.Run("parses response and sends json request", func(t *testing.T) {
		completer := mock.NewMockCompleter(validDeckJSON)
		a := newTestAnalyzer(t, completer)

		md, err := a.DeckMetadata(ctx, testSlides)
		require.NoError(t, err)
		assert.Equal(t, "Retail Media Playbook", md.Title)

		req := completer.LastRequest()
		assert.True(t, req.JSON)
		assert.Equal(t, DefaultTemperature, req.Temperature)
		assert.Contains(t, req.Prompt, "Slide 2:\nSpend doubled since 2021")
		assert.Contains(t, req.Prompt, "deck_title")
		assert.NotContains(t, req.Prompt, deckTextPlaceholder)
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		completer := mock.NewMockCompleter(validDeckJSON)
		a := newTestAnalyzer(t, completer)

		for _, slides := range [][]SlideText{nil, {{Number: 1, Text: "  "}}} {
			_, err := a.DeckMetadata(ctx, slides)
			assert.ErrorIs(t, err, ErrEmptyInput)
			assert.ErrorIs(t, err, core.ErrValidation)
		}
		assert.Equal(t, 0, completer.CallCount())
	})

	t.Run("retries invalid syntax then succeeds", func(t *testing.T) {
		var calls atomic.Int32
		completer := mock.NewMockCompleter("")
		completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
			if calls.Add(1) < 3 {
				return "not json", nil
			}
			return validDeckJSON, nil
		}
		a := newTestAnalyzer(t, completer)

		md, err := a.DeckMetadata(ctx, testSlides)
		require.NoError(t, err)
		assert.Equal(t, "Retail Media Playbook", md.Title)
		assert.Equal(t, 3, completer.CallCount())
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		completer := mock.NewMockCompleter("{broken")
		a := newTestAnalyzer(t, completer)

		md, err := a.DeckMetadata(ctx, testSlides)
		assert.Nil(t, md)
		assert.ErrorIs(t, err, ErrMalformedContent)
		assert.True(t, strings.HasPrefix(err.Error(), "malformed content error: invalid syntax: "))
		assert.Equal(t, DefaultParseAttempts, completer.CallCount())
	})

	t.Run("schema mismatch is not retried", func(t *testing.T) {
		completer := mock.NewMockCompleter(`{"deck_title": "only"}`)
		a := newTestAnalyzer(t, completer)

		md, err := a.DeckMetadata(ctx, testSlides)
		assert.Nil(t, md)
		assert.ErrorIs(t, err, ErrMalformedContent)
		assert.True(t, strings.HasPrefix(err.Error(), "malformed content error: schema mismatch: "))
		assert.Equal(t, 1, completer.CallCount())
	})

	t.Run("provider failure is wrapped and not retried", func(t *testing.T) {
		completer := mock.NewMockCompleter("")
		completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
			return "", errors.New("503 service unavailable")
		}
		a := newTestAnalyzer(t, completer)

		_, err := a.DeckMetadata(ctx, testSlides)
		assert.ErrorIs(t, err, ai.ErrCompletionProvider)
		assert.Contains(t, err.Error(), "503 service unavailable")
		assert.Equal(t, 1, completer.CallCount())
	})
}

func TestSegmentTopics(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts wrapped topics", func(t *testing.T) {
		completer := mock.NewMockCompleter(`{"topics": [` + validTopicJSON + `]}`)
		a := newTestAnalyzer(t, completer)

		topics, err := a.SegmentTopics(ctx, testSlides)
		require.NoError(t, err)
		require.Len(t, topics, 1)
		assert.Equal(t, []int{2, 3}, topics[0].SlideNumbers)
		assert.Contains(t, completer.LastRequest().Prompt, "topic_title")
	})

	t.Run("empty input", func(t *testing.T) {
		completer := mock.NewMockCompleter("[]")
		a := newTestAnalyzer(t, completer)

		_, err := a.SegmentTopics(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, 0, completer.CallCount())
	})

	t.Run("bad element rejects whole response", func(t *testing.T) {
		completer := mock.NewMockCompleter(`[` + validTopicJSON + `, {"topic_title": "x"}]`)
		a := newTestAnalyzer(t, completer)

		topics, err := a.SegmentTopics(ctx, testSlides)
		assert.Nil(t, topics)
		assert.ErrorIs(t, err, ErrMalformedContent)
	})
}

func TestLabelSlide(t *testing.T) {
	ctx := context.Background()

	t.Run("labels slide", func(t *testing.T) {
		completer := mock.NewMockCompleter(validSlideJSON)
		a := newTestAnalyzer(t, completer)

		label, err := a.LabelSlide(ctx, "Spend doubled since 2021")
		require.NoError(t, err)
		assert.Equal(t, core.SlideTypeDataChart, label.Type)
		assert.Contains(t, completer.LastRequest().Prompt, "Slide text:\nSpend doubled since 2021")
	})

	t.Run("blank text", func(t *testing.T) {
		completer := mock.NewMockCompleter(validSlideJSON)
		a := newTestAnalyzer(t, completer)

		_, err := a.LabelSlide(ctx, "\n")
		assert.ErrorIs(t, err, ErrEmptyInput)
		assert.Equal(t, 0, completer.CallCount())
	})
}

func TestLabelSlides(t *testing.T) {
	ctx := context.Background()

	t.Run("results keep input order with per-slide errors", func(t *testing.T) {
		completer := mock.NewMockCompleter("")
		completer.CompleteFunc = func(ctx context.Context, req ai.CompletionRequest) (string, error) {
			if strings.Contains(req.Prompt, "slide three") {
				return "", errors.New("timeout")
			}
			return validSlideJSON, nil
		}
		a := newTestAnalyzer(t, completer, WithPoolSize(2))

		slides := []SlideText{
			{Number: 1, Text: "slide one"},
			{Number: 2, Text: ""},
			{Number: 3, Text: "slide three"},
			{Number: 4, Text: "slide four"},
		}
		results := a.LabelSlides(ctx, slides)
		require.Len(t, results, 4)

		for i, r := range results {
			assert.Equal(t, slides[i].Number, r.Number)
		}
		assert.NotNil(t, results[0].Label)
		assert.NoError(t, results[0].Err)
		assert.ErrorIs(t, results[1].Err, ErrEmptyInput)
		assert.ErrorIs(t, results[2].Err, ai.ErrCompletionProvider)
		assert.Nil(t, results[2].Label)
		assert.NotNil(t, results[3].Label)
		assert.Equal(t, 3, completer.CallCount())
	})

	t.Run("many slides", func(t *testing.T) {
		completer := mock.NewMockCompleter(validSlideJSON)
		a := newTestAnalyzer(t, completer)

		slides := make([]SlideText, 25)
		for i := range slides {
			slides[i] = SlideText{Number: i + 1, Text: fmt.Sprintf("slide %d", i+1)}
		}
		results := a.LabelSlides(ctx, slides)
		require.Len(t, results, 25)
		for _, r := range results {
			assert.NoError(t, r.Err)
			assert.NotNil(t, r.Label)
		}
	})

	t.Run("no slides", func(t *testing.T) {
		a := newTestAnalyzer(t, mock.NewMockCompleter(validSlideJSON))
		assert.Empty(t, a.LabelSlides(ctx, nil))
	})
}

func TestRequestUnknownOutcome(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer(t, mock.NewMockCompleter(validDeckJSON))

	md, err := request(ctx, a, "deck_metadata", "prompt", func(string) Outcome[DeckMetadata] {
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContent)
	assert.Contains(t, err.Error(), "unknown outcome")
	assert.Equal(t, DeckMetadata{}, md)
}

func TestRequestRefusedOutcome(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer(t, mock.NewMockCompleter(validDeckJSON))

	_, err := request(ctx, a, "deck_metadata", "prompt", func(string) Outcome[DeckMetadata] {
		return Refused[DeckMetadata]{schemaRejection("deck metadata: %s", "missing")}
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedContent)
	assert.Contains(t, err.Error(), string(KindSchemaMismatch))
}
