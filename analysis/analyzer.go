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


package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/core"
)

const (
	// DefaultTemperature keeps structured output close to deterministic.
	DefaultTemperature = 0.3

	// DefaultParseAttempts is how many times a response that is not JSON is
	// requested before giving up.
	DefaultParseAttempts = 3

	// DefaultPoolSize is how many slides are labeled concurrently.
	DefaultPoolSize = 5

	minExpectedTopics = 5
	maxExpectedTopics = 12
)

// Analyzer turns slide text into deck metadata, topics and slide labels.
// It is safe for concurrent use.
type Analyzer struct {
	completer   ai.Completer
	temperature float64
	attempts    int
	pool        *ants.Pool
	logger      *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithTemperature sets the sampling temperature for analysis calls.
func WithTemperature(temperature float64) Option {
	return func(a *Analyzer) error {
		if temperature < 0 {
			return fmt.Errorf("temperature must be non-negative, got %v", temperature)
		}
		a.temperature = temperature
		return nil
	}
}

// WithParseAttempts sets how many times a response that is not JSON is
// requested. Values below 1 are treated as 1.
func WithParseAttempts(attempts int) Option {
	return func(a *Analyzer) error {
		if attempts < 1 {
			attempts = 1
		}
		a.attempts = attempts
		return nil
	}
}

// WithPoolSize sets how many slides LabelSlides labels concurrently.
// Default is DefaultPoolSize, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(a *Analyzer) error {
		if size < 1 {
			size = 1
		}
		if a.pool != nil {
			a.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		a.pool = pool
		return nil
	}
}

// NewAnalyzer creates an Analyzer backed by completer.
// Call Release when the analyzer is no longer needed.
func NewAnalyzer(completer ai.Completer, opts ...Option) (*Analyzer, error) {
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	pool, err := ants.NewPool(DefaultPoolSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		completer:   completer,
		temperature: DefaultTemperature,
		attempts:    DefaultParseAttempts,
		pool:        pool,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(a); optErr != nil {
			a.Release()
			return nil, optErr
		}
	}
	a.logger = a.logger.With("component", "analyzer")
	return a, nil
}

// Release frees the labeling worker pool.
func (a *Analyzer) Release() {
	if a.pool != nil {
		a.pool.Release()
	}
}

// DeckMetadata summarizes the deck as a whole.
func (a *Analyzer) DeckMetadata(ctx context.Context, slides []SlideText) (*DeckMetadata, error) {
	if !hasText(slides) {
		return nil, emptyInput()
	}

	prompt := buildDeckPrompt(FormatDeckText(slides))
	metadata, err := request(ctx, a, "deck_metadata", prompt, ParseDeckMetadata)
	if err != nil {
		return nil, err
	}
	return &metadata, nil
}

// SegmentTopics splits the deck into topics. A topic count outside the usual
// range is logged, not rejected.
func (a *Analyzer) SegmentTopics(ctx context.Context, slides []SlideText) ([]TopicDraft, error) {
	if !hasText(slides) {
		return nil, emptyInput()
	}

	prompt := buildTopicsPrompt(FormatDeckText(slides))
	topics, err := request(ctx, a, "topics", prompt, ParseTopics)
	if err != nil {
		return nil, err
	}

	if len(topics) < minExpectedTopics || len(topics) > maxExpectedTopics {
		a.logger.Warn("unusual topic count",
			"topics", len(topics),
			"min", minExpectedTopics,
			"max", maxExpectedTopics)
	}

	known := make(map[int]bool, len(slides))
	for _, slide := range slides {
		known[slide.Number] = true
	}
	for _, topic := range topics {
		for _, n := range topic.SlideNumbers {
			if !known[n] {
				a.logger.Warn("topic references unknown slide", "topic", topic.Title, "slide", n)
			}
		}
	}
	return topics, nil
}

// LabelSlide labels one slide.
func (a *Analyzer) LabelSlide(ctx context.Context, text string) (*SlideLabel, error) {
	if strings.TrimSpace(text) == "" {
		return nil, emptyInput()
	}

	label, err := request(ctx, a, "slide_label", buildSlidePrompt(text), ParseSlideLabel)
	if err != nil {
		return nil, err
	}
	return &label, nil
}

// LabelSlides labels every slide concurrently. Results are in input order and
// each carries its own error, so one failed slide does not affect the others.
func (a *Analyzer) LabelSlides(ctx context.Context, slides []SlideText) []SlideLabelResult {
	results := make([]SlideLabelResult, len(slides))
	var wg sync.WaitGroup

	for i, slide := range slides {
		results[i].Number = slide.Number
		wg.Add(1)
		err := a.pool.Submit(func() {
			defer wg.Done()
			label, err := a.LabelSlide(ctx, slide.Text)
			if err != nil {
				a.logger.Warn("failed to label slide", "slide", slide.Number, "err", err)
				results[i].Err = err
				return
			}
			results[i].Label = label
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
		}
	}

	wg.Wait()
	return results
}

// request asks the model for a record, retrying responses that are not JSON.
func request[T any](ctx context.Context, a *Analyzer, op, prompt string, parse func(string) Outcome[T]) (T, error) {
	var zero T
	req := ai.CompletionRequest{
		Prompt:      prompt,
		JSON:        true,
		Temperature: a.temperature,
	}

	var lastErr error
	for attempt := 0; attempt < a.attempts; attempt++ {
		response, err := a.completer.Complete(ctx, req)
		if err != nil {
			a.logger.Error("failed to generate content", "op", op, "attempt", attempt+1, "err", err)
			return zero, completionError(err)
		}

		switch outcome := parse(response).(type) {
		case Parsed[T]:
			return outcome.Record, nil
		case Refused[T]:
			lastErr = outcome.Err()
			if !outcome.Retryable() {
				a.logger.Error("model response has wrong shape", "op", op, "detail", outcome.Detail)
				return zero, lastErr
			}
			a.logger.Warn("error parsing model response",
				"op", op,
				"attempt", attempt+1,
				"response", response,
				"err", lastErr)
		default:
			a.logger.Error("parser returned unknown outcome", "op", op, "outcome", fmt.Sprintf("%T", outcome))
			return zero, fmt.Errorf("%w: unknown outcome %T", ErrMalformedContent, outcome)
		}
	}

	a.logger.Error("failed to parse model response after retries", "op", op, "err", lastErr)
	return zero, lastErr
}

func emptyInput() error {
	return fmt.Errorf("%w: %w", core.ErrValidation, ErrEmptyInput)
}

func completionError(err error) error {
	if errors.Is(err, ai.ErrCompletionProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ai.ErrCompletionProvider, err)
}
