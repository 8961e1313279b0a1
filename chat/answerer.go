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


package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/core"
	"github.com/poiesic/deckdex/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/poiesic/deckdex/chat"

const (
	// DefaultLimit is the total number of snippets requested when a
	// non-positive limit is given. Half are topics, half are slides.
	DefaultLimit = 10

	// DefaultThreshold is the minimum similarity for a snippet.
	DefaultThreshold float32 = 0.6

	// DefaultTemperature is the sampling temperature for answers.
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps the answer length.
	DefaultMaxTokens = 1000
)

// Answerer produces recommendations grounded in stored topics and slides.
type Answerer struct {
	index       storage.VectorSearcher
	embedder    ai.Embedder
	completer   ai.Completer
	threshold   float32
	temperature float64
	maxTokens   int
	logger      *slog.Logger
}

// Option configures an Answerer.
type Option func(*Answerer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Answerer) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// WithTemperature sets the sampling temperature for answers.
func WithTemperature(temperature float64) Option {
	return func(a *Answerer) error {
		if temperature < 0 {
			return fmt.Errorf("temperature must be non-negative, got %v", temperature)
		}
		a.temperature = temperature
		return nil
	}
}

// WithMaxTokens caps the answer length.
func WithMaxTokens(maxTokens int) Option {
	return func(a *Answerer) error {
		if maxTokens < 1 {
			return fmt.Errorf("max tokens must be positive, got %d", maxTokens)
		}
		a.maxTokens = maxTokens
		return nil
	}
}

// WithThreshold sets the minimum similarity for snippets.
func WithThreshold(threshold float32) Option {
	return func(a *Answerer) error {
		if threshold < -1 || threshold > 1 {
			return fmt.Errorf("threshold must be within [-1, 1], got %v", threshold)
		}
		a.threshold = threshold
		return nil
	}
}

// NewAnswerer creates an Answerer.
func NewAnswerer(index storage.VectorSearcher, embedder ai.Embedder, completer ai.Completer, opts ...Option) (*Answerer, error) {
	if index == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	a := &Answerer{
		index:       index,
		embedder:    embedder,
		completer:   completer,
		threshold:   DefaultThreshold,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	a.logger = a.logger.With("component", "chat")
	return a, nil
}

// Answer responds to message using up to limit snippets. A limit of zero or
// less means DefaultLimit.
//
// A blank message, or one with no relevant snippets, gets FallbackAnswer and
// no references; the model is not called.
func (a *Answerer) Answer(ctx context.Context, message string, limit int) (*core.ChatAnswer, error) {
	if strings.TrimSpace(message) == "" {
		return fallback(), nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	perKind := (limit + 1) / 2

	ctx, span := otel.Tracer(tracerName).Start(ctx, "chat.Answer")
	defer span.End()
	span.SetAttributes(
		attribute.Int("chat.message_length", len(message)),
		attribute.Int("chat.limit", limit),
	)

	embedding, err := a.embedder.EmbedText(ctx, message)
	if err != nil {
		if !errors.Is(err, ai.ErrEmbeddingProvider) {
			err = fmt.Errorf("%w: %w", ai.ErrEmbeddingProvider, err)
		}
		return nil, fail(span, a.logger, fmt.Errorf("failed to generate query embedding: %w", err))
	}

	snippets, references, err := a.retrieve(ctx, embedding, perKind)
	if err != nil {
		return nil, fail(span, a.logger, fmt.Errorf("failed to retrieve snippets: %w", err))
	}
	span.SetAttributes(attribute.Int("chat.snippets", len(snippets)))

	if len(snippets) == 0 {
		a.logger.Debug("no relevant snippets found")
		return fallback(), nil
	}

	answer, err := a.completer.Complete(ctx, ai.CompletionRequest{
		System:      systemPrompt,
		Prompt:      buildUserPrompt(message, renderSnippets(snippets)),
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
	})
	if err != nil {
		if !errors.Is(err, ai.ErrCompletionProvider) {
			err = fmt.Errorf("%w: %w", ai.ErrCompletionProvider, err)
		}
		return nil, fail(span, a.logger, fmt.Errorf("failed to generate chat response: %w", err))
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, fail(span, a.logger, fmt.Errorf("failed to generate chat response: %w: %w", ai.ErrCompletionProvider, ErrEmptyAnswer))
	}

	a.logger.Debug("answer generated", "snippets", len(snippets), "length", len(answer))
	return &core.ChatAnswer{Answer: answer, References: references}, nil
}

// retrieve collects topic snippets followed by slide snippets.
func (a *Answerer) retrieve(ctx context.Context, embedding []float32, perKind int) ([]snippet, []core.ChatReference, error) {
	topics, err := a.index.FindSimilarTopics(ctx, embedding, a.threshold, perKind)
	if err != nil {
		return nil, nil, err
	}
	slides, err := a.index.FindSimilarSlides(ctx, embedding, a.threshold, perKind)
	if err != nil {
		return nil, nil, err
	}

	snippets := make([]snippet, 0, len(topics)+len(slides))
	references := make([]core.ChatReference, 0, len(topics)+len(slides))
	for _, match := range topics {
		s, ref := topicSnippet(match)
		snippets = append(snippets, s)
		references = append(references, ref)
	}
	for _, match := range slides {
		s, ref := slideSnippet(match)
		snippets = append(snippets, s)
		references = append(references, ref)
	}
	return snippets, references, nil
}

func fallback() *core.ChatAnswer {
	return &core.ChatAnswer{Answer: FallbackAnswer, References: []core.ChatReference{}}
}

func fail(span trace.Span, logger *slog.Logger, err error) error {
	logger.Error("chat answer failed", "err", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
