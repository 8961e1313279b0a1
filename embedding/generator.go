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


package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/core"
)

// MaxInputRunes is the longest text submitted to the provider.
const MaxInputRunes = 8000

// Generator enforces embedding input and output rules around a provider.
type Generator struct {
	embedder ai.Embedder
	logger   *slog.Logger
}

var _ ai.Embedder = (*Generator)(nil)

// Option configures a Generator.
type Option func(*Generator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGenerator wraps embedder.
func NewGenerator(embedder ai.Embedder, opts ...Option) (*Generator, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	g := &Generator{
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "embedding")
	return g, nil
}

// EmbedText returns the embedding of text.
//
// Blank text fails with core.ErrEmptyText without calling the provider. A
// vector of the wrong length fails with core.ErrInvalidEmbedding, and provider
// failures wrap ai.ErrEmbeddingProvider.
func (g *Generator) EmbedText(ctx context.Context, text string) ([]float32, error) {
	prepared, err := prepare(text)
	if err != nil {
		return nil, err
	}

	vec, err := g.embedder.EmbedText(ctx, prepared)
	if err != nil {
		return nil, providerError(err)
	}
	if err := core.ValidateEmbedding(vec); err != nil {
		g.logger.Warn("provider returned unexpected vector", "length", len(vec))
		return nil, err
	}
	return vec, nil
}

// EmbedTexts embeds texts in one provider call, applying the EmbedText rules
// to every element. Results are in input order.
func (g *Generator) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	prepared := make([]string, len(texts))
	for i, text := range texts {
		p, err := prepare(text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		prepared[i] = p
	}

	vecs, err := g.embedder.EmbedTexts(ctx, prepared)
	if err != nil {
		return nil, providerError(err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("%w: %w: expected %d, received %d",
			ai.ErrEmbeddingProvider, ErrResultMismatch, len(texts), len(vecs))
	}
	for i, vec := range vecs {
		if err := core.ValidateEmbedding(vec); err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
	}
	return vecs, nil
}

func prepare(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", core.ErrValidation, core.ErrEmptyText)
	}
	return Truncate(text, MaxInputRunes), nil
}

// Truncate returns the first max runes of text.
func Truncate(text string, max int) string {
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max])
}

func providerError(err error) error {
	if errors.Is(err, ai.ErrEmbeddingProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ai.ErrEmbeddingProvider, err)
}
