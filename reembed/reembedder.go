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


package reembed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of items to embed in each provider call
	BatchSize int

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// MissingOnly restricts the run to items stored without an embedding
	MissingOnly bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Result summarizes a completed run.
type Result struct {
	Topics  int `json:"topics"`
	Slides  int `json:"slides"`
	Skipped int `json:"skipped"`
}

// Reembedder orchestrates the reembedding of stored topics and slides.
type Reembedder struct {
	config    *Config
	progress  io.Writer
	processor *BatchProcessor
	iterator  *ItemIterator
	logger    *slog.Logger
}

// NewReembedder creates a new reembedder.
// progress: where to write progress output (typically os.Stderr, nil discards it)
func NewReembedder(repo storage.DeckRepository, embedder ai.Embedder, config *Config, progress io.Writer) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxRetries <= 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Reembedder{
		config:    config,
		progress:  progress,
		processor: NewBatchProcessor(repo, embedder, config.MaxRetries, config.RetryDelay),
		iterator:  NewItemIterator(repo, config.BatchSize, config.MissingOnly),
		logger:    slog.Default().With("component", "reembedder"),
	}, nil
}

// Run re-embeds the selected items and reports progress to the configured
// writer. Batches already written stay written if a later batch fails.
func (r *Reembedder) Run(ctx context.Context) (*Result, error) {
	sel, err := r.iterator.Select(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}

	result := &Result{Skipped: sel.Skipped}
	total := len(sel.Items)
	if total == 0 {
		fmt.Fprintf(r.progress, "No items to reembed (%d skipped)\n", sel.Skipped)
		return result, nil
	}

	fmt.Fprintf(r.progress, "Starting reembedding of %d items (batch size: %d, skipped: %d)\n",
		total, r.iterator.batchSize, sel.Skipped)

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, sel.Items, func(items []Item) error {
		if err := r.processor.Process(ctx, items); err != nil {
			return fmt.Errorf("failed to process batch: %w", err)
		}
		for _, item := range items {
			if item.Kind == KindTopic {
				result.Topics++
			} else {
				result.Slides++
			}
		}
		tracker.Done(items)
		return nil
	})
	if err != nil {
		r.logger.Error("reembedding stopped", "topics", result.Topics, "slides", result.Slides, "err", err)
		return result, err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reembedding complete. Processed %d items in %v (%.1f items/sec)\n",
		total, elapsed.Round(time.Millisecond), rate(total, elapsed))
	r.logger.Info("reembedding complete", "topics", result.Topics, "slides", result.Slides, "skipped", result.Skipped)

	return result, nil
}
