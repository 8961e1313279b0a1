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


// Package deckdex wires storage, the AI provider and the pipeline components
// into one container that is initialized once per process.
package deckdex

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/deckdex/ai"
	"github.com/poiesic/deckdex/ai/openai"
	"github.com/poiesic/deckdex/analysis"
	"github.com/poiesic/deckdex/api"
	"github.com/poiesic/deckdex/chat"
	"github.com/poiesic/deckdex/config"
	"github.com/poiesic/deckdex/embedding"
	"github.com/poiesic/deckdex/ingestion"
	"github.com/poiesic/deckdex/reembed"
	"github.com/poiesic/deckdex/search"
	"github.com/poiesic/deckdex/storage"
	"github.com/poiesic/deckdex/storage/badger"
	"github.com/poiesic/deckdex/storage/sqlite"
)

var (
	// ErrAlreadyInitialized is returned by a second call to Init.
	ErrAlreadyInitialized = errors.New("library already initialized")

	// ErrNotInitialized is returned when components are requested before Init.
	ErrNotInitialized = errors.New("library not initialized")

	// ErrConfigRequired is returned by New without a configuration.
	ErrConfigRequired = errors.New("config is required")
)

// Library owns the process-wide handles. Components are created by Init and
// live until Close.
type Library struct {
	mu          sync.Mutex
	cfg         *config.Config
	logger      *slog.Logger
	initialized bool

	repo      storage.DeckRepository
	provider  ai.AIProvider
	generator *embedding.Generator
	analyzer  *analysis.Analyzer
	engine    *ingestion.Engine
	searcher  *search.Searcher
	answerer  *chat.Answerer

	ownsRepo     bool
	ownsProvider bool
}

// Option configures a Library.
type Option func(*Library) error

// WithLogger sets the logger passed to every component. Nil falls back to
// slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// WithProvider uses provider instead of building an OpenAI-compatible one
// from the configuration. Close still closes it.
func WithProvider(provider ai.AIProvider) Option {
	return func(l *Library) error {
		if provider == nil {
			return errors.New("provider must not be nil")
		}
		l.provider = provider
		return nil
	}
}

// WithRepository uses repo instead of opening the configured datastore.
// The caller keeps ownership: Close leaves it open.
func WithRepository(repo storage.DeckRepository) Option {
	return func(l *Library) error {
		if repo == nil {
			return errors.New("repository must not be nil")
		}
		l.repo = repo
		return nil
	}
}

// New creates an uninitialized Library.
func New(cfg *config.Config, opts ...Option) (*Library, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}
	l := &Library{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Init opens storage, creates the AI provider and builds every component.
// Calling it again before Close returns ErrAlreadyInitialized. A failed Init
// releases what it opened and may be retried.
func (l *Library) Init() (err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.initialized {
		return ErrAlreadyInitialized
	}
	if err := l.cfg.Validate(); err != nil {
		return err
	}

	if l.repo == nil {
		repo, err := openStorage(l.cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", l.cfg.Storage.Driver, err)
		}
		l.repo = repo
		l.ownsRepo = true
	}
	defer func() {
		if err != nil {
			l.release(l.ownsProvider)
		}
	}()

	if l.provider == nil {
		provider, err := openai.NewProvider(l.cfg.AIConfig())
		if err != nil {
			return fmt.Errorf("failed to create AI provider: %w", err)
		}
		l.provider = provider
		l.ownsProvider = true
	}

	if err := l.build(); err != nil {
		return err
	}

	l.initialized = true
	l.logger.Info("library initialized",
		"storage", l.cfg.Storage.Driver,
		"path", l.cfg.Storage.Path,
		"embedding_model", l.cfg.AI.EmbeddingModel,
		"completion_model", l.cfg.AI.CompletionModel)
	return nil
}

func (l *Library) build() error {
	var err error
	l.generator, err = embedding.NewGenerator(l.provider.Embedder(), embedding.WithLogger(l.logger))
	if err != nil {
		return err
	}

	l.analyzer, err = analysis.NewAnalyzer(l.provider.Completer(),
		analysis.WithLogger(l.logger),
		analysis.WithTemperature(l.cfg.AI.AnalysisTemperature),
		analysis.WithParseAttempts(l.cfg.AI.ParseAttempts))
	if err != nil {
		return err
	}

	l.engine, err = ingestion.NewEngine(l.repo, l.generator,
		ingestion.WithLogger(l.logger),
		ingestion.WithEmbeddingDelay(l.cfg.Ingestion.EmbeddingDelay))
	if err != nil {
		return err
	}

	l.searcher, err = search.NewSearcher(l.repo, l.generator,
		search.WithLogger(l.logger),
		search.WithThreshold(l.cfg.Retrieval.SearchThreshold))
	if err != nil {
		return err
	}

	l.answerer, err = chat.NewAnswerer(l.repo, l.generator, l.provider.Completer(),
		chat.WithLogger(l.logger),
		chat.WithThreshold(l.cfg.Retrieval.ChatThreshold),
		chat.WithTemperature(l.cfg.AI.ChatTemperature))
	return err
}

func openStorage(cfg config.StorageConfig) (storage.DeckRepository, error) {
	switch cfg.Driver {
	case config.DriverBadger:
		if cfg.Path == "" {
			return badger.NewMemoryRepository()
		}
		return badger.NewRepository(cfg.Path)
	case config.DriverSqlite:
		if cfg.Path == "" {
			return sqlite.OpenMemory()
		}
		return sqlite.Open(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Close releases the analyzer pool, the provider and, unless it was supplied
// by WithRepository, the datastore.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initialized = false
	return l.release(true)
}

// release tears down the components. A supplied provider is closed only when
// closeProvider is set; handles the Library opened itself are dropped so a
// later Init opens fresh ones.
func (l *Library) release(closeProvider bool) error {
	if l.analyzer != nil {
		l.analyzer.Release()
	}
	l.generator, l.analyzer, l.engine, l.searcher, l.answerer = nil, nil, nil, nil, nil

	if l.provider != nil && closeProvider {
		if err := l.provider.Close(); err != nil {
			l.logger.Error("error closing AI provider", "err", err)
		}
	}
	if l.ownsProvider {
		l.provider = nil
		l.ownsProvider = false
	}

	if l.repo != nil && l.ownsRepo {
		err := l.repo.Close()
		l.repo = nil
		l.ownsRepo = false
		if err != nil {
			l.logger.Error("error closing storage", "err", err)
			return err
		}
	}
	return nil
}

func (l *Library) ready() error {
	if !l.initialized {
		return ErrNotInitialized
	}
	return nil
}

// Config returns the configuration the library was created with.
func (l *Library) Config() *config.Config {
	return l.cfg
}

// Repository returns the datastore.
func (l *Library) Repository() (storage.DeckRepository, error) {
	return l.repo, l.ready()
}

// Embedder returns the validating embedding generator.
func (l *Library) Embedder() (*embedding.Generator, error) {
	return l.generator, l.ready()
}

// Analyzer returns the content analyzer.
func (l *Library) Analyzer() (*analysis.Analyzer, error) {
	return l.analyzer, l.ready()
}

// Engine returns the ingestion engine.
func (l *Library) Engine() (*ingestion.Engine, error) {
	return l.engine, l.ready()
}

// Searcher returns the hybrid search engine.
func (l *Library) Searcher() (*search.Searcher, error) {
	return l.searcher, l.ready()
}

// Answerer returns the chat answerer.
func (l *Library) Answerer() (*chat.Answerer, error) {
	return l.answerer, l.ready()
}

// Services returns the components the HTTP API needs.
func (l *Library) Services() (api.Services, error) {
	if err := l.ready(); err != nil {
		return api.Services{}, err
	}
	return api.Services{
		Decks:    l.repo,
		Ingester: l.engine,
		Searcher: l.searcher,
		Answerer: l.answerer,
		Analyzer: l.analyzer,
	}, nil
}

// NewReembedder returns a reembedder over the library's datastore and
// embedding generator.
func (l *Library) NewReembedder(cfg *reembed.Config, progress io.Writer) (*reembed.Reembedder, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}
	return reembed.NewReembedder(l.repo, l.generator, cfg, progress)
}
