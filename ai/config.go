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


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1" or "http://localhost:11434/v1"
	EmbeddingHost string

	// CompletionHost is the base URL for the chat completion service API.
	CompletionHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// It must produce 1536-dimension vectors.
	// Example: "text-embedding-3-small"
	EmbeddingModel string

	// CompletionModel is the model identifier used for analysis and chat.
	// Example: "gpt-4o-mini"
	CompletionModel string

	// APIKey authenticates against the provider. Local OpenAI-compatible
	// servers usually accept any value; "none" is sent when empty.
	APIKey string

	// AnalysisTemperature is the sampling temperature for deck analysis.
	// Default: 0.3
	AnalysisTemperature float64

	// ChatTemperature is the sampling temperature for chat answers.
	// Default: 0.7
	ChatTemperature float64

	// ParseAttempts is how many times analysis retries output that is not
	// valid JSON. Default: 3
	ParseAttempts int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperatures sets the analysis and chat sampling temperatures.
func WithTemperatures(analysis, chat float64) ConfigOption {
	return func(c *Config) {
		c.AnalysisTemperature = analysis
		c.ChatTemperature = chat
	}
}

// WithParseAttempts sets how many times malformed analysis output is retried.
func WithParseAttempts(n int) ConfigOption {
	return func(c *Config) {
		c.ParseAttempts = n
	}
}

// DefaultConfig returns a Config targeting the OpenAI API.
// By default, both embedding and completion use the same host.
func DefaultConfig() *Config {
	defaultHost := "https://api.openai.com/v1"
	return &Config{
		EmbeddingHost:       defaultHost,
		CompletionHost:      defaultHost,
		EmbeddingModel:      "text-embedding-3-small",
		CompletionModel:     "gpt-4o-mini",
		AnalysisTemperature: 0.3,
		ChatTemperature:     0.7,
		ParseAttempts:       3,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://localhost:11434/v1"),
//	    WithEmbeddingModel("nomic-embed-text"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = normalizeHost(c.EmbeddingHost)
	c.CompletionHost = normalizeHost(c.CompletionHost)
}

func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.CompletionHost == "" {
		return errors.New("ai config: CompletionHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.AnalysisTemperature < 0 || c.AnalysisTemperature > 2 {
		return errors.New("ai config: AnalysisTemperature must be between 0 and 2")
	}
	if c.ChatTemperature < 0 || c.ChatTemperature > 2 {
		return errors.New("ai config: ChatTemperature must be between 0 and 2")
	}
	if c.ParseAttempts < 1 {
		return errors.New("ai config: ParseAttempts must be at least 1")
	}
	return nil
}

// Token returns the API key to send, substituting "none" for local servers
// that don't require authentication.
func (c *Config) Token() string {
	if c.APIKey == "" {
		return "none"
	}
	return c.APIKey
}
