// Package config loads the deckdex application configuration from a YAML
// file, overlaid by environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/poiesic/deckdex/ai"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverBadger = "badger"
	DriverSqlite = "sqlite"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// StorageConfig selects the datastore.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	// Path is the badger directory or the sqlite file. Empty means in-memory.
	Path string `yaml:"path"`
}

// AIConfig configures the OpenAI-compatible provider.
type AIConfig struct {
	EmbeddingHost       string  `yaml:"embedding_host"`
	CompletionHost      string  `yaml:"completion_host"`
	EmbeddingModel      string  `yaml:"embedding_model"`
	CompletionModel     string  `yaml:"completion_model"`
	AnalysisTemperature float64 `yaml:"analysis_temperature"`
	ChatTemperature     float64 `yaml:"chat_temperature"`
	ParseAttempts       int     `yaml:"parse_attempts"`

	// APIKey is only read from the environment and never written to disk.
	APIKey string `yaml:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// IngestionConfig configures the ingestion engine.
type IngestionConfig struct {
	// EmbeddingDelay spaces embedding calls on the incremental path.
	EmbeddingDelay time.Duration `yaml:"embedding_delay"`
}

// RetrievalConfig holds the similarity floors for search and chat.
type RetrievalConfig struct {
	SearchThreshold float32 `yaml:"search_threshold"`
	ChatThreshold   float32 `yaml:"chat_threshold"`
}

// TelemetryConfig configures OTLP trace export. An empty endpoint disables it.
type TelemetryConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
	Insecure    bool   `yaml:"insecure"`
}

// Config is the root application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	AI        AIConfig        `yaml:"ai"`
	Server    ServerConfig    `yaml:"server"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Default returns the built-in configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Storage: StorageConfig{Driver: DriverBadger, Path: "deckdex.db"},
		AI: AIConfig{
			EmbeddingHost:       aiDefaults.EmbeddingHost,
			CompletionHost:      aiDefaults.CompletionHost,
			EmbeddingModel:      aiDefaults.EmbeddingModel,
			CompletionModel:     aiDefaults.CompletionModel,
			AnalysisTemperature: aiDefaults.AnalysisTemperature,
			ChatTemperature:     aiDefaults.ChatTemperature,
			ParseAttempts:       aiDefaults.ParseAttempts,
		},
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "release",
			CORSOrigins:     []string{"http://localhost:3000"},
			ShutdownTimeout: 30 * time.Second,
		},
		Ingestion: IngestionConfig{EmbeddingDelay: 350 * time.Millisecond},
		Retrieval: RetrievalConfig{SearchThreshold: 0.7, ChatThreshold: 0.6},
		Telemetry: TelemetryConfig{ServiceName: "deckdex"},
	}
}

// Load reads a config from path. A missing file yields the defaults; keys
// absent from the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Resolve loads .env (when present), the YAML file at path and then the
// environment overrides, and validates the result.
func Resolve(path, envFile string) (*Config, error) {
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no component can accept.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverBadger, DriverSqlite}, c.Storage.Driver) {
		return fmt.Errorf("%w: storage driver must be %q or %q, got %q",
			ErrInvalidConfig, DriverBadger, DriverSqlite, c.Storage.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("%w: server port is required", ErrInvalidConfig)
	}
	if !slices.Contains([]string{"debug", "release", "test"}, c.Server.GinMode) {
		return fmt.Errorf("%w: gin mode must be debug, release or test, got %q", ErrInvalidConfig, c.Server.GinMode)
	}
	if c.Ingestion.EmbeddingDelay < 0 {
		return fmt.Errorf("%w: embedding delay must not be negative", ErrInvalidConfig)
	}
	for name, v := range map[string]float32{
		"search": c.Retrieval.SearchThreshold,
		"chat":   c.Retrieval.ChatThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s threshold must be between 0 and 1", ErrInvalidConfig, name)
		}
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the AI section into the provider configuration.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost(c.AI.EmbeddingHost),
		ai.WithCompletionHost(c.AI.CompletionHost),
		ai.WithEmbeddingModel(c.AI.EmbeddingModel),
		ai.WithCompletionModel(c.AI.CompletionModel),
		ai.WithAPIKey(c.AI.APIKey),
		ai.WithTemperatures(c.AI.AnalysisTemperature, c.AI.ChatTemperature),
		ai.WithParseAttempts(c.AI.ParseAttempts),
	)
	cfg.Normalize()
	return cfg
}
