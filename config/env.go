package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables recognized by applyEnv.
const (
	EnvStorageDriver    = "DECKDEX_STORAGE_DRIVER"
	EnvStoragePath      = "DECKDEX_STORAGE_PATH"
	EnvEmbeddingHost    = "DECKDEX_EMBEDDING_HOST"
	EnvCompletionHost   = "DECKDEX_COMPLETION_HOST"
	EnvEmbeddingModel   = "DECKDEX_EMBEDDING_MODEL"
	EnvCompletionModel  = "DECKDEX_COMPLETION_MODEL"
	EnvAPIKey           = "OPENAI_API_KEY"
	EnvPort             = "PORT"
	EnvGinMode          = "GIN_MODE"
	EnvCORSOrigins      = "CORS_ORIGINS"
	EnvEmbeddingDelayMS = "DECKDEX_EMBEDDING_DELAY_MS"
	EnvOTLPEndpoint     = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvServiceName      = "OTEL_SERVICE_NAME"
)

// loadDotEnv loads envFile if it exists. Variables already set in the
// process environment win over the file.
func loadDotEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("error loading %s: %w", envFile, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Storage.Driver = getEnv(EnvStorageDriver, cfg.Storage.Driver)
	cfg.Storage.Path = getEnv(EnvStoragePath, cfg.Storage.Path)

	cfg.AI.EmbeddingHost = getEnv(EnvEmbeddingHost, cfg.AI.EmbeddingHost)
	cfg.AI.CompletionHost = getEnv(EnvCompletionHost, cfg.AI.CompletionHost)
	cfg.AI.EmbeddingModel = getEnv(EnvEmbeddingModel, cfg.AI.EmbeddingModel)
	cfg.AI.CompletionModel = getEnv(EnvCompletionModel, cfg.AI.CompletionModel)
	cfg.AI.APIKey = getEnv(EnvAPIKey, cfg.AI.APIKey)

	cfg.Server.Port = getEnv(EnvPort, cfg.Server.Port)
	cfg.Server.GinMode = getEnv(EnvGinMode, cfg.Server.GinMode)
	if origins := getEnv(EnvCORSOrigins, ""); origins != "" {
		cfg.Server.CORSOrigins = splitList(origins)
	}

	delayMS := getEnvInt(EnvEmbeddingDelayMS, int(cfg.Ingestion.EmbeddingDelay/time.Millisecond))
	cfg.Ingestion.EmbeddingDelay = time.Duration(delayMS) * time.Millisecond

	cfg.Telemetry.Endpoint = getEnv(EnvOTLPEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.ServiceName = getEnv(EnvServiceName, cfg.Telemetry.ServiceName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
