package ai

import "errors"

var (
	// ErrEmbeddingProvider wraps failures reported by the embedding service.
	ErrEmbeddingProvider = errors.New("embedding provider error")

	// ErrCompletionProvider wraps failures reported by the completion service.
	ErrCompletionProvider = errors.New("completion provider error")

	// ErrNoChoices indicates the model answered without any choices.
	ErrNoChoices = errors.New("model returned no choices")

	// ErrCircuitOpen indicates calls are being rejected while a provider recovers.
	ErrCircuitOpen = errors.New("provider circuit breaker is open")
)
