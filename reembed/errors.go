package reembed

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a batch is allowed no embedding attempts.
	ErrInvalidMaxAttempts = errors.New("embedding attempts must be greater than 0")

	// ErrRepositoryRequired is returned when no repository is supplied.
	ErrRepositoryRequired = errors.New("repository is required")

	// ErrEmbedderRequired is returned when no embedder is supplied.
	ErrEmbedderRequired = errors.New("embedder is required")

	// ErrEmbeddingCountMismatch is returned when the provider answers a batch
	// with a different number of vectors than texts sent.
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)
