package embedding

import "errors"

var (
	// ErrEmbedderRequired is returned when no underlying embedder is provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrResultMismatch indicates the provider returned a different number of
	// vectors than texts submitted.
	ErrResultMismatch = errors.New("embedding result count mismatch")
)
