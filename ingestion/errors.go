package ingestion

import (
	"errors"
	"fmt"
)

var (
	// ErrRepositoryRequired is returned when a deck repository is not provided.
	ErrRepositoryRequired = errors.New("deck repository required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrNilPayload is returned when IngestBatch receives no payload.
	ErrNilPayload = errors.New("payload required")

	// ErrMissingEmbedding indicates a batch item without an embedding.
	ErrMissingEmbedding = errors.New("embedding required for batch ingestion")
)

// Stage names the persistence step that failed.
type Stage string

const (
	StageLookupDeck     Stage = "lookup_deck"
	StageDeleteChildren Stage = "delete_children"
	StageUpdateDeck     Stage = "update_deck"
	StageInsertDeck     Stage = "insert_deck"
	StageInsertTopics   Stage = "insert_topics"
	StageInsertSlides   Stage = "insert_slides"
)

// StageError reports a persistence failure and the step it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingestion failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}
