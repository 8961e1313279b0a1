package analysis

import "errors"

var (
	// ErrCompleterRequired is returned when a completer is not provided.
	ErrCompleterRequired = errors.New("completer required")

	// ErrEmptyInput indicates there was no slide text to analyze.
	ErrEmptyInput = errors.New("no slide text to analyze")

	// ErrMalformedContent indicates model output that could not be turned into
	// a record.
	ErrMalformedContent = errors.New("malformed content error")
)
