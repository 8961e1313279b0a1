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


package core

import "errors"

// ErrValidation is the root of every validation failure. Callers can use
// errors.Is(err, ErrValidation) to separate bad input from provider or
// storage failures.
var ErrValidation = errors.New("validation error")

// Domain validation errors
var (
	// ErrInvalidDeck indicates a Deck failed validation.
	ErrInvalidDeck = errors.New("invalid deck")

	// ErrInvalidTopic indicates a Topic failed validation.
	ErrInvalidTopic = errors.New("invalid topic")

	// ErrInvalidSlide indicates a Slide failed validation.
	ErrInvalidSlide = errors.New("invalid slide")

	// ErrEmptyText indicates text to embed was empty or whitespace only.
	ErrEmptyText = errors.New("text cannot be empty for embedding")

	// ErrInvalidEmbedding indicates a vector without exactly EmbeddingDimensions components.
	ErrInvalidEmbedding = errors.New("invalid embedding dimension")

	// ErrEmptyExternalFileID indicates the idempotency key is missing.
	ErrEmptyExternalFileID = errors.New("external file id cannot be empty")

	// ErrInvalidSlideNumber indicates a slide number below 1.
	ErrInvalidSlideNumber = errors.New("slide number must be a positive integer")

	// ErrDuplicateSlideNumber indicates two slides of one deck share a number.
	ErrDuplicateSlideNumber = errors.New("duplicate slide number")
)
