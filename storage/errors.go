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


package storage

import "errors"

// Errors returned by every DeckRepository implementation. Backends wrap the
// underlying driver error after the sentinel, so errors.Is works on both.
var (
	// ErrNotFound is returned when a deck, topic or slide does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned for a second deck with the same external
	// file id or a second slide with the same number in one deck.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrTransactionFailed is returned when a commit fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStorageClosed is returned by calls made after Close.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrInvalidQuery is returned for a nil or wrong-length query vector.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrSerializationFailed is returned when a stored value cannot be decoded.
	ErrSerializationFailed = errors.New("serialization failed")
)
