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


// Package storage provides the storage abstraction layer for deckdex.
//
// This package defines repository interfaces that decouple storage implementation
// from ingestion, search and chat. Two backends implement them: badger (an
// embedded key-value store, records encoded with MUS) and sqlite (a relational
// schema with foreign keys and cascading deletes).
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface, never the concrete backend:
//
//	repo, err := badger.NewRepository(path)  // returns storage.DeckRepository
//
// Internal constructors (newDeckRepository, newBackend, etc.) may return
// concrete types since they're only used within the implementation package.
//
// # Architecture
//
//   - Repository: transactions and lifecycle
//   - DeckRepository: decks, topics and slides
//   - VectorSearcher: brute-force cosine similarity over stored embeddings
//   - TextSearcher: case-insensitive substring matching
//
// # Transactions
//
// WithTransaction places the transaction in the context it hands to fn.
// Repository calls made with that context join the transaction, so a deck
// reset (delete children, update deck, insert topics and slides) commits or
// rolls back as a unit.
//
// # Usage
//
//	repo, err := badger.NewMemoryRepository()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
