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


// Package search provides hybrid lexical and semantic search over decks.
//
// The Searcher runs two passes for every query:
//   - Lexical: case-insensitive substring matching on deck titles and
//     summaries, topic titles and summaries, and slide captions. Each kind of
//     hit carries a fixed score.
//   - Semantic: vector similarity between the query embedding and topic and
//     slide embeddings, scored by cosine similarity.
//
// Hits for the same entity are merged keeping the higher score, then sorted
// and truncated. If the query cannot be embedded the search degrades to the
// lexical pass instead of failing.
package search
