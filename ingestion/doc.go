// Package ingestion persists analyzed decks.
//
// The Engine offers two entry points with different preconditions:
//
//   - IngestBatch takes a complete Payload whose topics and slides already
//     carry embeddings. The deck is created or replaced, and its topics and
//     slides are replaced, in a single transaction.
//   - CreateDeck, AppendTopics and AppendSlides take analyzed records without
//     embeddings. Each item is embedded as it is appended, with calls spaced
//     by a rate limiter. An item whose embedding fails is stored without one
//     so it can be backfilled later.
//
// Re-ingesting a deck always replaces its topics and slides; nothing is
// merged.
package ingestion
