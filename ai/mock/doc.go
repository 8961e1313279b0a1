// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Completer,
// and ai.AIProvider for use in unit tests. The mocks return deterministic
// results and support custom behavior injection through function fields.
//
// # Usage
//
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//		return mock.AxisVector(0), nil
//	}
//
//	completer := mock.NewMockCompleter(`{"deck_title": "Q3 Review"}`)
//	provider := mock.NewMockProviderWithServices(embedder, completer)
//
// # Default Behavior
//
//   - MockEmbedder: Returns unit-length vectors derived from a hash of the text
//   - MockCompleter: Returns its canned Response
//   - MockProvider: Aggregates mock embedder and completer
package mock
