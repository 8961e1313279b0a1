// Package embedding turns topic summaries, slide captions and search queries
// into fixed-length vectors.
//
// Generator decorates any ai.Embedder with the input and output rules every
// stored vector must satisfy: blank text is rejected before the provider is
// called, long text is truncated to MaxInputRunes, and every returned vector
// must have exactly core.EmbeddingDimensions components.
package embedding
