// Package reembed regenerates the embeddings of stored topics and slides,
// either after switching embedding models or to backfill items that were
// persisted without a vector.
//
// Topics are embedded from their summary and slides from their caption.
// Items with blank text are skipped. Embedding calls are retried with
// exponential backoff and progress is reported as batches complete.
package reembed
