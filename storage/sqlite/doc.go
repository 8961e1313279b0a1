// Package sqlite implements storage.DeckRepository on SQLite through the
// pure-Go modernc.org/sqlite driver.
//
// The schema is embedded and applied on open. Topics and slides reference
// their deck with ON DELETE CASCADE, and embeddings are stored as
// little-endian float32 BLOBs. Vector lookups run inside SQLite through the
// vec_cosine scalar function registered with the driver.
package sqlite
