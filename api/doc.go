// Package api exposes ingestion, lookup, search, chat and analysis over HTTP
// using gin.
//
// Routes:
//
//	GET  /health
//	POST /api/decks/ingest
//	POST /api/decks/analyze
//	GET  /api/decks/:id
//	GET  /api/decks/by-file/:externalFileId
//	GET  /api/search?q=&limit=
//	POST /api/chat
//
// Errors are reported as {"error": "..."} with a status derived from the
// error chain: validation failures are 400, missing records 404, provider
// failures 502 and everything else 500.
package api
