// Package server provides a reference clipboard store that clipsync
// instances can share.
//
// The store holds a single text value. Whoever writes last wins; there is no
// history and no merge.
//
// # Endpoints
//
//   - GET /api/clipboard - returns {"text": value}
//   - POST /api/clipboard - replaces the value with the "text" field of the
//     JSON body and returns {"status": "ok"}
//   - GET /healthz - liveness check
//
// Writes are rate limited per client IP with a sliding window. Rejected
// writes get 429 and a Retry-After header.
//
// # Storage
//
// The value lives behind ValueStore. MemoryStore keeps it for the life of
// the process; store.SQLiteStore persists it across restarts.
package server
