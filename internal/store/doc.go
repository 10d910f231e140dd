// Package store provides the SQLite-backed durable event queue.
//
// Every classified interaction is appended here before any upload is
// attempted, and is removed only after the batch containing it has been
// confirmed by the ingest service. Rows survive process death.
//
// # Ordering
//
// Reads are ordered by (timestamp ASC, id ASC). Timestamps are stamped by a
// monotonic clock and ids are AUTOINCREMENT (never reused), so this is the
// insertion order.
//
// # Deletion
//
// Rows are only ever deleted by explicit id set. A flush deletes exactly the
// ids it uploaded; rows appended after its snapshot are untouched. Deleting an
// id that is already gone is a no-op.
//
// # Schema evolution
//
// Migrations are additive only and tracked with PRAGMA user_version:
//
//	v1  events(id, timestamp, eventType, x, y, screenName, userId)
//	v2  + endX REAL, endY REAL, intensity REAL NOT NULL DEFAULT 1.0
//	v3  + indexes on (timestamp, id) and (screenName)
//
// # Database Configuration
//
//   - WAL mode: reads never block the writer
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single connection: the engine goroutine is the only writer
package store
