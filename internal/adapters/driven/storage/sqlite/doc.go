// Package sqlite provides a SQLite-based implementation of the embedding
// index and the entity store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Both stores share one database
// connection:
//
//   - EmbeddingIndex: one vector per document id, ranked by cosine similarity
//   - EntityStore: projects, tasks and visual assets imported for local use
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.canvasrag/data/canvasrag.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
