// Package ps provides the storage layer for RunDB.
//
// A Store wraps a single-connection database/sql handle to an embedded
// engine. SQLite (via mattn/go-sqlite3) is the default; DuckDB (via
// duckdb-go) is selected through Options. SQLite connections are opened
// with WAL journaling, a busy timeout, and enforced foreign keys.
//
// # Memory Store
//
// For testing or ephemeral databases:
//
//	store, err := ps.OpenMemory(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # File Store
//
// For persistent storage, the file and its parent directories are
// created on first open:
//
//	store, err := ps.Open("/path/to/data.db", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// # Engine Selection
//
//	store, err := ps.Open("analytics.db", &ps.Options{Driver: ps.DriverDuckDB})
//
// # Introspection
//
// The store exposes the engine's catalog:
//
//	tables, _ := store.Tables(ctx)
//	columns, _ := store.Columns(ctx, "employees")
//
// Once a store is closed every operation on it fails with ErrClosed.
package ps
