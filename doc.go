// Package RunDB executes SQL scripts against an embedded relational store.
//
// RunDB drives SQLite or DuckDB through a single connection, running
// statements strictly in order with positional placeholders, and gives the
// caller an explicit choice of when changes become durable: after every
// statement, or held in one transaction until Commit is called.
//
// # Quick Start
//
// Create an in-memory database:
//
//	instance, _ := RunDB.OpenMemory(nil)
//	defer instance.Close()
//
//	engine := instance.Engine(db.CommitEachStatement)
//	engine.Execute("CREATE TABLE employees (id INTEGER PRIMARY KEY, name TEXT, department TEXT)")
//	engine.Execute("INSERT INTO employees (name, department) VALUES (?, ?)", "Alice", "Engineering")
//
//	result, _ := engine.Execute("SELECT * FROM employees")
//	result.Display()
//
// # Commit Modes
//
// CommitEachStatement leaves the connection in autocommit: every mutation
// is durable as soon as it returns. CommitOnRequest collects all work in a
// single transaction that stays open until Commit or Rollback; the
// engine's own queries observe the pending state.
//
// # Engines
//
// SQLite is the default. DuckDB is selected when the store is opened:
//
//	instance, _ := RunDB.Open("analytics.db", &ps.Options{Driver: ps.DriverDuckDB})
//
// # Packages
//
//   - core: statements, scripts, and the schema and filter model
//   - ps: the store, a single hardened connection to an embedded engine
//   - db: the statement engine and its commit modes
//   - op: typed table operations without hand-written SQL
//   - script: loading .sql scripts from directories and git repositories
//   - backup: database snapshots to local files or S3, and restore
package RunDB
