// Package db provides the statement execution engine for RunDB.
//
// The Engine type is the main entry point. It runs SQL statements
// sequentially against a ps.Store, binding positional placeholder
// values, and returns results. Parsing, planning and row storage are
// the embedded engine's job; this package only routes statements and
// enforces the commit contract.
//
// # Engine Usage
//
//	engine := db.NewEngine(store, db.CommitEachStatement)
//	result, err := engine.Execute(
//	    "INSERT INTO employees (name, age) VALUES (?, ?)", "Alice", 30)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result.Display()
//
// # Commit Modes
//
// CommitEachStatement makes every mutating statement durable as soon
// as it executes. CommitOnRequest holds all changes in one open
// transaction until Commit is called; Rollback or Close discards them:
//
//	engine := db.NewEngine(store, db.CommitOnRequest)
//	engine.Execute("INSERT INTO employees (name) VALUES (?)", "Bob")
//	engine.Commit()
//
// # Batches
//
// A Batch applies several statements atomically:
//
//	batch := engine.NewBatch()
//	batch.Add("INSERT INTO employees (name) VALUES (?)", "Carol")
//	batch.Add("DELETE FROM employees WHERE name = ?", "Bob")
//	err := batch.Commit(ctx)
//
// # Result Types
//
// There are two result types:
//   - QueryResult: returned by row-returning statements
//   - CommitResult: returned by INSERT, UPDATE, DELETE, CREATE, DROP
//
// QueryResult buffers the full result set as display strings. For
// streaming access use Engine.Query, which hands over the raw cursor.
package db
