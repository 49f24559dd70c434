package db

import (
	"context"
	"fmt"

	"github.com/rundb/RunDB/core"
)

// Batch collects statements and applies them in one transaction: all
// of them commit together or none of them do.
type Batch struct {
	engine  *Engine
	stmts   []core.Statement
	started bool
}

// NewBatch creates a batch builder on the engine.
func (engine *Engine) NewBatch() *Batch {
	return &Batch{
		engine:  engine,
		stmts:   make([]core.Statement, 0),
		started: true,
	}
}

// Add appends a statement with its placeholder values to the batch.
func (b *Batch) Add(query string, args ...any) error {
	if !b.started {
		return fmt.Errorf("batch already finished")
	}
	b.stmts = append(b.stmts, core.NewStatement(query, args...))
	return nil
}

// AddStatement appends a prepared statement value to the batch.
func (b *Batch) AddStatement(stmt core.Statement) error {
	if !b.started {
		return fmt.Errorf("batch already finished")
	}
	b.stmts = append(b.stmts, stmt)
	return nil
}

// Len returns the number of pending statements.
func (b *Batch) Len() int {
	return len(b.stmts)
}

// Commit runs every batched statement inside a single transaction and
// commits it. On the first failing statement the transaction is rolled
// back and nothing is kept.
func (b *Batch) Commit(ctx context.Context) error {
	if !b.started {
		return fmt.Errorf("batch already finished")
	}
	if len(b.stmts) == 0 {
		return fmt.Errorf("no statements to commit")
	}
	if b.engine.Pending() {
		return fmt.Errorf("engine has uncommitted changes, commit or roll back first")
	}

	tx, err := b.engine.store.BeginTx(ctx)
	if err != nil {
		return err
	}

	for i, stmt := range b.stmts {
		if _, err := tx.ExecContext(ctx, stmt.SQL, stmt.Args...); err != nil {
			tx.Rollback()
			return fmt.Errorf("statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}

	b.started = false
	b.stmts = nil
	return nil
}

// Rollback discards all batched statements without running them.
func (b *Batch) Rollback() {
	b.started = false
	b.stmts = nil
}
