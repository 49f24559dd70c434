package db

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/rundb/RunDB/core"
	"github.com/rundb/RunDB/ps"
)

// CommitMode selects the commit contract for mutating statements.
type CommitMode int

const (
	// CommitEachStatement makes every mutating statement durable as
	// soon as it executes. Commit and Rollback are no-ops.
	CommitEachStatement CommitMode = iota
	// CommitOnRequest accumulates all statements in a single
	// transaction until Commit or Rollback. Queries issued in between
	// see the uncommitted changes; Close discards them.
	CommitOnRequest
)

func (m CommitMode) String() string {
	switch m {
	case CommitOnRequest:
		return "on-request"
	default:
		return "each-statement"
	}
}

// executor is the common surface of ps.Store and *sql.Tx that
// statements run against.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Engine executes SQL statements sequentially against a store. It is
// not safe for concurrent use; run one statement at a time.
type Engine struct {
	store *ps.Store
	mode  CommitMode

	mu sync.Mutex
	tx *sql.Tx
}

func NewEngine(store *ps.Store, mode CommitMode) *Engine {
	return &Engine{store: store, mode: mode}
}

// Store returns the store the engine runs against.
func (engine *Engine) Store() *ps.Store {
	return engine.store
}

// Mode returns the engine's commit mode.
func (engine *Engine) Mode() CommitMode {
	return engine.mode
}

// Execute runs a single SQL statement with the given placeholder
// values and returns its result.
func (engine *Engine) Execute(query string, args ...any) (Result, error) {
	return engine.ExecuteContext(context.Background(), query, args...)
}

func (engine *Engine) ExecuteContext(ctx context.Context, query string, args ...any) (Result, error) {
	return engine.ExecuteStatement(ctx, core.NewStatement(query, args...))
}

// ExecuteStatement runs one statement. Row-returning statements come
// back as a QueryResult, everything else as a CommitResult.
func (engine *Engine) ExecuteStatement(ctx context.Context, stmt core.Statement) (Result, error) {
	switch stmt.Kind() {
	case core.KindQuery:
		result, err := engine.executeQuery(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return result, nil
	default:
		result, err := engine.executeExec(ctx, stmt)
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

// Run executes the script's statements strictly in order, stopping at
// the first failure. The results of the statements that ran are
// returned alongside the error.
func (engine *Engine) Run(ctx context.Context, script *core.Script) ([]Result, error) {
	results := make([]Result, 0, script.Len())
	for i, stmt := range script.Statements {
		result, err := engine.ExecuteStatement(ctx, stmt)
		if err != nil {
			return results, fmt.Errorf("statement %d: %w", i+1, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// Query runs a row-returning statement and hands the rows directly to
// the caller: a forward-only cursor that must be closed and cannot be
// replayed once drained.
func (engine *Engine) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	exec, err := engine.executor(ctx)
	if err != nil {
		return nil, err
	}
	return exec.QueryContext(ctx, query, args...)
}

// Exec runs a statement without buffering a result set.
func (engine *Engine) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	exec, err := engine.executor(ctx)
	if err != nil {
		return nil, err
	}
	return exec.ExecContext(ctx, query, args...)
}

// Scan streams a query's rows one at a time in engine order, cells
// rendered the way QueryResult renders them. The sequence is read-once
// and releases the cursor when the loop ends.
func (engine *Engine) Scan(ctx context.Context, query string, args ...any) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		rows, err := engine.Query(ctx, query, args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		columns, err := rows.Columns()
		if err != nil {
			yield(nil, err)
			return
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, err)
				return
			}
			row := make([]string, len(columns))
			for i, v := range values {
				row[i] = formatValue(v)
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// Tables lists the user tables the engine can see, including ones
// created in a pending transaction.
func (engine *Engine) Tables(ctx context.Context) ([]string, error) {
	exec, err := engine.executor(ctx)
	if err != nil {
		return nil, err
	}
	return ps.ListTables(ctx, exec, engine.store.Driver())
}

// Columns describes the named table as the engine sees it, including
// schema changes from a pending transaction.
func (engine *Engine) Columns(ctx context.Context, table string) ([]core.Column, error) {
	exec, err := engine.executor(ctx)
	if err != nil {
		return nil, err
	}
	return ps.DescribeTable(ctx, exec, engine.store.Driver(), table)
}

// Commit durably persists everything executed since the last commit.
// With nothing pending it is a no-op.
func (engine *Engine) Commit() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.tx == nil {
		return nil
	}
	err := engine.tx.Commit()
	engine.tx = nil
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards everything executed since the last commit. With
// nothing pending it is a no-op.
func (engine *Engine) Rollback() error {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.tx == nil {
		return nil
	}
	err := engine.tx.Rollback()
	engine.tx = nil
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Pending reports whether uncommitted changes are accumulating.
func (engine *Engine) Pending() bool {
	engine.mu.Lock()
	defer engine.mu.Unlock()
	return engine.tx != nil
}

// Close rolls back any pending transaction and closes the store.
// Operations after Close fail with ps.ErrClosed.
func (engine *Engine) Close() error {
	engine.mu.Lock()
	if engine.tx != nil {
		engine.tx.Rollback()
		engine.tx = nil
	}
	engine.mu.Unlock()

	return engine.store.Close()
}

// executor returns what the next statement runs against: the store
// directly, or in CommitOnRequest mode the open transaction, started
// lazily.
func (engine *Engine) executor(ctx context.Context) (executor, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	if engine.mode != CommitOnRequest {
		return engine.store, nil
	}
	if engine.tx == nil {
		tx, err := engine.store.BeginTx(ctx)
		if err != nil {
			return nil, err
		}
		engine.tx = tx
	}
	return engine.tx, nil
}

func (engine *Engine) executeQuery(ctx context.Context, stmt core.Statement) (QueryResult, error) {
	startTime := time.Now()

	rows, err := engine.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return QueryResult{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, err
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	var data [][]string
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return QueryResult{}, err
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Columns:          columns,
		Data:             data,
		RecordsRead:      len(data),
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeExec(ctx context.Context, stmt core.Statement) (CommitResult, error) {
	startTime := time.Now()

	res, err := engine.Exec(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return CommitResult{}, err
	}

	result := CommitResult{
		Committed:        engine.mode == CommitEachStatement,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}
	// Best effort: DDL carries no row count and DuckDB assigns no
	// insert id.
	if n, err := res.RowsAffected(); err == nil {
		result.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		result.LastInsertID = id
	}
	return result, nil
}

// formatValue renders a scanned column value for display. NULL becomes
// the empty string.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
