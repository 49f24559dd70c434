package op

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/rundb/RunDB/core"
	"github.com/rundb/RunDB/db"
	"github.com/rundb/RunDB/ps"
)

// Row is one table row keyed by column name.
type Row map[string]any

// TableOp runs typed operations against a single table. Every
// generated statement executes through the bound engine and follows
// its commit mode.
type TableOp struct {
	Table  core.Table
	Engine *db.Engine
}

// CreateOptions adjust CreateTable behavior.
type CreateOptions struct {
	// IfNotExists makes CreateTable succeed without change when the
	// table already exists.
	IfNotExists bool
}

// CreateTable creates the table and returns an operator bound to it.
// An integer primary key marked AutoAssign is backed by the engine's
// native mechanism: the rowid on SQLite, a sequence default on DuckDB.
func CreateTable(ctx context.Context, engine *db.Engine, table core.Table, opts *CreateOptions) (*TableOp, error) {
	if table.Name == "" {
		return nil, errors.New("table name is required")
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no columns", table.Name)
	}
	if opts == nil {
		opts = &CreateOptions{}
	}

	for _, ddl := range createStatements(engine.Store().Driver(), table, opts.IfNotExists) {
		if _, err := engine.Exec(ctx, ddl); err != nil {
			return nil, fmt.Errorf("create table %s: %w", table.Name, err)
		}
	}

	return &TableOp{Table: table, Engine: engine}, nil
}

// GetTable loads an existing table's definition from the engine and
// returns an operator bound to it.
func GetTable(ctx context.Context, engine *db.Engine, name string) (*TableOp, error) {
	columns, err := engine.Columns(ctx, name)
	if err != nil {
		return nil, err
	}
	return &TableOp{
		Table:  core.Table{Name: name, Columns: columns},
		Engine: engine,
	}, nil
}

// Insert adds one row. If the table has a primary key the stored value
// is read back with a RETURNING clause, so the returned row carries
// the key even when the engine assigned it.
func (op *TableOp) Insert(ctx context.Context, row Row) (Row, error) {
	columns, args := op.rowColumns(row)
	if len(columns) == 0 {
		return nil, errors.New("insert requires at least one column value")
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteIdent(op.Table.Name))
	b.WriteString(" (")
	for i, name := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(name))
	}
	b.WriteString(") VALUES (")
	for i := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
	}
	b.WriteString(")")

	stored := maps.Clone(row)
	pk, hasPK := op.Table.PrimaryKey()
	if !hasPK {
		if _, err := op.Engine.Exec(ctx, b.String(), args...); err != nil {
			return nil, fmt.Errorf("insert into %s: %w", op.Table.Name, err)
		}
		return stored, nil
	}

	b.WriteString(" RETURNING ")
	b.WriteString(quoteIdent(pk.Name))

	rows, err := op.Engine.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", op.Table.Name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("insert into %s: no row returned", op.Table.Name)
	}
	var key any
	if err := rows.Scan(&key); err != nil {
		return nil, err
	}
	stored[pk.Name] = convertValue(pk.Type, key)
	return stored, nil
}

// Get returns the row with the given primary key value.
func (op *TableOp) Get(ctx context.Context, key any) (Row, bool, error) {
	pk, ok := op.Table.PrimaryKey()
	if !ok {
		return nil, false, fmt.Errorf("table %s has no primary key", op.Table.Name)
	}
	rows, err := op.Select(ctx, core.Match(pk.Name, key))
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Select returns the rows matching the filter, all rows when filter is
// nil. Values are converted to each column's Go type; row order is
// whatever the engine returns.
func (op *TableOp) Select(ctx context.Context, filter *core.Filter) ([]Row, error) {
	var out []Row
	for row, err := range op.scan(ctx, filter) {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Scan streams every row without buffering the full result.
func (op *TableOp) Scan(ctx context.Context) iter.Seq2[Row, error] {
	return op.scan(ctx, nil)
}

// ScanWithFilter streams the rows matching the filter.
func (op *TableOp) ScanWithFilter(ctx context.Context, filter *core.Filter) iter.Seq2[Row, error] {
	return op.scan(ctx, filter)
}

func (op *TableOp) scan(ctx context.Context, filter *core.Filter) iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		query, args := op.selectSQL(filter)
		rows, err := op.Engine.Query(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("select from %s: %w", op.Table.Name, err))
			return
		}
		defer rows.Close()

		names, err := rows.Columns()
		if err != nil {
			yield(nil, err)
			return
		}
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}

		for rows.Next() {
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, err)
				return
			}
			row := make(Row, len(names))
			for i, name := range names {
				if col, ok := op.Table.Column(name); ok {
					row[name] = convertValue(col.Type, values[i])
				} else {
					row[name] = values[i]
				}
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

// Update sets the given values on the rows matching the filter and
// returns how many rows changed. A filter is required; table-wide
// updates go through the engine directly.
func (op *TableOp) Update(ctx context.Context, filter *core.Filter, values Row) (int64, error) {
	if filter == nil {
		return 0, errors.New("update requires a filter")
	}
	columns, args := op.rowColumns(values)
	if len(columns) == 0 {
		return 0, errors.New("update requires at least one column value")
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(quoteIdent(op.Table.Name))
	b.WriteString(" SET ")
	for i, name := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(name))
		b.WriteString(" = ?")
	}
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(filter.Column))
	b.WriteString(" = ?")
	args = append(args, filter.Value)

	res, err := op.Engine.Exec(ctx, b.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", op.Table.Name, err)
	}
	return res.RowsAffected()
}

// Delete removes the rows matching the filter and returns how many
// were removed. A filter is required; DropTable removes everything.
func (op *TableOp) Delete(ctx context.Context, filter *core.Filter) (int64, error) {
	if filter == nil {
		return 0, errors.New("delete requires a filter")
	}
	query := "DELETE FROM " + quoteIdent(op.Table.Name) +
		" WHERE " + quoteIdent(filter.Column) + " = ?"

	res, err := op.Engine.Exec(ctx, query, filter.Value)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", op.Table.Name, err)
	}
	return res.RowsAffected()
}

// Count returns the number of rows in the table.
func (op *TableOp) Count(ctx context.Context) (int, error) {
	rows, err := op.Engine.Query(ctx, "SELECT count(*) FROM "+quoteIdent(op.Table.Name))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", op.Table.Name, err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

// AddColumn adds a column to the table. Neither engine accepts a new
// primary key through ALTER TABLE.
func (op *TableOp) AddColumn(ctx context.Context, col core.Column) error {
	if col.PrimaryKey {
		return errors.New("cannot add a primary key column")
	}
	ddl := "ALTER TABLE " + quoteIdent(op.Table.Name) +
		" ADD COLUMN " + columnDDL(op.Engine.Store().Driver(), op.Table, col)

	if _, err := op.Engine.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("add column %s.%s: %w", op.Table.Name, col.Name, err)
	}
	op.Table.Columns = append(op.Table.Columns, col)
	return nil
}

// RenameColumn renames a column.
func (op *TableOp) RenameColumn(ctx context.Context, from, to string) error {
	ddl := "ALTER TABLE " + quoteIdent(op.Table.Name) +
		" RENAME COLUMN " + quoteIdent(from) + " TO " + quoteIdent(to)

	if _, err := op.Engine.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("rename column %s.%s: %w", op.Table.Name, from, err)
	}
	for i := range op.Table.Columns {
		if op.Table.Columns[i].Name == from {
			op.Table.Columns[i].Name = to
			break
		}
	}
	return nil
}

// DropColumn removes a column. The primary key cannot be dropped.
func (op *TableOp) DropColumn(ctx context.Context, name string) error {
	if col, ok := op.Table.Column(name); ok && col.PrimaryKey {
		return errors.New("cannot drop primary key column")
	}
	ddl := "ALTER TABLE " + quoteIdent(op.Table.Name) +
		" DROP COLUMN " + quoteIdent(name)

	if _, err := op.Engine.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("drop column %s.%s: %w", op.Table.Name, name, err)
	}
	op.Table.Columns = slices.DeleteFunc(op.Table.Columns, func(c core.Column) bool {
		return c.Name == name
	})
	return nil
}

// CreateIndex creates an index on a column, named <table>_<column>_idx.
func (op *TableOp) CreateIndex(ctx context.Context, column string, unique bool) error {
	ddl := "CREATE "
	if unique {
		ddl += "UNIQUE "
	}
	ddl += "INDEX IF NOT EXISTS " + quoteIdent(indexName(op.Table.Name, column)) +
		" ON " + quoteIdent(op.Table.Name) + " (" + quoteIdent(column) + ")"

	if _, err := op.Engine.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create index on %s.%s: %w", op.Table.Name, column, err)
	}
	return nil
}

// DropIndex removes the index CreateIndex made for the column.
func (op *TableOp) DropIndex(ctx context.Context, column string) error {
	ddl := "DROP INDEX IF EXISTS " + quoteIdent(indexName(op.Table.Name, column))
	if _, err := op.Engine.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("drop index on %s.%s: %w", op.Table.Name, column, err)
	}
	return nil
}

// DropTable removes the table, and on DuckDB the sequence backing an
// engine-assigned key.
func (op *TableOp) DropTable(ctx context.Context) error {
	if _, err := op.Engine.Exec(ctx, "DROP TABLE "+quoteIdent(op.Table.Name)); err != nil {
		return fmt.Errorf("drop table %s: %w", op.Table.Name, err)
	}

	if op.Engine.Store().Driver() == ps.DriverDuckDB {
		if pk, ok := op.Table.PrimaryKey(); ok && pk.AutoAssign {
			seq := quoteIdent(sequenceName(op.Table.Name, pk.Name))
			if _, err := op.Engine.Exec(ctx, "DROP SEQUENCE IF EXISTS "+seq); err != nil {
				return fmt.Errorf("drop table %s: %w", op.Table.Name, err)
			}
		}
	}
	return nil
}

// rowColumns resolves a row's keys to a deterministic column order:
// schema columns first, in definition order, then unknown keys sorted
// by name. Unknown keys are passed through and fail with the engine's
// own error.
func (op *TableOp) rowColumns(row Row) (columns []string, args []any) {
	seen := make(map[string]bool, len(row))
	for _, col := range op.Table.Columns {
		if v, ok := row[col.Name]; ok {
			columns = append(columns, col.Name)
			args = append(args, v)
			seen[col.Name] = true
		}
	}

	var extras []string
	for name := range row {
		if !seen[name] {
			extras = append(extras, name)
		}
	}
	slices.Sort(extras)
	for _, name := range extras {
		columns = append(columns, name)
		args = append(args, row[name])
	}
	return columns, args
}

func (op *TableOp) selectSQL(filter *core.Filter) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, col := range op.Table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(col.Name))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(op.Table.Name))

	if filter == nil {
		return b.String(), nil
	}
	b.WriteString(" WHERE ")
	b.WriteString(quoteIdent(filter.Column))
	b.WriteString(" = ?")
	return b.String(), []any{filter.Value}
}

// createStatements renders the DDL for a table. On DuckDB an
// AutoAssign key needs its sequence created first.
func createStatements(driver string, table core.Table, ifNotExists bool) []string {
	var stmts []string
	if driver == ps.DriverDuckDB {
		if pk, ok := table.PrimaryKey(); ok && pk.AutoAssign {
			stmts = append(stmts,
				"CREATE SEQUENCE IF NOT EXISTS "+quoteIdent(sequenceName(table.Name, pk.Name)))
		}
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	if ifNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(quoteIdent(table.Name))
	b.WriteString(" (")
	for i, col := range table.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(columnDDL(driver, table, col))
	}
	b.WriteString(")")
	return append(stmts, b.String())
}

func columnDDL(driver string, table core.Table, col core.Column) string {
	var b strings.Builder
	b.WriteString(quoteIdent(col.Name))
	b.WriteByte(' ')
	b.WriteString(sqlType(col.Type))
	if col.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if col.AutoAssign && driver == ps.DriverDuckDB {
			b.WriteString(" DEFAULT nextval(")
			b.WriteString(quoteLiteral(quoteIdent(sequenceName(table.Name, col.Name))))
			b.WriteString(")")
		}
	} else if col.NotNull {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func sqlType(t core.ColumnType) string {
	switch t {
	case core.IntType:
		return "INTEGER"
	case core.FloatType:
		return "DOUBLE"
	case core.BoolType:
		return "BOOLEAN"
	case core.TextType:
		return "TEXT"
	case core.TimestampType:
		return "TIMESTAMP"
	case core.BlobType:
		return "BLOB"
	default:
		return "VARCHAR"
	}
}

func sequenceName(table, column string) string {
	return table + "_" + column + "_seq"
}

func indexName(table, column string) string {
	return table + "_" + column + "_idx"
}

// convertValue coerces a scanned value to the column type's Go
// representation. The drivers disagree on integer width and boolean
// encoding; values that do not coerce pass through unchanged.
func convertValue(t core.ColumnType, v any) any {
	if v == nil {
		return nil
	}
	switch t {
	case core.IntType:
		switch x := v.(type) {
		case int64:
			return x
		case int32:
			return int64(x)
		case int:
			return int64(x)
		case uint32:
			return int64(x)
		case uint64:
			return int64(x)
		case float64:
			return int64(x)
		case []byte:
			if n, err := strconv.ParseInt(string(x), 10, 64); err == nil {
				return n
			}
		}
	case core.FloatType:
		switch x := v.(type) {
		case float64:
			return x
		case float32:
			return float64(x)
		case int64:
			return float64(x)
		case int32:
			return float64(x)
		}
	case core.BoolType:
		switch x := v.(type) {
		case bool:
			return x
		case int64:
			return x != 0
		case int32:
			return x != 0
		}
	case core.StringType, core.TextType:
		switch x := v.(type) {
		case string:
			return x
		case []byte:
			return string(x)
		}
	}
	return v
}

// quoteIdent quotes an identifier for use in generated SQL.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteLiteral renders a value as a single-quoted SQL string literal.
func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
