package ps

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rundb/RunDB/core"
)

// Querier is the minimal query surface the introspection helpers run
// against. Both Store and sql.Tx satisfy it, so callers holding an open
// transaction can introspect schema the transaction created.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Tables returns the names of all user tables, sorted.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	return ListTables(ctx, s, s.driver)
}

// ListTables returns the names of all user tables visible to q, sorted.
func ListTables(ctx context.Context, q Querier, driver string) ([]string, error) {
	var query string
	switch driver {
	case DriverDuckDB:
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'main' AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	default:
		query = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	}

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableExists reports whether the named user table exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	if err := s.ensureOpen(); err != nil {
		return false, err
	}

	var query string
	switch s.driver {
	case DriverDuckDB:
		query = `SELECT count(*) FROM information_schema.tables
			WHERE table_schema = 'main' AND table_name = ?`
	default:
		query = `SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// Columns returns the column definitions of the named table in
// definition order.
func (s *Store) Columns(ctx context.Context, table string) ([]core.Column, error) {
	return DescribeTable(ctx, s, s.driver, table)
}

// DescribeTable returns the column definitions of the named table in
// definition order. Types are mapped back from the engine's declared
// types, so a round trip through the engine can widen them.
func DescribeTable(ctx context.Context, q Querier, driver string, table string) ([]core.Column, error) {
	// pragma_table_info is understood by both engines. Its argument
	// must be a literal, so the table name is escaped, not bound.
	query := fmt.Sprintf(
		`SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(%s) ORDER BY cid`,
		quoteString(table))

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("describe table %s: %w", table, err)
	}
	defer rows.Close()

	var columns []core.Column
	for rows.Next() {
		var (
			name, declared string
			notNull, pk    any
			dflt           any
		)
		if err := rows.Scan(&name, &declared, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}

		col := core.Column{
			Name:       name,
			Type:       declaredType(declared),
			PrimaryKey: truthy(pk),
			NotNull:    truthy(notNull),
		}
		if col.PrimaryKey {
			// SQLite auto-assigns any INTEGER PRIMARY KEY (rowid
			// alias); DuckDB only when a sequence default is attached.
			switch driver {
			case DriverDuckDB:
				col.AutoAssign = defaultIsSequence(dflt)
			default:
				col.AutoAssign = col.Type == core.IntType
			}
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s does not exist", table)
	}
	return columns, nil
}

// ColumnNames returns the column names of the named table in
// definition order.
func (s *Store) ColumnNames(ctx context.Context, table string) ([]string, error) {
	columns, err := s.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names, nil
}

// declaredType maps an engine's declared column type to the closest
// core type, following SQLite's affinity rules.
func declaredType(declared string) core.ColumnType {
	d := strings.ToUpper(declared)
	switch {
	case strings.Contains(d, "INT"):
		return core.IntType
	case strings.Contains(d, "BOOL"):
		return core.BoolType
	case strings.Contains(d, "CHAR"):
		return core.StringType
	case strings.Contains(d, "TEXT") || strings.Contains(d, "CLOB"):
		return core.TextType
	case strings.Contains(d, "REAL") || strings.Contains(d, "FLOA") ||
		strings.Contains(d, "DOUB") || strings.Contains(d, "DECIMAL"):
		return core.FloatType
	case strings.Contains(d, "DATE") || strings.Contains(d, "TIME"):
		return core.TimestampType
	case strings.Contains(d, "BLOB"):
		return core.BlobType
	default:
		return core.TextType
	}
}

// truthy coerces the driver-dependent pragma flags (integers from
// SQLite, booleans from DuckDB) to bool.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case int32:
		return x != 0
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0" && !strings.EqualFold(x, "false")
	case []byte:
		return truthy(string(x))
	default:
		return false
	}
}

func defaultIsSequence(dflt any) bool {
	s, ok := dflt.(string)
	if !ok {
		if b, isBytes := dflt.([]byte); isBytes {
			s = string(b)
		} else {
			return false
		}
	}
	return strings.Contains(strings.ToLower(s), "nextval")
}

// quoteString renders a value as a single-quoted SQL string literal.
func quoteString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}
