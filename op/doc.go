// Package op provides typed table operations on top of the SQL engine.
//
// A TableOp binds a table definition to an engine and turns rows,
// filters and schema changes into SQL, so callers work with Go values
// instead of statement strings. Generated statements execute through
// the engine and follow its commit mode: with CommitOnRequest they
// stay pending until the engine commits.
//
// # Creating and Loading Tables
//
//	table := core.Table{
//		Name: "employees",
//		Columns: []core.Column{
//			{Name: "id", Type: core.IntType, PrimaryKey: true, AutoAssign: true},
//			{Name: "name", Type: core.StringType, NotNull: true},
//			{Name: "salary", Type: core.FloatType},
//		},
//	}
//	emp, err := op.CreateTable(ctx, engine, table, nil)
//
//	emp, err = op.GetTable(ctx, engine, "employees") // from the live schema
//
// # Rows
//
//	stored, err := emp.Insert(ctx, op.Row{"name": "Alice", "salary": 95000.0})
//	id := stored["id"] // engine-assigned key
//
//	rows, err := emp.Select(ctx, core.Match("name", "Alice"))
//	row, ok, err := emp.Get(ctx, id)
//	n, err := emp.Update(ctx, core.Match("name", "Alice"), op.Row{"salary": 99000.0})
//	n, err = emp.Delete(ctx, core.Match("name", "Alice"))
//
//	// Streaming over large tables
//	for row, err := range emp.Scan(ctx) {
//		...
//	}
//
// # Schema Changes
//
//	err = emp.AddColumn(ctx, core.Column{Name: "email", Type: core.StringType})
//	err = emp.RenameColumn(ctx, "email", "work_email")
//	err = emp.DropColumn(ctx, "work_email")
//	err = emp.DropTable(ctx)
//
// # Architecture
//
// The layering is:
//
//	Typed Operations (op/)   ← This package
//	        ↓
//	SQL Engine (db/)
//	        ↓
//	Store (ps/)
//	        ↓
//	Embedded Engine (SQLite / DuckDB)
package op
