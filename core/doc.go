// Package core provides the value types shared throughout RunDB.
//
// The package defines the statement model (Statement, Script, Kind),
// table definitions (Table, Column and type constants) and the row
// Filter used by the operations layer.
//
// # Statements
//
// A Statement pairs SQL text with values for its positional
// placeholders:
//
//	stmt := core.NewStatement(
//	    "INSERT INTO employees (name, age) VALUES (?, ?)",
//	    "Alice", 30,
//	)
//
// Statements are classified by their leading keyword: SELECT and other
// row-returning commands are KindQuery, INSERT/UPDATE/DELETE are
// KindMutation, CREATE/ALTER/DROP are KindSchema.
//
// # Scripts
//
// A Script is an ordered statement list. Parse builds one from raw SQL
// text, splitting on semicolons outside string literals:
//
//	script := core.Parse(`
//	    CREATE TABLE departments (name TEXT);
//	    INSERT INTO departments (name) VALUES ('engineering');
//	`)
//
// # Table Definition
//
//	table := core.Table{
//	    Name: "employees",
//	    Columns: []core.Column{
//	        {Name: "id", Type: core.IntType, PrimaryKey: true, AutoAssign: true},
//	        {Name: "name", Type: core.StringType, NotNull: true},
//	        {Name: "age", Type: core.IntType},
//	    },
//	}
package core
