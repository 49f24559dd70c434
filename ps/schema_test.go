package ps

import (
	"context"
	"reflect"
	"testing"

	"github.com/rundb/RunDB/core"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := OpenMemory(nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	ddl := []string{
		`CREATE TABLE employees (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			age INTEGER,
			salary REAL,
			department TEXT
		)`,
		`CREATE TABLE departments (name TEXT NOT NULL)`,
	}
	for _, stmt := range ddl {
		if _, err := store.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("Failed to create schema: %v", err)
		}
	}
	return store
}

func TestTables(t *testing.T) {
	store := setupTestStore(t)

	tables, err := store.Tables(context.Background())
	if err != nil {
		t.Fatalf("Failed to list tables: %v", err)
	}

	expected := []string{"departments", "employees"}
	if !reflect.DeepEqual(tables, expected) {
		t.Errorf("Expected %v, got %v", expected, tables)
	}
}

func TestTableExists(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	exists, err := store.TableExists(ctx, "employees")
	if err != nil {
		t.Fatalf("Failed to check table: %v", err)
	}
	if !exists {
		t.Error("Expected employees table to exist")
	}

	exists, err = store.TableExists(ctx, "missing")
	if err != nil {
		t.Fatalf("Failed to check table: %v", err)
	}
	if exists {
		t.Error("Expected missing table to not exist")
	}
}

func TestColumns(t *testing.T) {
	store := setupTestStore(t)

	columns, err := store.Columns(context.Background(), "employees")
	if err != nil {
		t.Fatalf("Failed to describe table: %v", err)
	}

	if len(columns) != 5 {
		t.Fatalf("Expected 5 columns, got %d", len(columns))
	}

	id := columns[0]
	if id.Name != "id" || !id.PrimaryKey || !id.AutoAssign || id.Type != core.IntType {
		t.Errorf("Unexpected id column: %+v", id)
	}

	name := columns[1]
	if name.Name != "name" || !name.NotNull || name.Type != core.TextType {
		t.Errorf("Unexpected name column: %+v", name)
	}

	salary := columns[3]
	if salary.Name != "salary" || salary.Type != core.FloatType {
		t.Errorf("Unexpected salary column: %+v", salary)
	}
}

func TestColumnsMissingTable(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.Columns(context.Background(), "missing"); err == nil {
		t.Error("Expected error for missing table")
	}
}

func TestColumnNames(t *testing.T) {
	store := setupTestStore(t)

	names, err := store.ColumnNames(context.Background(), "employees")
	if err != nil {
		t.Fatalf("Failed to get column names: %v", err)
	}

	expected := []string{"id", "name", "age", "salary", "department"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}

func TestDeclaredType(t *testing.T) {
	tests := []struct {
		declared string
		expected core.ColumnType
	}{
		{"INTEGER", core.IntType},
		{"int", core.IntType},
		{"BIGINT", core.IntType},
		{"TEXT", core.TextType},
		{"VARCHAR(50)", core.StringType},
		{"REAL", core.FloatType},
		{"DOUBLE", core.FloatType},
		{"BOOLEAN", core.BoolType},
		{"TIMESTAMP", core.TimestampType},
		{"BLOB", core.BlobType},
		{"", core.TextType},
	}

	for _, test := range tests {
		if actual := declaredType(test.declared); actual != test.expected {
			t.Errorf("declaredType(%q): expected %v, got %v", test.declared, test.expected, actual)
		}
	}
}
