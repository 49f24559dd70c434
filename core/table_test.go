package core

import (
	"reflect"
	"testing"
)

func testEmployeesTable() Table {
	return Table{
		Name: "employees",
		Columns: []Column{
			{Name: "id", Type: IntType, PrimaryKey: true, AutoAssign: true},
			{Name: "name", Type: StringType, NotNull: true},
			{Name: "age", Type: IntType},
			{Name: "department", Type: StringType},
		},
	}
}

func TestTablePrimaryKey(t *testing.T) {
	table := testEmployeesTable()

	pk, ok := table.PrimaryKey()
	if !ok {
		t.Fatal("Expected a primary key")
	}
	if pk.Name != "id" {
		t.Errorf("Expected primary key 'id', got %q", pk.Name)
	}

	noPK := Table{Name: "departments", Columns: []Column{{Name: "name", Type: StringType}}}
	if _, ok := noPK.PrimaryKey(); ok {
		t.Error("Expected no primary key")
	}
}

func TestTableColumn(t *testing.T) {
	table := testEmployeesTable()

	col, ok := table.Column("age")
	if !ok {
		t.Fatal("Expected to find column 'age'")
	}
	if col.Type != IntType {
		t.Errorf("Expected IntType, got %v", col.Type)
	}

	if _, ok := table.Column("salary"); ok {
		t.Error("Expected column 'salary' to be missing")
	}
}

func TestTableColumnNames(t *testing.T) {
	table := testEmployeesTable()

	expected := []string{"id", "name", "age", "department"}
	if names := table.ColumnNames(); !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected %v, got %v", expected, names)
	}
}
