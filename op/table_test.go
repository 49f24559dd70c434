package op

import (
	"context"
	"reflect"
	"testing"

	"github.com/rundb/RunDB/core"
	"github.com/rundb/RunDB/db"
	"github.com/rundb/RunDB/ps"
)

func setupTestEngine(t *testing.T, mode db.CommitMode) *db.Engine {
	t.Helper()

	store, err := ps.OpenMemory(nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}

	engine := db.NewEngine(store, mode)
	t.Cleanup(func() { engine.Close() })
	return engine
}

func employeesTable() core.Table {
	return core.Table{
		Name: "employees",
		Columns: []core.Column{
			{Name: "id", Type: core.IntType, PrimaryKey: true, AutoAssign: true},
			{Name: "name", Type: core.StringType, NotNull: true},
			{Name: "department", Type: core.StringType},
			{Name: "salary", Type: core.FloatType},
		},
	}
}

func createEmployees(t *testing.T, engine *db.Engine) *TableOp {
	t.Helper()

	emp, err := CreateTable(context.Background(), engine, employeesTable(), nil)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	return emp
}

func insertEmployees(t *testing.T, emp *TableOp) {
	t.Helper()

	rows := []Row{
		{"name": "Alice", "department": "engineering", "salary": 95000.0},
		{"name": "Bob", "department": "sales", "salary": 60000.0},
		{"name": "Charlie", "department": "engineering", "salary": 80000.0},
	}
	for _, row := range rows {
		if _, err := emp.Insert(context.Background(), row); err != nil {
			t.Fatalf("Failed to insert %v: %v", row["name"], err)
		}
	}
}

func TestCreateTableRoundTrip(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	createEmployees(t, engine)

	emp, err := GetTable(context.Background(), engine, "employees")
	if err != nil {
		t.Fatalf("Failed to load table: %v", err)
	}
	if !reflect.DeepEqual(emp.Table, employeesTable()) {
		t.Errorf("Loaded table does not match definition:\n%+v\nwant\n%+v",
			emp.Table, employeesTable())
	}
}

func TestCreateTableIfNotExists(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	createEmployees(t, engine)

	if _, err := CreateTable(context.Background(), engine, employeesTable(), nil); err == nil {
		t.Error("Expected error creating an existing table")
	}

	opts := &CreateOptions{IfNotExists: true}
	if _, err := CreateTable(context.Background(), engine, employeesTable(), opts); err != nil {
		t.Errorf("Expected IfNotExists to tolerate an existing table, got %v", err)
	}
}

func TestCreateTableValidation(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)

	if _, err := CreateTable(context.Background(), engine, core.Table{}, nil); err == nil {
		t.Error("Expected error for a table without a name")
	}
	if _, err := CreateTable(context.Background(), engine, core.Table{Name: "empty"}, nil); err == nil {
		t.Error("Expected error for a table without columns")
	}
}

func TestGetTableMissing(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)

	if _, err := GetTable(context.Background(), engine, "missing"); err == nil {
		t.Error("Expected error loading a missing table")
	}
}

func TestInsertAssignsKey(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	first, err := emp.Insert(context.Background(), Row{"name": "Alice"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if first["id"] != int64(1) {
		t.Errorf("Expected assigned id 1, got %v", first["id"])
	}

	second, err := emp.Insert(context.Background(), Row{"name": "Bob"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if second["id"] != int64(2) {
		t.Errorf("Expected assigned id 2, got %v", second["id"])
	}
}

func TestInsertExplicitKey(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	stored, err := emp.Insert(context.Background(), Row{"id": 42, "name": "Alice"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if stored["id"] != int64(42) {
		t.Errorf("Expected id 42, got %v", stored["id"])
	}
}

func TestInsertEmptyRow(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if _, err := emp.Insert(context.Background(), Row{}); err == nil {
		t.Error("Expected error inserting an empty row")
	}
}

func TestInsertUnknownColumn(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	_, err := emp.Insert(context.Background(), Row{"name": "Alice", "nickname": "Al"})
	if err == nil {
		t.Error("Expected the engine to reject an unknown column")
	}
}

func TestInsertNullRequiredColumn(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	_, err := emp.Insert(context.Background(), Row{"name": nil, "department": "sales"})
	if err == nil {
		t.Error("Expected a constraint violation for a null name")
	}

	// The failed insert added nothing
	count, err := emp.Count(context.Background())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 rows, got %d", count)
	}
}

func TestSelectTypedValues(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	rows, err := emp.Select(context.Background(), core.Match("name", "Alice"))
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if _, ok := row["id"].(int64); !ok {
		t.Errorf("Expected int64 id, got %T", row["id"])
	}
	if name, ok := row["name"].(string); !ok || name != "Alice" {
		t.Errorf("Expected name Alice, got %v", row["name"])
	}
	if salary, ok := row["salary"].(float64); !ok || salary != 95000.0 {
		t.Errorf("Expected salary 95000, got %v", row["salary"])
	}
}

func TestSelectAll(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	rows, err := emp.Select(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("Expected 3 rows, got %d", len(rows))
	}
}

func TestSelectWithFilter(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	rows, err := emp.Select(context.Background(), core.Match("department", "engineering"))
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Expected 2 engineering rows, got %d", len(rows))
	}
}

func TestSelectFilterOnMissingColumn(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if _, err := emp.Select(context.Background(), core.Match("missing", 1)); err == nil {
		t.Error("Expected the engine to reject an unknown filter column")
	}
}

func TestGet(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	stored, err := emp.Insert(context.Background(), Row{"name": "Alice"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	row, ok, err := emp.Get(context.Background(), stored["id"])
	if err != nil {
		t.Fatalf("Failed to get: %v", err)
	}
	if !ok {
		t.Fatal("Expected row to exist")
	}
	if row["name"] != "Alice" {
		t.Errorf("Expected Alice, got %v", row["name"])
	}

	_, ok, err = emp.Get(context.Background(), int64(999))
	if err != nil {
		t.Fatalf("Failed to get missing key: %v", err)
	}
	if ok {
		t.Error("Expected missing key to report not found")
	}
}

func TestScan(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	seen := 0
	for _, err := range emp.Scan(context.Background()) {
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		seen++
	}
	if seen != 3 {
		t.Errorf("Expected 3 rows, got %d", seen)
	}
}

func TestScanEarlyStop(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	seen := 0
	for _, err := range emp.Scan(context.Background()) {
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		seen++
		break
	}
	if seen != 1 {
		t.Errorf("Expected to stop after 1 row, got %d", seen)
	}

	// The engine stays usable after an abandoned scan.
	if _, err := emp.Count(context.Background()); err != nil {
		t.Errorf("Expected engine to stay usable, got %v", err)
	}
}

func TestScanWithFilter(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	seen := 0
	for row, err := range emp.ScanWithFilter(context.Background(), core.Match("department", "sales")) {
		if err != nil {
			t.Fatalf("Scan failed: %v", err)
		}
		if row["name"] != "Bob" {
			t.Errorf("Expected Bob, got %v", row["name"])
		}
		seen++
	}
	if seen != 1 {
		t.Errorf("Expected 1 sales row, got %d", seen)
	}
}

func TestUpdate(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	n, err := emp.Update(context.Background(),
		core.Match("name", "Alice"), Row{"salary": 99000.0})
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row updated, got %d", n)
	}

	rows, err := emp.Select(context.Background(), core.Match("name", "Alice"))
	if err != nil {
		t.Fatalf("Failed to verify update: %v", err)
	}
	if rows[0]["salary"] != 99000.0 {
		t.Errorf("Expected salary 99000, got %v", rows[0]["salary"])
	}

	// Applying the same update again changes nothing
	n, err = emp.Update(context.Background(),
		core.Match("name", "Alice"), Row{"salary": 99000.0})
	if err != nil {
		t.Fatalf("Failed to repeat update: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row matched on repeat, got %d", n)
	}
	rows, err = emp.Select(context.Background(), core.Match("name", "Alice"))
	if err != nil {
		t.Fatalf("Failed to verify repeated update: %v", err)
	}
	if rows[0]["salary"] != 99000.0 {
		t.Errorf("Expected salary unchanged at 99000, got %v", rows[0]["salary"])
	}
}

func TestUpdateRequiresFilter(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if _, err := emp.Update(context.Background(), nil, Row{"salary": 1.0}); err == nil {
		t.Error("Expected error updating without a filter")
	}
	if _, err := emp.Update(context.Background(), core.Match("name", "Alice"), Row{}); err == nil {
		t.Error("Expected error updating without values")
	}
}

func TestDelete(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	n, err := emp.Delete(context.Background(), core.Match("name", "Bob"))
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row deleted, got %d", n)
	}

	count, err := emp.Count(context.Background())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 rows after delete, got %d", count)
	}

	// Deleting a name that is already gone is not an error
	n, err = emp.Delete(context.Background(), core.Match("name", "Bob"))
	if err != nil {
		t.Fatalf("Failed to delete missing row: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 rows deleted, got %d", n)
	}
}

func TestDeleteRequiresFilter(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if _, err := emp.Delete(context.Background(), nil); err == nil {
		t.Error("Expected error deleting without a filter")
	}
}

func TestSchemaChanges(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if err := emp.AddColumn(context.Background(), core.Column{Name: "email", Type: core.StringType}); err != nil {
		t.Fatalf("Failed to add column: %v", err)
	}
	loaded, err := GetTable(context.Background(), engine, "employees")
	if err != nil {
		t.Fatalf("Failed to reload table: %v", err)
	}
	if _, ok := loaded.Table.Column("email"); !ok {
		t.Error("Expected added column to be visible")
	}

	if err := emp.RenameColumn(context.Background(), "email", "work_email"); err != nil {
		t.Fatalf("Failed to rename column: %v", err)
	}
	if _, ok := emp.Table.Column("work_email"); !ok {
		t.Error("Expected rename to update the bound definition")
	}

	if err := emp.DropColumn(context.Background(), "work_email"); err != nil {
		t.Fatalf("Failed to drop column: %v", err)
	}
	loaded, err = GetTable(context.Background(), engine, "employees")
	if err != nil {
		t.Fatalf("Failed to reload table: %v", err)
	}
	if _, ok := loaded.Table.Column("work_email"); ok {
		t.Error("Expected dropped column to be gone")
	}
}

func TestSchemaChangeGuards(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	err := emp.AddColumn(context.Background(), core.Column{Name: "id2", Type: core.IntType, PrimaryKey: true})
	if err == nil {
		t.Error("Expected error adding a primary key column")
	}

	if err := emp.DropColumn(context.Background(), "id"); err == nil {
		t.Error("Expected error dropping the primary key column")
	}
}

func TestDropTable(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)

	if err := emp.DropTable(context.Background()); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if _, err := GetTable(context.Background(), engine, "employees"); err == nil {
		t.Error("Expected dropped table to be gone")
	}
}

func TestIndexLifecycle(t *testing.T) {
	engine := setupTestEngine(t, db.CommitEachStatement)
	emp := createEmployees(t, engine)
	insertEmployees(t, emp)

	ctx := context.Background()
	if err := emp.CreateIndex(ctx, "department", false); err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}

	// Creating the same index again is tolerated
	if err := emp.CreateIndex(ctx, "department", false); err != nil {
		t.Errorf("Expected repeated create to succeed, got %v", err)
	}

	// A unique index rejects duplicates
	if err := emp.CreateIndex(ctx, "name", true); err != nil {
		t.Fatalf("Failed to create unique index: %v", err)
	}
	if _, err := emp.Insert(ctx, Row{"name": "Alice", "department": "sales"}); err == nil {
		t.Error("Expected unique index to reject a duplicate name")
	}

	if err := emp.DropIndex(ctx, "department"); err != nil {
		t.Fatalf("Failed to drop index: %v", err)
	}
	if err := emp.DropIndex(ctx, "name"); err != nil {
		t.Fatalf("Failed to drop unique index: %v", err)
	}

	// Dropped index no longer constrains inserts
	if _, err := emp.Insert(ctx, Row{"name": "Alice", "department": "sales"}); err != nil {
		t.Errorf("Expected insert to succeed after dropping the index, got %v", err)
	}
}

func TestPendingChangesVisible(t *testing.T) {
	engine := setupTestEngine(t, db.CommitOnRequest)
	emp := createEmployees(t, engine)

	if _, err := emp.Insert(context.Background(), Row{"name": "Alice"}); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if !engine.Pending() {
		t.Fatal("Expected pending changes")
	}

	// Both data and schema reads see the pending transaction.
	count, err := emp.Count(context.Background())
	if err != nil {
		t.Fatalf("Failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected pending insert to be visible, count %d", count)
	}
	if _, err := GetTable(context.Background(), engine, "employees"); err != nil {
		t.Errorf("Expected pending table to be introspectable, got %v", err)
	}

	if err := engine.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}
	if _, err := GetTable(context.Background(), engine, "employees"); err == nil {
		t.Error("Expected table to be gone after rollback")
	}
}

func TestTableOpDuckDB(t *testing.T) {
	store, err := ps.OpenMemory(&ps.Options{Driver: ps.DriverDuckDB})
	if err != nil {
		t.Fatalf("Failed to open duckdb store: %v", err)
	}
	engine := db.NewEngine(store, db.CommitEachStatement)
	t.Cleanup(func() { engine.Close() })

	emp, err := CreateTable(context.Background(), engine, employeesTable(), nil)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	first, err := emp.Insert(context.Background(), Row{"name": "Alice"})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if first["id"] != int64(1) {
		t.Errorf("Expected sequence-assigned id 1, got %v", first["id"])
	}
	second, err := emp.Insert(context.Background(), Row{"name": "Bob", "salary": 60000.0})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if second["id"] != int64(2) {
		t.Errorf("Expected sequence-assigned id 2, got %v", second["id"])
	}

	loaded, err := GetTable(context.Background(), engine, "employees")
	if err != nil {
		t.Fatalf("Failed to load table: %v", err)
	}
	pk, ok := loaded.Table.PrimaryKey()
	if !ok {
		t.Fatal("Expected a primary key")
	}
	if !pk.AutoAssign {
		t.Error("Expected the sequence default to read back as AutoAssign")
	}

	if err := emp.DropTable(context.Background()); err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if _, err := GetTable(context.Background(), engine, "employees"); err == nil {
		t.Error("Expected dropped table to be gone")
	}
}
