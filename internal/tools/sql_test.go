package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func testDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	writeCSV(t, dir, "cities.csv", "name,country,population\nParis,France,2100000\nBerlin,Germany,3600000\n")
	writeCSV(t, dir, "not-a-table.txt", "ignored")

	db, err := OpenDB(8000)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n, err := db.LoadCSVDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadCSVDir: %v", err)
	}
	if n != 1 {
		t.Fatalf("loaded %d tables, want 1", n)
	}
	return db
}

func TestLoadCSVDirAndQuery(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	tables, err := db.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	if len(tables) != 1 || tables[0] != "cities" {
		t.Fatalf("tables = %v, want [cities]", tables)
	}

	result := db.Query(ctx, "SELECT name FROM cities WHERE country = 'France'")
	if IsError(result) {
		t.Fatalf("query failed: %s", result)
	}
	if !strings.Contains(result, "Paris") {
		t.Errorf("result %q does not mention Paris", result)
	}
	if strings.Contains(result, "Berlin") {
		t.Errorf("result %q should not mention Berlin", result)
	}
}

func TestQueryErrorTagged(t *testing.T) {
	db := testDB(t)
	result := db.Query(context.Background(), "SELECT * FROM missing_table")
	if !IsError(result) {
		t.Errorf("query on missing table should be ERROR-tagged, got %q", result)
	}
}

func TestQueryResultCap(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString("id,text\n")
	for i := 0; i < 200; i++ {
		sb.WriteString("1,")
		sb.WriteString(strings.Repeat("x", 100))
		sb.WriteString("\n")
	}
	writeCSV(t, dir, "big.csv", sb.String())

	db, err := OpenDB(500)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()
	if _, err := db.LoadCSVDir(context.Background(), dir); err != nil {
		t.Fatalf("LoadCSVDir: %v", err)
	}

	result := db.Query(context.Background(), "SELECT * FROM big")
	if len(result) > 500 {
		t.Errorf("result length %d exceeds cap 500", len(result))
	}
}

func TestLoadCSVDirMissingDir(t *testing.T) {
	db, err := OpenDB(8000)
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	defer db.Close()

	n, err := db.LoadCSVDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing directory should not error, got %v", err)
	}
	if n != 0 {
		t.Errorf("loaded %d tables from missing dir, want 0", n)
	}
}

func TestSanitizeIdent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"cities", "cities"},
		{"World Cities!", "World_Cities_"},
		{"2024-sales", "t_2024_sales"},
		{"", "t_"},
	}
	for _, tt := range tests {
		if got := sanitizeIdent(tt.in); got != tt.want {
			t.Errorf("sanitizeIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSQLToolInvoke(t *testing.T) {
	db := testDB(t)
	tool := NewSQLTool(db)
	ctx := context.Background()

	result := tool.Invoke(ctx, `{"sql": "SELECT count(*) AS n FROM cities"}`)
	if IsError(result) {
		t.Fatalf("invoke failed: %s", result)
	}
	if !strings.Contains(result, "2") {
		t.Errorf("count result %q should contain 2", result)
	}

	if got := tool.Invoke(ctx, `{"sql": ""}`); !IsError(got) {
		t.Errorf("empty query should fail, got %q", got)
	}
	if got := tool.Invoke(ctx, "nope"); !IsError(got) {
		t.Errorf("bad arguments should fail, got %q", got)
	}
}

func TestTableIndexSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tools", "table_index.json")
	tables := []TableInfo{{
		Alias:       "cities",
		Domain:      "World Cities",
		Columns:     []string{"name", "country", "population"},
		Description: "City populations by country",
	}}

	if err := SaveTableIndex(path, tables); err != nil {
		t.Fatalf("SaveTableIndex: %v", err)
	}
	got, err := LoadTableIndex(path)
	if err != nil {
		t.Fatalf("LoadTableIndex: %v", err)
	}
	if len(got) != 1 || got[0].Alias != "cities" || got[0].Domain != "World Cities" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestLoadTableIndexMissingFile(t *testing.T) {
	got, err := LoadTableIndex(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing index should not error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil index, got %+v", got)
	}
}
