package tools

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"
)

// DB is the query engine behind the SQL tool: an in-memory sqlite database
// populated from CSV files, one table per file.
type DB struct {
	db             *sql.DB
	maxResultChars int
}

// OpenDB creates an empty in-memory query engine. maxResultChars caps the
// serialized result size handed back to the model.
func OpenDB(maxResultChars int) (*DB, error) {
	if maxResultChars <= 0 {
		maxResultChars = 8000
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open in-memory database: %w", err)
	}
	return &DB{db: db, maxResultChars: maxResultChars}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// LoadCSVDir loads every .csv file in dir as a table named after the file.
// All columns are TEXT; sqlite's type affinity still lets numeric comparisons
// work in generated queries. Returns the number of tables created. A missing
// directory is not an error; the tool set simply stays empty.
func (d *DB) LoadCSVDir(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read tables directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		alias := sanitizeIdent(strings.TrimSuffix(name, filepath.Ext(name)))
		if err := d.loadCSV(ctx, filepath.Join(dir, name), alias); err != nil {
			return loaded, fmt.Errorf("load %s: %w", name, err)
		}
		loaded++
	}
	return loaded, nil
}

func (d *DB) loadCSV(ctx context.Context, path, alias string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	header := records[0]
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = sanitizeIdent(h)
	}

	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = fmt.Sprintf("%q TEXT", c)
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", alias, strings.Join(defs, ", "))
	if _, err := d.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", alias)); err != nil {
		return err
	}
	if _, err := d.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", alias, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", alias, placeholders)

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, record := range records[1:] {
		row := make([]any, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = record[i]
			} else {
				row[i] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("insert into %s: %w", alias, err)
		}
	}
	return tx.Commit()
}

// ListTables returns the loaded table aliases in name order.
func (d *DB) ListTables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
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

// TableColumns returns the column names of a table in declaration order.
func (d *DB) TableColumns(ctx context.Context, alias string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT 0", alias))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", alias, err)
	}
	defer rows.Close()
	return rows.Columns()
}

// SampleRow returns the first row of a table as a column-keyed map, or nil
// for an empty table.
func (d *DB) SampleRow(ctx context.Context, alias string) (map[string]any, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q LIMIT 1", alias))
	if err != nil {
		return nil, fmt.Errorf("sample table %s: %w", alias, err)
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result[0], nil
}

// Query runs one SQL statement and returns the rows as a JSON array string,
// truncated to the configured cap. Failures come back as an ERROR-tagged
// string, matching the tool result contract.
func (d *DB) Query(ctx context.Context, query string) string {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%s %v", ErrorPrefix, err)
	}
	if len(out) > d.maxResultChars {
		out = out[:d.maxResultChars]
	}
	return string(out)
}

func collectRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		for i := range values {
			values[i] = new(any)
		}
		if err := rows.Scan(values...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			v := *(values[i].(*any))
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

var identPattern = regexp.MustCompile(`[^a-zA-Z0-9_]`)

func sanitizeIdent(s string) string {
	s = identPattern.ReplaceAllString(s, "_")
	if s == "" || (s[0] >= '0' && s[0] <= '9') {
		s = "t_" + s
	}
	return s
}

// SQLTool runs model-generated queries against the CSV-backed engine.
type SQLTool struct {
	db *DB
}

func NewSQLTool(db *DB) *SQLTool { return &SQLTool{db: db} }

func (*SQLTool) Name() string { return "sql_query" }

// Invoke executes the "sql" field of the arguments object.
func (t *SQLTool) Invoke(ctx context.Context, argsJSON string) string {
	var args struct {
		SQL string `json:"sql"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return fmt.Sprintf("%s invalid arguments: %v", ErrorPrefix, err)
	}
	if strings.TrimSpace(args.SQL) == "" {
		return fmt.Sprintf("%s empty query", ErrorPrefix)
	}
	return t.db.Query(ctx, args.SQL)
}
