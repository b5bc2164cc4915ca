package index

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DreamCats/docqa/internal/chunk"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// db wraps the sqlite connection holding chunk metadata and vectors.
type db struct {
	sqlDB *sql.DB
}

// openDB opens or creates the index database and applies the schema.
func openDB(path string) (*db, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	d := &db{sqlDB: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return d, nil
}

func (d *db) Close() error {
	return d.sqlDB.Close()
}

func (d *db) migrate() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := d.sqlDB.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// reset clears all indexed data ahead of a full rebuild.
func (d *db) reset() error {
	for _, table := range []string{"embeddings", "chunks"} {
		if _, err := d.sqlDB.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}

// insertChunks stores chunks in one transaction.
func (d *db) insertChunks(chunks []chunk.Chunk) error {
	tx, err := d.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO chunks (id, doc_id, ordinal, text, page) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.Exec(c.ID, c.DocID, i, c.Text, c.Page); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// insertVectors stores embedding vectors as binary blobs in one transaction.
// Nil vectors are skipped; their chunks stay lexical-only.
func (d *db) insertVectors(ids []string, vectors [][]float32, model string) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	tx, err := d.sqlDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO embeddings (chunk_id, vector, dimension, model, created_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, vec := range vectors {
		if len(vec) == 0 {
			continue
		}
		blob, err := vectorToBlob(vec)
		if err != nil {
			return fmt.Errorf("failed to convert vector %d to blob: %w", i, err)
		}
		if _, err := stmt.Exec(ids[i], blob, len(vec), model, now); err != nil {
			return fmt.Errorf("failed to insert vector for %s: %w", ids[i], err)
		}
	}
	return tx.Commit()
}

// loadChunks returns all chunks in their original ingestion order.
func (d *db) loadChunks() ([]chunk.Chunk, error) {
	rows, err := d.sqlDB.Query("SELECT id, doc_id, text, page FROM chunks ORDER BY ordinal")
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []chunk.Chunk
	for rows.Next() {
		var c chunk.Chunk
		var page sql.NullInt64
		if err := rows.Scan(&c.ID, &c.DocID, &c.Text, &page); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if page.Valid {
			c.Page = int(page.Int64)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// loadVectors returns all vectors keyed by chunk id plus the shared
// dimensionality. Mixed dimensions mean the index was built against two
// different embedding configurations and is unusable.
func (d *db) loadVectors() (map[string][]float32, int, error) {
	rows, err := d.sqlDB.Query("SELECT chunk_id, vector, dimension FROM embeddings")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32)
	dim := 0
	for rows.Next() {
		var id string
		var blob []byte
		var d int
		if err := rows.Scan(&id, &blob, &d); err != nil {
			return nil, 0, fmt.Errorf("failed to scan vector row: %w", err)
		}
		vec, err := blobToVector(blob)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to decode vector for %s: %w", id, err)
		}
		if len(vec) != d {
			return nil, 0, fmt.Errorf("vector for %s has %d values, recorded dimension %d", id, len(vec), d)
		}
		if dim == 0 {
			dim = d
		} else if d != dim {
			return nil, 0, fmt.Errorf("mixed vector dimensions in index: %d and %d", dim, d)
		}
		vectors[id] = vec
	}
	return vectors, dim, rows.Err()
}
