package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/DreamCats/docqa/internal/lm"
)

// TableInfo describes one loaded table for the SQL routing step: its schema
// plus a model-written domain and description that the table selector reads.
type TableInfo struct {
	Alias       string         `json:"alias"`
	Domain      string         `json:"domain"`
	Columns     []string       `json:"columns"`
	SampleData  map[string]any `json:"sampleData,omitempty"`
	Description string         `json:"description"`
}

// TableClassifier assigns a domain and description to a table.
type TableClassifier interface {
	ClassifyTable(ctx context.Context, columns []string, sampleJSON string) (lm.TableDomain, error)
}

// BuildTableIndex inspects every loaded table and classifies it. A failed
// classification keeps the table with a placeholder domain rather than
// dropping it.
func BuildTableIndex(ctx context.Context, db *DB, classifier TableClassifier) ([]TableInfo, error) {
	aliases, err := db.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]TableInfo, 0, len(aliases))
	for _, alias := range aliases {
		columns, err := db.TableColumns(ctx, alias)
		if err != nil {
			log.Printf("Warning: skipping table %s: %v", alias, err)
			continue
		}
		sample, err := db.SampleRow(ctx, alias)
		if err != nil {
			log.Printf("Warning: skipping table %s: %v", alias, err)
			continue
		}

		sampleJSON, _ := json.Marshal(sample)
		domain, err := classifier.ClassifyTable(ctx, columns, string(sampleJSON))
		if err != nil {
			log.Printf("Warning: failed to classify table %s: %v", alias, err)
			domain = lm.TableDomain{Domain: "Unknown", Description: "Unable to classify table structure"}
		}

		tables = append(tables, TableInfo{
			Alias:       alias,
			Domain:      domain.Domain,
			Columns:     columns,
			SampleData:  sample,
			Description: domain.Description,
		})
	}
	return tables, nil
}

// SaveTableIndex writes the table index JSON, creating parent directories.
func SaveTableIndex(path string, tables []TableInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create table index directory: %w", err)
	}
	data, err := json.MarshalIndent(tables, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write table index: %w", err)
	}
	return nil
}

// LoadTableIndex reads a previously built table index. A missing file returns
// an empty index; the SQL branch then reports no tables instead of failing.
func LoadTableIndex(path string) ([]TableInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read table index: %w", err)
	}
	var tables []TableInfo
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("parse table index: %w", err)
	}
	return tables, nil
}

// Schema renders the table's schema for the query-generation prompt.
func (t TableInfo) Schema() string {
	return fmt.Sprintf("%s(%s)", t.Alias, strings.Join(t.Columns, ", "))
}

// Summary renders one selector-facing line for the table.
func (t TableInfo) Summary() string {
	return fmt.Sprintf("%s (%s): %s; columns: %s",
		t.Alias, t.Domain, t.Description, strings.Join(t.Columns, ", "))
}
