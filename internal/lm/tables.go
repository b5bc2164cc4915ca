package lm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const tableDomainPrompt = `You are a database schema analyst. Analyze the provided table structure and sample data to determine its domain and purpose. Always respond with valid JSON.`

// TableDomain is the model's classification of a tabular dataset.
type TableDomain struct {
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

// ClassifyTable determines the domain and purpose of a table from its columns
// and one sample row.
func (c *Client) ClassifyTable(ctx context.Context, columns []string, sampleJSON string) (TableDomain, error) {
	user := fmt.Sprintf(`Analyze this database table and classify its domain and purpose.

Table Columns: %s
Sample Row: %s

Tasks:
1. Determine the primary domain/category this table represents
2. Write a clear, specific description of what data this table contains
3. Choose or create the most appropriate domain name (be specific, not generic)

Guidelines:
- Focus on the actual data content, not just column names
- Avoid overly broad categories; be specific about what the data covers
- The description should be detailed enough that someone could understand the table's purpose

Respond with JSON in this exact format:
{
  "domain": "Specific Domain Name",
  "description": "Detailed description of what this table contains and its purpose"
}`, strings.Join(columns, ", "), sampleJSON)

	content, err := c.complete(ctx, systemUser(tableDomainPrompt, user), 0.1)
	if err != nil {
		return TableDomain{}, err
	}

	var domain TableDomain
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &domain); err != nil {
		return TableDomain{}, fmt.Errorf("parse table classification: %w", err)
	}
	return domain, nil
}

// SelectTables picks up to max table aliases relevant to the question, given
// a description of every available table.
func (c *Client) SelectTables(ctx context.Context, question, tableSummaries string, max int) ([]string, error) {
	sys := fmt.Sprintf(`You select database tables. Given the question and the available tables, return a JSON array with the aliases of at most %d relevant tables, most relevant first. Return [] if none apply.`, max)
	user := fmt.Sprintf("TABLES:\n%s\n\nQUESTION: %s", tableSummaries, question)

	content, err := c.complete(ctx, systemUser(sys, user), 0)
	if err != nil {
		return nil, err
	}
	aliases, err := parseStringArray(content)
	if err != nil {
		return nil, fmt.Errorf("parse table selection: %w", err)
	}
	if len(aliases) > max {
		aliases = aliases[:max]
	}
	return aliases, nil
}

// GenerateSQL writes a single SQL query answering the question against the
// given table schema.
func (c *Client) GenerateSQL(ctx context.Context, question, schema string) (string, error) {
	sys := `You write SQL for SQLite. Given a table schema and a question, output exactly one SELECT statement that answers it. Output only the SQL, no explanation, no code fences.`
	user := fmt.Sprintf("SCHEMA:\n%s\n\nQUESTION: %s", schema, question)

	content, err := c.complete(ctx, systemUser(sys, user), 0)
	if err != nil {
		return "", err
	}
	query := stripCodeFence(content)
	query = strings.TrimPrefix(query, "sql\n")
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("model returned an empty query")
	}
	return query, nil
}
