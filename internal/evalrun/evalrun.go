// Package evalrun runs retrieval evaluation cases against a wired pipeline
// and reports a hit-rate proxy with latency percentiles.
package evalrun

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/DreamCats/docqa/internal/pipeline"
)

// Case is one evaluation question with the doc ids that count as a hit.
type Case struct {
	Q          string   `json:"q"`
	GoldDocIDs []string `json:"gold_doc_ids"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Question    string
	Hit         bool
	TotalMillis float64
}

// Report aggregates an evaluation run. HitRate is the fraction of cases
// whose retrieval surfaced at least one gold document, a recall@k proxy.
type Report struct {
	Total     int
	Hits      int
	HitRate   float64
	P50Millis float64
	P95Millis float64
	Results   []CaseResult
}

// Asker answers one question with a trace.
type Asker interface {
	Run(ctx context.Context, question string) (*pipeline.Trace, error)
}

// LoadCases reads a JSON array of evaluation cases.
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read eval cases: %w", err)
	}
	var cases []Case
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse eval cases: %w", err)
	}
	return cases, nil
}

// Run executes every case in order. A pipeline error aborts the run; eval
// corpora are expected to be answerable end to end.
func Run(ctx context.Context, asker Asker, cases []Case) (*Report, error) {
	report := &Report{Results: make([]CaseResult, 0, len(cases))}
	latencies := make([]float64, 0, len(cases))

	for _, c := range cases {
		trace, err := asker.Run(ctx, c.Q)
		if err != nil {
			return nil, fmt.Errorf("case %q: %w", c.Q, err)
		}

		hit := Hit(trace.Retrieval.IDs, c.GoldDocIDs)
		report.Total++
		if hit {
			report.Hits++
		}
		latencies = append(latencies, trace.TotalMillis)
		report.Results = append(report.Results, CaseResult{
			Question:    c.Q,
			Hit:         hit,
			TotalMillis: trace.TotalMillis,
		})
	}

	if report.Total > 0 {
		report.HitRate = float64(report.Hits) / float64(report.Total)
	}
	report.P50Millis = percentile(latencies, 0.5)
	report.P95Millis = percentile(latencies, 0.95)
	return report, nil
}

// Hit reports whether any retrieved chunk belongs to a gold document. Chunk
// ids carry the document id before the ordinal separator.
func Hit(retrievedIDs, goldDocIDs []string) bool {
	gold := make(map[string]bool, len(goldDocIDs))
	for _, id := range goldDocIDs {
		gold[id] = true
	}
	for _, id := range retrievedIDs {
		docID := strings.SplitN(id, "#", 2)[0]
		if gold[docID] {
			return true
		}
	}
	return false
}

// percentile returns the value at index floor(n*q) of the sorted series, 0
// for an empty series.
func percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	i := int(float64(len(sorted)) * q)
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}
