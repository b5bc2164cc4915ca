package evalrun

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DreamCats/docqa/internal/pipeline"
)

type scriptedAsker struct {
	traces map[string]*pipeline.Trace
}

func (s *scriptedAsker) Run(ctx context.Context, question string) (*pipeline.Trace, error) {
	trace, ok := s.traces[question]
	if !ok {
		return nil, fmt.Errorf("unexpected question %q", question)
	}
	return trace, nil
}

func TestHit(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		gold      []string
		want      bool
	}{
		{"direct hit", []string{"paris.txt#0", "rome.txt#2"}, []string{"paris.txt"}, true},
		{"hit on later chunk", []string{"a.txt#0", "b.txt#7"}, []string{"b.txt"}, true},
		{"miss", []string{"a.txt#0"}, []string{"b.txt"}, false},
		{"empty retrieval", nil, []string{"a.txt"}, false},
		{"no gold", []string{"a.txt#0"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hit(tt.retrieved, tt.gold); got != tt.want {
				t.Errorf("Hit(%v, %v) = %v, want %v", tt.retrieved, tt.gold, got, tt.want)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	series := []float64{50, 10, 30, 20, 40}
	if got := percentile(series, 0.5); got != 30 {
		t.Errorf("p50 = %f, want 30", got)
	}
	if got := percentile(series, 0.95); got != 50 {
		t.Errorf("p95 = %f, want 50", got)
	}
	if got := percentile(nil, 0.5); got != 0 {
		t.Errorf("empty p50 = %f, want 0", got)
	}
}

func TestRunAggregates(t *testing.T) {
	asker := &scriptedAsker{traces: map[string]*pipeline.Trace{
		"q1": {Retrieval: pipeline.RetrievalTrace{IDs: []string{"gold.txt#0"}}, TotalMillis: 100},
		"q2": {Retrieval: pipeline.RetrievalTrace{IDs: []string{"other.txt#0"}}, TotalMillis: 300},
	}}
	cases := []Case{
		{Q: "q1", GoldDocIDs: []string{"gold.txt"}},
		{Q: "q2", GoldDocIDs: []string{"missing.txt"}},
	}

	report, err := Run(context.Background(), asker, cases)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Total != 2 || report.Hits != 1 || report.HitRate != 0.5 {
		t.Errorf("report = %+v, want 1/2 hit", report)
	}
	if report.P50Millis != 300 {
		t.Errorf("p50 = %f, want 300 (index 1 of sorted pair)", report.P50Millis)
	}
	if !report.Results[0].Hit || report.Results[1].Hit {
		t.Errorf("per-case hits wrong: %+v", report.Results)
	}
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eval.json")
	content := `[{"q": "who?", "gold_doc_ids": ["a.txt"]}]`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cases, err := LoadCases(path)
	if err != nil {
		t.Fatalf("LoadCases: %v", err)
	}
	if len(cases) != 1 || cases[0].Q != "who?" || cases[0].GoldDocIDs[0] != "a.txt" {
		t.Errorf("cases = %+v", cases)
	}

	if _, err := LoadCases(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file should error")
	}
}
