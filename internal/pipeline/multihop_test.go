package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/DreamCats/docqa/internal/chunk"
	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/retrieval"
)

// fakeSearcher serves canned results keyed by query.
type fakeSearcher struct {
	results map[string][]retrieval.Retrieved
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, query string, lexTopN, vecTopN int) ([]retrieval.Retrieved, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

// passReranker keeps the fused order and truncates to k.
type passReranker struct{}

func (passReranker) Rerank(ctx context.Context, query string, cands []retrieval.Retrieved, k int) []retrieval.Retrieved {
	if k > len(cands) {
		k = len(cands)
	}
	return cands[:k]
}

func item(id, text string) retrieval.Retrieved {
	return retrieval.Retrieved{Chunk: chunk.Chunk{ID: id, DocID: strings.SplitN(id, "#", 2)[0], Text: text}}
}

func searchConfig() *config.SearchConfig {
	return &config.SearchConfig{
		MultiHopLexicalTopN: 200,
		MultiHopVectorTopN:  400,
		MultiHopTopK:        12,
		MaxSubQuestions:     4,
	}
}

func TestMultiHopMergeDedupesFirstSeen(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{
		"who founded X": {item("doc1#3", "shared"), item("doc1#0", "only A")},
		"when was X":    {item("doc2#1", "only B"), item("doc1#3", "shared")},
	}}
	model := &fakeLM{subs: []string{"who founded X", "when was X"}}
	m := NewMultiHop(searcher, passReranker{}, model, searchConfig())

	set, err := m.Run(context.Background(), "who founded X and when?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	ids := retrievedIDs(set.Merged)
	want := []string{"doc1#3", "doc1#0", "doc2#1"}
	if len(ids) != len(want) {
		t.Fatalf("merged ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("merged[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	if len(set.PerHopIDs) != 2 {
		t.Fatalf("per-hop lists = %d, want 2", len(set.PerHopIDs))
	}
	if len(set.PerHopIDs[1]) != 2 || set.PerHopIDs[1][1] != "doc1#3" {
		t.Errorf("hop B ids = %v, duplicates must stay in per-hop lists", set.PerHopIDs[1])
	}
}

func TestMultiHopContextLabelsHops(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{
		"sub one": {item("a.txt#0", "first evidence")},
		"sub two": {item("b.txt#0", "second evidence")},
	}}
	model := &fakeLM{subs: []string{"sub one", "sub two"}}
	m := NewMultiHop(searcher, passReranker{}, model, searchConfig())

	set, err := m.Run(context.Background(), "compound question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !strings.Contains(set.Context, "SUBQ: sub one") || !strings.Contains(set.Context, "SUBQ: sub two") {
		t.Errorf("context missing SUBQ labels:\n%s", set.Context)
	}
	if strings.Index(set.Context, "first evidence") > strings.Index(set.Context, "second evidence") {
		t.Error("hop blocks out of sub-question order")
	}
	if !strings.Contains(set.Context, "[a.txt#0]") {
		t.Errorf("context missing citation ids:\n%s", set.Context)
	}
}

func TestMultiHopDecomposeFailureFallsBack(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{
		"the question": {item("a.txt#0", "evidence")},
	}}
	model := &fakeLM{subsErr: context.DeadlineExceeded}
	m := NewMultiHop(searcher, passReranker{}, model, searchConfig())

	set, err := m.Run(context.Background(), "the question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(set.SubQuestions) != 1 || set.SubQuestions[0] != "the question" {
		t.Errorf("sub-questions = %v, want the original question alone", set.SubQuestions)
	}
	if len(set.Merged) != 1 {
		t.Errorf("merged = %v, want the single hop's results", retrievedIDs(set.Merged))
	}
}

func TestMultiHopSearchErrorPropagates(t *testing.T) {
	searcher := &fakeSearcher{err: &retrieval.DimensionError{QueryDim: 768, IndexDim: 1536}}
	model := &fakeLM{subs: []string{"sub"}}
	m := NewMultiHop(searcher, passReranker{}, model, searchConfig())

	if _, err := m.Run(context.Background(), "q"); err == nil {
		t.Fatal("expected search error to propagate")
	}
}
