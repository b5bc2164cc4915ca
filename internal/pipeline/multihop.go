package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/retrieval"
)

// DecomposeLM splits a question into sub-questions.
type DecomposeLM interface {
	Decompose(ctx context.Context, question string, maxSubQuestions int) ([]string, error)
}

// HopSet is the outcome of a multi-hop retrieval: the sub-questions, the
// deduplicated merged candidates, the per-hop id lists for tracing, and the
// drafting context with per-hop evidence blocks.
type HopSet struct {
	SubQuestions []string
	Merged       []retrieval.Retrieved
	PerHopIDs    [][]string
	Context      string
}

// MultiHop retrieves evidence for each sub-question independently and merges
// the hops.
type MultiHop struct {
	searcher Searcher
	reranker Reranker
	lm       DecomposeLM
	cfg      *config.SearchConfig
}

func NewMultiHop(searcher Searcher, reranker Reranker, model DecomposeLM, cfg *config.SearchConfig) *MultiHop {
	return &MultiHop{searcher: searcher, reranker: reranker, lm: model, cfg: cfg}
}

// Run decomposes the question and retrieves per hop with wider candidate
// pools than a single-hop search. A failed decomposition degrades to one hop
// over the original question. Candidates are merged by first-seen chunk id in
// hop order; the context keeps one labelled block per hop so drafting can
// attribute evidence to the hop that produced it.
func (m *MultiHop) Run(ctx context.Context, question string) (HopSet, error) {
	subs, err := m.lm.Decompose(ctx, question, m.cfg.MaxSubQuestions)
	if err != nil || len(subs) == 0 {
		if err != nil {
			log.Printf("Warning: decomposition failed, retrieving for the question as-is: %v", err)
		}
		subs = []string{question}
	}

	set := HopSet{
		SubQuestions: subs,
		PerHopIDs:    make([][]string, 0, len(subs)),
	}
	seen := make(map[string]bool)
	var blocks []string

	for _, sub := range subs {
		cands, err := m.searcher.Search(ctx, sub, m.cfg.MultiHopLexicalTopN, m.cfg.MultiHopVectorTopN)
		if err != nil {
			return HopSet{}, fmt.Errorf("sub-question %q: %w", sub, err)
		}
		hop := m.reranker.Rerank(ctx, sub, cands, m.cfg.MultiHopTopK)

		set.PerHopIDs = append(set.PerHopIDs, retrievedIDs(hop))
		for _, r := range hop {
			if !seen[r.Chunk.ID] {
				seen[r.Chunk.ID] = true
				set.Merged = append(set.Merged, r)
			}
		}
		blocks = append(blocks, "SUBQ: "+sub+"\n"+contextBlocks(hop, len(hop)))
	}

	set.Context = strings.Join(blocks, "\n\n")
	return set, nil
}
