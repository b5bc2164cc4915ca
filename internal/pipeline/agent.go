// Package pipeline orchestrates one question through planning, retrieval,
// tool routing, verified drafting, and trace assembly.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/lm"
	"github.com/DreamCats/docqa/internal/retrieval"
	"github.com/DreamCats/docqa/internal/tools"
)

// draftContextChunks is how many top chunks feed the initial draft; a
// resynthesis widens this to the configured resynthesis window.
const draftContextChunks = 5

// Searcher runs a hybrid query against the index.
type Searcher interface {
	Search(ctx context.Context, query string, lexTopN, vecTopN int) ([]retrieval.Retrieved, error)
}

// Reranker re-orders fused candidates and truncates to k.
type Reranker interface {
	Rerank(ctx context.Context, query string, cands []retrieval.Retrieved, k int) []retrieval.Retrieved
}

// ToolRouter dispatches a planned question to its deterministic backend.
type ToolRouter interface {
	Route(ctx context.Context, question string, plan lm.Plan) []tools.Invocation
}

// LM is the full language-model surface the pipeline consumes.
type LM interface {
	PlannerLM
	DecomposeLM
	VerifyLM
}

// Agent owns one wired pipeline instance. All collaborators are injected;
// the agent holds no global state, so independent instances can serve
// different corpora concurrently.
type Agent struct {
	searcher Searcher
	reranker Reranker
	lm       LM
	router   ToolRouter
	cfg      *config.Config

	multiHop *MultiHop
	verifier *Verifier
}

func NewAgent(searcher Searcher, reranker Reranker, model LM, router ToolRouter, cfg *config.Config) *Agent {
	return &Agent{
		searcher: searcher,
		reranker: reranker,
		lm:       model,
		router:   router,
		cfg:      cfg,
		multiHop: NewMultiHop(searcher, reranker, model, &cfg.Search),
		verifier: NewVerifier(model, &cfg.Verify),
	}
}

// Run answers one question and returns its trace. Upstream model and tool
// failures degrade the answer and show up in the trace metrics; only
// retrieval failures, dimension mismatches chief among them, surface as
// errors.
func (a *Agent) Run(ctx context.Context, question string) (*Trace, error) {
	start := time.Now()
	plan := ResolvePlan(ctx, a.lm, question)

	retrievalStart := time.Now()
	var (
		items        []retrieval.Retrieved
		draftContext string
		multi        *MultiTrace
	)
	if plan == lm.PlanMulti {
		set, err := a.multiHop.Run(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("multi-hop retrieval: %w", err)
		}
		items = set.Merged
		draftContext = set.Context
		multi = &MultiTrace{SubQuestions: set.SubQuestions, PerHopIDs: set.PerHopIDs}
	} else {
		cands, err := a.searcher.Search(ctx, question, a.cfg.Search.LexicalTopN, a.cfg.Search.VectorTopN)
		if err != nil {
			return nil, fmt.Errorf("retrieval: %w", err)
		}
		items = a.reranker.Rerank(ctx, question, cands, a.cfg.Search.RerankTopK)
		draftContext = contextBlocks(items, draftContextChunks)
	}
	retrievalMillis := float64(time.Since(retrievalStart)) / float64(time.Millisecond)

	invocations := a.router.Route(ctx, question, plan)
	toolText, toolOK := summarizeTools(invocations)

	verified := a.verifier.Run(ctx, question, draftContext, items, toolText, toolOK)

	return &Trace{
		Plan: string(plan),
		Retrieval: RetrievalTrace{
			TookMillis: retrievalMillis,
			K:          len(items),
			IDs:        retrievedIDs(items),
			Items:      items,
		},
		Tools: toolTraces(invocations),
		Verify: VerifyTrace{
			Claims:    verified.Claims,
			Supported: verified.Supported,
			Precision: verified.Precision,
		},
		TTFTMillis:      verified.TTFTMillis,
		TokensPerSecond: verified.TokensPerSecond,
		TotalMillis:     float64(time.Since(start)) / float64(time.Millisecond),
		Answer:          verified.Answer,
		Multi:           multi,
	}, nil
}

// summarizeTools renders tool results for the drafting context and reports
// whether any tool returned an authoritative result.
func summarizeTools(invocations []tools.Invocation) (text string, ok bool) {
	var lines []string
	for _, inv := range invocations {
		lines = append(lines, fmt.Sprintf("%s: %s", inv.Name, inv.Result))
		if inv.Ok {
			ok = true
		}
	}
	return strings.Join(lines, "\n"), ok
}
