package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/lm"
	"github.com/DreamCats/docqa/internal/retrieval"
	"github.com/DreamCats/docqa/internal/tools"
)

type fakeRouter struct {
	invocations []tools.Invocation
	gotPlan     lm.Plan
}

func (f *fakeRouter) Route(ctx context.Context, question string, plan lm.Plan) []tools.Invocation {
	f.gotPlan = plan
	return f.invocations
}

func agentConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Search = config.SearchConfig{
		LexicalTopN:         100,
		VectorTopN:          200,
		LexicalWeight:       0.6,
		VectorWeight:        0.4,
		RerankTopK:          50,
		MultiHopLexicalTopN: 200,
		MultiHopVectorTopN:  400,
		MultiHopTopK:        12,
		MaxSubQuestions:     4,
	}
	cfg.Verify = config.VerifyConfig{
		PrecisionThreshold: 0.7,
		EvidenceChunks:     3,
		WideEvidenceChunks: 4,
		ResynthesisChunks:  10,
	}
	return cfg
}

func TestAgentAnswersFromRetrievedEvidence(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{
		"What is the capital of France?": {
			item("paris.txt#0", "Paris is the capital of France. It has a population of about 2.1 million."),
		},
	}}
	model := &fakeLM{
		plan:      lm.PlanSingle,
		draft:     "Paris is the capital of France. [CIT:paris.txt#0]",
		claims:    []string{"Paris is the capital of France"},
		judgments: map[string]lm.SupportJudgment{"Paris is the capital of France": {Supported: true, Probability: 0.9}},
	}
	router := &fakeRouter{}
	a := NewAgent(searcher, passReranker{}, model, router, agentConfig())

	trace, err := a.Run(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if trace.Plan != "single" {
		t.Errorf("plan = %q, want single", trace.Plan)
	}
	if len(trace.Retrieval.IDs) == 0 || trace.Retrieval.IDs[0] != "paris.txt#0" {
		t.Errorf("retrieval ids = %v, want paris.txt#0 first", trace.Retrieval.IDs)
	}
	if !strings.Contains(trace.Answer, "[CIT:paris.txt#0]") {
		t.Errorf("answer %q lacks the citation", trace.Answer)
	}
	if trace.Verify.Precision != 1 {
		t.Errorf("precision = %f, want 1", trace.Verify.Precision)
	}
	if trace.TTFTMillis <= 0 {
		t.Errorf("ttft = %f, want the stream's measurement", trace.TTFTMillis)
	}
	if trace.TotalMillis < trace.Retrieval.TookMillis {
		t.Errorf("total %fms below retrieval %fms", trace.TotalMillis, trace.Retrieval.TookMillis)
	}
	if trace.Multi != nil {
		t.Error("single-hop trace must not carry a multi block")
	}
}

func TestAgentCalcPlanRecordsToolResult(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{}}
	model := &fakeLM{
		plan:   lm.PlanNeedsCalc,
		draft:  "The result is 53.",
		claims: []string{"the result is 53"}, // unsupported by text evidence, tool vouches instead
	}
	router := &fakeRouter{invocations: []tools.Invocation{
		{Name: "math_eval", Ok: true, LatencyMillis: 2, Result: "53"},
	}}
	a := NewAgent(searcher, passReranker{}, model, router, agentConfig())

	trace, err := a.Run(context.Background(), "What is 17 * 3 + 2?")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if router.gotPlan != lm.PlanNeedsCalc {
		t.Errorf("router saw plan %q, want needs_calc", router.gotPlan)
	}
	if len(trace.Tools) != 1 || !trace.Tools[0].Ok || trace.Tools[0].Name != "math_eval" {
		t.Errorf("tool trace = %+v, want one ok math_eval entry", trace.Tools)
	}
	if model.synthesizeCalls != 0 {
		t.Error("an ok tool result must suppress resynthesis regardless of precision")
	}
}

func TestAgentMultiPlanBuildsMultiTrace(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{
		"sub a": {item("x.txt#0", "alpha evidence")},
		"sub b": {item("y.txt#0", "beta evidence")},
	}}
	model := &fakeLM{
		plan:  lm.PlanMulti,
		subs:  []string{"sub a", "sub b"},
		draft: "combined answer [CIT:x.txt#0] [CIT:y.txt#0]",
	}
	a := NewAgent(searcher, passReranker{}, model, &fakeRouter{}, agentConfig())

	trace, err := a.Run(context.Background(), "a compound question")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if trace.Multi == nil {
		t.Fatal("multi trace missing")
	}
	if len(trace.Multi.SubQuestions) != 2 || len(trace.Multi.PerHopIDs) != 2 {
		t.Errorf("multi trace = %+v, want two hops", trace.Multi)
	}
	if trace.Retrieval.K != 2 {
		t.Errorf("k = %d, want 2 merged candidates", trace.Retrieval.K)
	}
}

func TestAgentPlannerFailureDefaultsToSingle(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{}}
	model := &fakeLM{planErr: errors.New("model down"), draft: ""}
	a := NewAgent(searcher, passReranker{}, model, &fakeRouter{}, agentConfig())

	trace, err := a.Run(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if trace.Plan != "single" {
		t.Errorf("plan = %q, want the single fallback", trace.Plan)
	}
}

func TestAgentRetrievalErrorIsFatal(t *testing.T) {
	searcher := &fakeSearcher{err: &retrieval.DimensionError{QueryDim: 768, IndexDim: 1536}}
	model := &fakeLM{plan: lm.PlanSingle}
	a := NewAgent(searcher, passReranker{}, model, &fakeRouter{}, agentConfig())

	trace, err := a.Run(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected a fatal retrieval error")
	}
	if trace != nil {
		t.Error("no partial trace on total failure")
	}
	var dimErr *retrieval.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("error %v does not wrap the dimension mismatch", err)
	}
}

func TestAgentEmptyRetrievalStillAnswers(t *testing.T) {
	searcher := &fakeSearcher{results: map[string][]retrieval.Retrieved{}}
	model := &fakeLM{plan: lm.PlanSingle, draft: ""}
	a := NewAgent(searcher, passReranker{}, model, &fakeRouter{}, agentConfig())

	trace, err := a.Run(context.Background(), "unknown topic")
	if err != nil {
		t.Fatalf("empty retrieval must not fail: %v", err)
	}
	if trace.Retrieval.K != 0 || len(trace.Retrieval.IDs) != 0 {
		t.Errorf("retrieval trace = %+v, want empty", trace.Retrieval)
	}
	if trace.Verify.Precision != 1 {
		t.Errorf("precision = %f, want vacuous 1", trace.Verify.Precision)
	}
	if trace.TTFTMillis != -1 {
		t.Errorf("ttft = %f, want -1 with no tokens", trace.TTFTMillis)
	}
}

func TestTraceJSONShape(t *testing.T) {
	trace := &Trace{
		Plan:   "single",
		Tools:  []ToolTrace{},
		Verify: VerifyTrace{Claims: 1, Supported: 1, Precision: 1},
	}
	data, err := json.Marshal(trace)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"plan"`, `"retrieval"`, `"took_ms"`, `"ids"`, `"tools"`,
		`"claims"`, `"supported"`, `"p"`, `"ttft_ms"`, `"toks_per_s"`, `"total_ms"`, `"answer"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("trace JSON missing %s: %s", key, data)
		}
	}
	if strings.Contains(string(data), `"multi"`) {
		t.Errorf("empty multi block should be omitted: %s", data)
	}
}
