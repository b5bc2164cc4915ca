package pipeline

import (
	"github.com/DreamCats/docqa/internal/retrieval"
	"github.com/DreamCats/docqa/internal/tools"
)

// Trace is the full per-question record handed back to the caller. The field
// names are part of the wire contract consumed by the web UI and the eval
// harness.
type Trace struct {
	Plan            string         `json:"plan"`
	Retrieval       RetrievalTrace `json:"retrieval"`
	Tools           []ToolTrace    `json:"tools"`
	Verify          VerifyTrace    `json:"verify"`
	TTFTMillis      float64        `json:"ttft_ms"`
	TokensPerSecond float64        `json:"toks_per_s"`
	TotalMillis     float64        `json:"total_ms"`
	Answer          string         `json:"answer"`
	Multi           *MultiTrace    `json:"multi,omitempty"`
}

// RetrievalTrace records the retrieval stage: latency, result width, and the
// final candidate list in rank order.
type RetrievalTrace struct {
	TookMillis float64               `json:"took_ms"`
	K          int                   `json:"k"`
	IDs        []string              `json:"ids"`
	Items      []retrieval.Retrieved `json:"items"`
}

// ToolTrace records one tool invocation without its payload.
type ToolTrace struct {
	Name          string  `json:"name"`
	Ok            bool    `json:"ok"`
	LatencyMillis float64 `json:"latency_ms"`
}

// VerifyTrace records the attribution outcome of the final answer.
type VerifyTrace struct {
	Claims    int     `json:"claims"`
	Supported int     `json:"supported"`
	Precision float64 `json:"p"`
}

// MultiTrace records the decomposition of a multi-hop question.
type MultiTrace struct {
	SubQuestions []string   `json:"subquestions"`
	PerHopIDs    [][]string `json:"per_hop_ids"`
}

func toolTraces(invocations []tools.Invocation) []ToolTrace {
	if len(invocations) == 0 {
		return []ToolTrace{}
	}
	out := make([]ToolTrace, len(invocations))
	for i, inv := range invocations {
		out[i] = ToolTrace{Name: inv.Name, Ok: inv.Ok, LatencyMillis: inv.LatencyMillis}
	}
	return out
}

func retrievedIDs(items []retrieval.Retrieved) []string {
	ids := make([]string, len(items))
	for i, r := range items {
		ids[i] = r.Chunk.ID
	}
	return ids
}
