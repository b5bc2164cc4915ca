package mcpserver

import "github.com/DreamCats/docqa/internal/pipeline"

// AskInput defines inputs for the docqa_ask MCP tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed corpus"`
}

// AskOutput is the output for docqa_ask.
type AskOutput struct {
	Answer string          `json:"answer"`
	Trace  *pipeline.Trace `json:"trace"`
}

// SearchInput defines inputs for the docqa_search MCP tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"search query (natural language or keywords)"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"number of chunks to return"`
}

// SearchResultItem is a compact representation of one retrieved chunk.
type SearchResultItem struct {
	ID          string  `json:"id"`
	DocID       string  `json:"doc_id"`
	Text        string  `json:"text"`
	LexScore    float64 `json:"lex_score"`
	VecScore    float64 `json:"vec_score"`
	FusedScore  float64 `json:"fused_score"`
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// SearchOutput is the output for docqa_search.
type SearchOutput struct {
	Query   string             `json:"query"`
	Count   int                `json:"count"`
	Results []SearchResultItem `json:"results"`
}
