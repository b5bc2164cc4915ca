// Package mcpserver exposes the question-answering pipeline over MCP stdio so
// agent hosts can call it as a pair of tools.
package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/pipeline"
	"github.com/DreamCats/docqa/internal/retrieval"
)

// Server exposes ask/search via MCP stdio.
type Server struct {
	agent    *pipeline.Agent
	searcher pipeline.Searcher
	reranker pipeline.Reranker
	cfg      *config.Config
	version  string
}

// New creates a new MCP server wrapper around a wired pipeline.
func New(agent *pipeline.Agent, searcher pipeline.Searcher, reranker pipeline.Reranker, cfg *config.Config, version string) *Server {
	return &Server{
		agent:    agent,
		searcher: searcher,
		reranker: reranker,
		cfg:      cfg,
		version:  version,
	}
}

// Run starts the MCP stdio server.
func (s *Server) Run(ctx context.Context) error {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "docqa",
		Title:   "DocQA",
		Version: s.version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "docqa_ask",
		Description: `Answer a question from the indexed document corpus.

Runs the full pipeline: plan classification, hybrid retrieval, optional
deterministic tools (math, SQL over loaded tables), verified drafting with
citations, and returns the answer plus its full trace (retrieval ids,
attribution precision, latencies).`,
	}, s.askTool)

	mcp.AddTool(server, &mcp.Tool{
		Name: "docqa_search",
		Description: `Search the indexed corpus without drafting an answer.

Returns the top chunks by fused lexical+vector score, reranked when a rerank
backend is configured. Use this for raw evidence lookup; use docqa_ask for a
cited answer.`,
	}, s.searchTool)

	return server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) askTool(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, AskOutput{}, fmt.Errorf("question is required")
	}

	trace, err := s.agent.Run(ctx, question)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{Answer: trace.Answer, Trace: trace}, nil
}

func (s *Server) searchTool(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, SearchOutput{}, fmt.Errorf("query is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.cfg.Search.RerankTopK
	}

	cands, err := s.searcher.Search(ctx, query, s.cfg.Search.LexicalTopN, s.cfg.Search.VectorTopN)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	results := s.reranker.Rerank(ctx, query, cands, topK)

	output := SearchOutput{
		Query:   query,
		Count:   len(results),
		Results: mapSearchResults(results),
	}
	return nil, output, nil
}

func mapSearchResults(results []retrieval.Retrieved) []SearchResultItem {
	items := make([]SearchResultItem, 0, len(results))
	for _, r := range results {
		items = append(items, SearchResultItem{
			ID:          r.Chunk.ID,
			DocID:       r.Chunk.DocID,
			Text:        r.Chunk.Text,
			LexScore:    r.LexScore,
			VecScore:    r.VecScore,
			FusedScore:  r.FusedScore,
			RerankScore: r.RerankScore,
		})
	}
	return items
}
