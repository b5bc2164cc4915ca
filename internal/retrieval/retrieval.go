// Package retrieval provides hybrid lexical+vector search with score fusion
// and an optional embedding-based reranking pass.
package retrieval

import (
	"fmt"

	"github.com/DreamCats/docqa/internal/chunk"
)

// Retrieved is one candidate chunk with its per-channel and fused scores.
// Created transiently per query, never persisted.
type Retrieved struct {
	Chunk       chunk.Chunk `json:"chunk"`
	LexScore    float64     `json:"lex_score"`
	VecScore    float64     `json:"vec_score"`
	FusedScore  float64     `json:"fused_score"`
	RerankScore float64     `json:"rerank_score,omitempty"`
}

// DimensionError is the fatal mismatch between a query embedding and the
// index it is searched against. Unlike upstream service failures it aborts
// the query: the index was built with a different embedding configuration.
type DimensionError struct {
	QueryDim int
	IndexDim int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: query=%d, index=%d; "+
		"ensure the runtime embedding model matches the one used for indexing",
		e.QueryDim, e.IndexDim)
}
