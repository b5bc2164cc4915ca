package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/DreamCats/docqa/internal/index"
)

const normEps = 1e-9

// Embedder is the single-text embedding capability the searcher needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher fuses a lexical ranked search and a vector similarity search over
// one index into a single candidate ranking.
type Searcher struct {
	store     *index.Store
	embed     Embedder
	lexWeight float64
	vecWeight float64
}

// NewSearcher creates a hybrid searcher. Weights are tunable constants, not
// derived values; 0.6/0.4 is the shipped default.
func NewSearcher(store *index.Store, embed Embedder, lexWeight, vecWeight float64) *Searcher {
	if lexWeight == 0 && vecWeight == 0 {
		lexWeight, vecWeight = 0.6, 0.4
	}
	return &Searcher{store: store, embed: embed, lexWeight: lexWeight, vecWeight: vecWeight}
}

// Weights returns the fusion weight pair.
func (s *Searcher) Weights() (lex, vec float64) {
	return s.lexWeight, s.vecWeight
}

// Search runs both channels, min-max normalizes each score column across the
// union of hits, and returns candidates sorted by descending fused score.
// An empty union is a valid empty result, not an error. A query embedding
// whose dimensionality differs from the index aborts with *DimensionError
// before any vector search runs.
func (s *Searcher) Search(ctx context.Context, query string, lexTopN, vecTopN int) ([]Retrieved, error) {
	lexHits, err := s.store.LexicalSearch(query, lexTopN)
	if err != nil {
		return nil, fmt.Errorf("lexical channel: %w", err)
	}

	qvec, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != s.store.Dimension() {
		return nil, &DimensionError{QueryDim: len(qvec), IndexDim: s.store.Dimension()}
	}

	vecHits, err := s.store.VectorSearch(qvec, vecTopN)
	if err != nil {
		return nil, fmt.Errorf("vector channel: %w", err)
	}

	return s.fuse(lexHits, vecHits), nil
}

// fuse combines the two hit lists. Ids missing from one channel score raw 0
// there before normalization. Ties on fused score break by original lexical
// rank, then chunk id, so rankings are deterministic.
func (s *Searcher) fuse(lexHits, vecHits []index.Hit) []Retrieved {
	lexScore := make(map[string]float64, len(lexHits))
	lexRank := make(map[string]int, len(lexHits))
	for i, h := range lexHits {
		lexScore[h.ID] = h.Score
		lexRank[h.ID] = i
	}
	vecScore := make(map[string]float64, len(vecHits))
	for _, h := range vecHits {
		vecScore[h.ID] = h.Score
	}

	ids := make([]string, 0, len(lexScore)+len(vecScore))
	seen := make(map[string]bool)
	for _, h := range lexHits {
		if !seen[h.ID] {
			seen[h.ID] = true
			ids = append(ids, h.ID)
		}
	}
	for _, h := range vecHits {
		if !seen[h.ID] {
			seen[h.ID] = true
			ids = append(ids, h.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	normLex := normalizeColumn(ids, lexScore)
	normVec := normalizeColumn(ids, vecScore)

	results := make([]Retrieved, 0, len(ids))
	for _, id := range ids {
		c, ok := s.store.Get(id)
		if !ok {
			continue
		}
		results = append(results, Retrieved{
			Chunk:      c,
			LexScore:   lexScore[id],
			VecScore:   vecScore[id],
			FusedScore: s.lexWeight*normLex[id] + s.vecWeight*normVec[id],
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.FusedScore != b.FusedScore {
			return a.FusedScore > b.FusedScore
		}
		ra, aok := lexRank[a.Chunk.ID]
		rb, bok := lexRank[b.Chunk.ID]
		if aok && bok && ra != rb {
			return ra < rb
		}
		if aok != bok {
			return aok
		}
		return a.Chunk.ID < b.Chunk.ID
	})
	return results
}

// normalizeColumn min-max normalizes one score column across the id union.
// When every score is equal the epsilon keeps the division defined and the
// whole column collapses to zero.
func normalizeColumn(ids []string, scores map[string]float64) map[string]float64 {
	min, max := 0.0, 0.0
	first := true
	for _, id := range ids {
		v := scores[id]
		if first {
			min, max = v, v
			first = false
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	out := make(map[string]float64, len(ids))
	for _, id := range ids {
		out[id] = (scores[id] - min) / (max - min + normEps)
	}
	return out
}
