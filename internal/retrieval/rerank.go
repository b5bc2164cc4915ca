package retrieval

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/embedding"
)

// Reranker re-scores a shortlist of fused candidates by cosine similarity
// between query and passage embeddings. It is an optional quality
// improvement: without a configured backend, or when the backend fails, it
// returns the first k fused candidates unchanged.
type Reranker struct {
	client   embedding.Client
	maxChars int
	workers  int
}

// NewReranker creates a reranker from configuration. An empty model disables
// reranking entirely.
func NewReranker(cfg *config.RerankConfig) *Reranker {
	r := &Reranker{maxChars: cfg.MaxChars, workers: cfg.Workers}
	if r.maxChars <= 0 {
		r.maxChars = 400
	}
	if r.workers <= 0 {
		r.workers = 8
	}
	if cfg.Model == "" {
		return r
	}

	client, err := embedding.NewComparisonClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
	if err != nil {
		log.Printf("Warning: rerank backend unavailable, reranking disabled: %v", err)
		return r
	}
	r.client = client
	return r
}

// NewRerankerWithClient creates a reranker over an explicit embedding client.
func NewRerankerWithClient(client embedding.Client, maxChars, workers int) *Reranker {
	if maxChars <= 0 {
		maxChars = 400
	}
	if workers <= 0 {
		workers = 8
	}
	return &Reranker{client: client, maxChars: maxChars, workers: workers}
}

// Enabled reports whether a rerank backend is configured.
func (r *Reranker) Enabled() bool { return r.client != nil }

// Rerank re-scores the top max(3k, 30) candidates and returns the k best by
// rerank score. Passage embeddings are fetched concurrently; they are
// independent reads with no shared state. Never returns an error: every
// failure degrades to the fused order.
func (r *Reranker) Rerank(ctx context.Context, query string, cands []Retrieved, k int) []Retrieved {
	if k <= 0 || k > len(cands) {
		k = len(cands)
	}
	if r.client == nil || len(cands) == 0 {
		return cands[:k]
	}

	shortlist := 3 * k
	if shortlist < 30 {
		shortlist = 30
	}
	if shortlist > len(cands) {
		shortlist = len(cands)
	}
	top := make([]Retrieved, shortlist)
	copy(top, cands[:shortlist])

	qvec, err := r.embedText(ctx, query)
	if err != nil {
		log.Printf("Warning: rerank query embedding failed, keeping fused order: %v", err)
		return cands[:k]
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, r.workers)
	for i := range top {
		wg.Add(1)
		sem <- struct{}{}
		go func(cand *Retrieved) {
			defer wg.Done()
			defer func() { <-sem }()
			pvec, err := r.embedText(ctx, cand.Chunk.Text)
			if err != nil {
				cand.RerankScore = 0
				return
			}
			cand.RerankScore = float64(embedding.Cosine(qvec, pvec))
		}(&top[i])
	}
	wg.Wait()

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].RerankScore > top[j].RerankScore
	})
	if len(top) > k {
		top = top[:k]
	}
	return top
}

// embedText truncates to the rerank character budget before embedding.
func (r *Reranker) embedText(ctx context.Context, text string) ([]float32, error) {
	if len(text) > r.maxChars {
		text = text[:r.maxChars]
	}
	return r.client.Embed(ctx, text)
}
