// Package index builds and loads the corpus index: chunk metadata and
// embedding vectors persisted in sqlite, plus a bleve full-text index for
// lexical ranked retrieval. A loaded Store is read-only; rebuilding requires
// re-running ingestion.
package index

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/DreamCats/docqa/internal/chunk"
	"github.com/blevesearch/bleve/v2"
)

// Hit is a (chunk id, score) pair from one retrieval channel.
type Hit struct {
	ID    string
	Score float64
}

// Store holds the loaded corpus index. Safe for concurrent reads; never
// mutated after Load.
type Store struct {
	chunks  []chunk.Chunk
	byID    map[string]int
	vectors [][]float32 // aligned with chunks; nil entry when embedding failed
	dim     int
	text    bleve.Index
}

// Load opens the index stored under dir (sqlite database plus bleve text
// index) and verifies that all vectors share one dimensionality.
func Load(dir string) (*Store, error) {
	db, err := openDB(filepath.Join(dir, "docqa.db"))
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}
	defer db.Close()

	chunks, err := db.loadChunks()
	if err != nil {
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("index at %s contains no chunks; run `docqa index` first", dir)
	}

	vectorsByID, dim, err := db.loadVectors()
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}

	text, err := bleve.Open(filepath.Join(dir, "text"))
	if err != nil {
		return nil, fmt.Errorf("open text index: %w", err)
	}

	byID := make(map[string]int, len(chunks))
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = i
		vectors[i] = vectorsByID[c.ID]
	}

	return &Store{chunks: chunks, byID: byID, vectors: vectors, dim: dim, text: text}, nil
}

// NewMemStore builds an in-memory Store from chunks and (optionally) their
// vectors. Used by tests and by callers that index on the fly.
func NewMemStore(chunks []chunk.Chunk, vectors [][]float32, dim int) (*Store, error) {
	if vectors != nil && len(vectors) != len(chunks) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	text, err := bleve.NewMemOnly(buildTextMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory text index: %w", err)
	}
	for _, c := range chunks {
		if err := text.Index(c.ID, textDoc{DocID: c.DocID, Text: c.Text}); err != nil {
			return nil, fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}

	byID := make(map[string]int, len(chunks))
	for i, c := range chunks {
		byID[c.ID] = i
	}
	if vectors == nil {
		vectors = make([][]float32, len(chunks))
	}

	return &Store{chunks: chunks, byID: byID, vectors: vectors, dim: dim, text: text}, nil
}

// Close releases the underlying text index.
func (s *Store) Close() error {
	if s.text == nil {
		return nil
	}
	return s.text.Close()
}

// Count returns the number of chunks in the corpus.
func (s *Store) Count() int { return len(s.chunks) }

// Dimension returns the embedding dimensionality of the vector index.
func (s *Store) Dimension() int { return s.dim }

// Get returns the chunk with the given id.
func (s *Store) Get(id string) (chunk.Chunk, bool) {
	i, ok := s.byID[id]
	if !ok {
		return chunk.Chunk{}, false
	}
	return s.chunks[i], true
}

// LexicalSearch runs a ranked full-text query and returns up to topN hits in
// descending score order.
func (s *Store) LexicalSearch(query string, topN int) ([]Hit, error) {
	if topN <= 0 {
		topN = 10
	}

	match := bleve.NewMatchQuery(query)
	match.SetField("text")
	req := bleve.NewSearchRequestOptions(match, topN, 0, false)

	res, err := s.text.Search(req)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// VectorSearch scores every indexed vector by inner product against the query
// vector and returns the topN in descending order. Vectors are stored
// normalized, so inner product equals cosine similarity. The scan is exact.
func (s *Store) VectorSearch(query []float32, topN int) ([]Hit, error) {
	if len(query) != s.dim {
		return nil, fmt.Errorf("query vector dimension %d does not match index dimension %d", len(query), s.dim)
	}
	if topN <= 0 {
		topN = 10
	}

	hits := make([]Hit, 0, len(s.chunks))
	for i, vec := range s.vectors {
		if vec == nil {
			continue
		}
		var dot float32
		for j := range vec {
			dot += vec[j] * query[j]
		}
		hits = append(hits, Hit{ID: s.chunks[i].ID, Score: float64(dot)})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, nil
}
