package index

import (
	"testing"

	"github.com/DreamCats/docqa/internal/chunk"
)

func testChunks() []chunk.Chunk {
	return []chunk.Chunk{
		{ID: "paris.txt#0", DocID: "paris.txt", Text: "Paris is the capital of France. It has a population of about 2.1 million."},
		{ID: "berlin.txt#0", DocID: "berlin.txt", Text: "Berlin is the capital of Germany and its largest city."},
		{ID: "rome.txt#0", DocID: "rome.txt", Text: "Rome is the capital of Italy, famous for ancient ruins."},
	}
}

func TestMemStoreLexicalSearch(t *testing.T) {
	store, err := NewMemStore(testChunks(), nil, 0)
	if err != nil {
		t.Fatalf("NewMemStore: %v", err)
	}
	defer store.Close()

	hits, err := store.LexicalSearch("capital of France", 10)
	if err != nil {
		t.Fatalf("LexicalSearch: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("no lexical hits")
	}
	if hits[0].ID != "paris.txt#0" {
		t.Errorf("top hit = %s, want paris.txt#0", hits[0].ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted descending at %d", i)
		}
	}
}

func TestVectorSearchOrdering(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.6, 0.8, 0},
	}
	store, err := NewMemStore(testChunks(), vectors, 3)
	if err != nil {
		t.Fatalf("NewMemStore: %v", err)
	}
	defer store.Close()

	hits, err := store.VectorSearch([]float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("VectorSearch: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != "paris.txt#0" {
		t.Errorf("top hit = %s, want paris.txt#0", hits[0].ID)
	}
	if hits[1].ID != "rome.txt#0" {
		t.Errorf("second hit = %s, want rome.txt#0", hits[1].ID)
	}
}

func TestVectorSearchDimensionMismatch(t *testing.T) {
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	store, err := NewMemStore(testChunks(), vectors, 3)
	if err != nil {
		t.Fatalf("NewMemStore: %v", err)
	}
	defer store.Close()

	if _, err := store.VectorSearch([]float32{1, 0}, 5); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestVectorSearchSkipsMissingVectors(t *testing.T) {
	vectors := [][]float32{{1, 0, 0}, nil, {0, 0, 1}}
	store, err := NewMemStore(testChunks(), vectors, 3)
	if err != nil {
		t.Fatalf("NewMemStore: %v", err)
	}
	defer store.Close()

	hits, err := store.VectorSearch([]float32{1, 1, 1}, 10)
	if err != nil {
		t.Fatalf("VectorSearch: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("got %d hits, want 2 (nil vector skipped)", len(hits))
	}
	for _, h := range hits {
		if h.ID == "berlin.txt#0" {
			t.Error("chunk without vector must not appear in vector hits")
		}
	}
}

func TestGet(t *testing.T) {
	store, err := NewMemStore(testChunks(), nil, 0)
	if err != nil {
		t.Fatalf("NewMemStore: %v", err)
	}
	defer store.Close()

	c, ok := store.Get("rome.txt#0")
	if !ok || c.DocID != "rome.txt" {
		t.Errorf("Get(rome.txt#0) = %+v, %v", c, ok)
	}
	if _, ok := store.Get("missing#0"); ok {
		t.Error("Get(missing) should report absence")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75, 0}
	blob, err := vectorToBlob(vec)
	if err != nil {
		t.Fatalf("vectorToBlob: %v", err)
	}
	back, err := blobToVector(blob)
	if err != nil {
		t.Fatalf("blobToVector: %v", err)
	}
	if len(back) != len(vec) {
		t.Fatalf("round trip length %d, want %d", len(back), len(vec))
	}
	for i := range vec {
		if back[i] != vec[i] {
			t.Errorf("value %d = %f, want %f", i, back[i], vec[i])
		}
	}

	if _, err := blobToVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
