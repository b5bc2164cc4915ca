package index

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/DreamCats/docqa/internal/chunk"
	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/embedding"
	"github.com/bmatcuk/doublestar/v4"
)

// BuildStats summarizes one index build.
type BuildStats struct {
	Documents int
	Chunks    int
	Embedded  int
}

// Build ingests the corpus directory, chunks every document, embeds the
// chunks in batches, and writes the sqlite database plus the bleve text
// index under cfg.Index.Dir. Any existing index there is replaced.
func Build(ctx context.Context, cfg *config.Config, embed *embedding.Service, progress ProgressReporter) (*BuildStats, error) {
	if cfg.Corpus.Dir == "" {
		return nil, fmt.Errorf("corpus.dir is not configured")
	}

	files, err := listCorpusFiles(cfg.Corpus.Dir, cfg.Corpus.Include, cfg.Corpus.Exclude)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no documents matched under %s", cfg.Corpus.Dir)
	}

	var allChunks []chunk.Chunk
	docs := 0
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read document %s: %w", path, err)
		}
		docID := filepath.Base(path)
		chunks := chunk.Smart(string(data), docID)
		if len(chunks) == 0 {
			log.Printf("Warning: document %s produced no chunks, skipping", docID)
			continue
		}
		allChunks = append(allChunks, chunks...)
		docs++
	}
	if len(allChunks) == 0 {
		return nil, fmt.Errorf("corpus produced no chunks")
	}

	texts := make([]string, len(allChunks))
	ids := make([]string, len(allChunks))
	for i, c := range allChunks {
		texts[i] = c.Text
		ids[i] = c.ID
	}

	if progress != nil {
		progress.Start(len(texts))
		defer progress.Finish()
	}
	vectors, err := embedAll(ctx, embed, texts, progress)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	if err := persist(cfg.Index.Dir, allChunks, ids, vectors, cfg.Embedding.Model); err != nil {
		return nil, err
	}

	embedded := 0
	for _, v := range vectors {
		if len(v) > 0 {
			embedded++
		}
	}
	return &BuildStats{Documents: docs, Chunks: len(allChunks), Embedded: embedded}, nil
}

// listCorpusFiles walks the corpus directory and returns files matching the
// include globs and none of the exclude globs, in deterministic path order.
func listCorpusFiles(dir string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !matchesAny(include, rel) {
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk corpus dir %s: %w", dir, err)
	}
	return files, nil
}

func matchesAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
		// Bare-extension convenience: "*.txt" should match nested files too.
		if !strings.Contains(p, "/") {
			if ok, err := doublestar.Match(p, filepath.Base(rel)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// embedAll embeds texts one batch at a time so progress can tick per chunk;
// the embedding service preserves order within each call.
func embedAll(ctx context.Context, svc *embedding.Service, texts []string, progress ProgressReporter) ([][]float32, error) {
	const batch = 64
	out := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += batch {
		end := i + batch
		if end > len(texts) {
			end = len(texts)
		}
		vecs, err := svc.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
		if progress != nil {
			for range vecs {
				progress.Increment()
			}
		}
	}
	return out, nil
}

// persist writes chunks and vectors to sqlite and rebuilds the text index.
func persist(dir string, chunks []chunk.Chunk, ids []string, vectors [][]float32, model string) error {
	db, err := openDB(filepath.Join(dir, "docqa.db"))
	if err != nil {
		return fmt.Errorf("open index database: %w", err)
	}
	defer db.Close()

	if err := db.reset(); err != nil {
		return err
	}
	if err := db.insertChunks(chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}
	if err := db.insertVectors(ids, vectors, model); err != nil {
		return fmt.Errorf("persist vectors: %w", err)
	}

	text, err := createTextIndex(filepath.Join(dir, "text"))
	if err != nil {
		return err
	}
	defer text.Close()

	batch := text.NewBatch()
	for _, c := range chunks {
		if err := batch.Index(c.ID, textDoc{DocID: c.DocID, Text: c.Text}); err != nil {
			return fmt.Errorf("index chunk %s: %w", c.ID, err)
		}
	}
	if err := text.Batch(batch); err != nil {
		return fmt.Errorf("commit text index batch: %w", err)
	}
	return nil
}
