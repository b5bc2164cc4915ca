package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/embedding"
	"github.com/DreamCats/docqa/internal/index"
)

// handleIndex implements the index subcommand
func handleIndex(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)

	var corpusDir string
	var noProgress bool
	fs.StringVar(&corpusDir, "corpus", "", "Corpus directory (overrides config)")
	fs.BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa index [options]

DESCRIPTION:
    Chunk the corpus documents, embed every chunk, and write the
    searchable index. Any existing index is replaced.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Index the corpus configured in docqa.yaml
    docqa index

    # Index a different directory
    docqa index -corpus ./docs
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if corpusDir != "" {
		cfg.Corpus.Dir = corpusDir
	}
	if cfg.Corpus.Dir == "" {
		fmt.Fprintf(os.Stderr, "Error: no corpus directory configured (set corpus.dir or pass -corpus)\n\n")
		fs.Usage()
		os.Exit(1)
	}

	embedSvc, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding service: %v", err)
	}

	progress := index.NewBuildProgress(index.DefaultProgressEnabled() && !noProgress)

	start := time.Now()
	stats, err := index.Build(context.Background(), cfg, embedSvc, progress)
	if err != nil {
		log.Fatalf("Indexing failed: %v", err)
	}

	fmt.Printf("\nIndexing complete in %.1fs\n", time.Since(start).Seconds())
	fmt.Printf("  Documents: %d\n", stats.Documents)
	fmt.Printf("  Chunks:    %d\n", stats.Chunks)
	fmt.Printf("  Embedded:  %d\n", stats.Embedded)
	fmt.Printf("  Index dir: %s\n", cfg.Index.Dir)
}
