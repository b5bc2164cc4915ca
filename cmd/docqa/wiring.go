package main

import (
	"context"
	"fmt"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/embedding"
	"github.com/DreamCats/docqa/internal/index"
	"github.com/DreamCats/docqa/internal/lm"
	"github.com/DreamCats/docqa/internal/pipeline"
	"github.com/DreamCats/docqa/internal/retrieval"
	"github.com/DreamCats/docqa/internal/tools"
)

// app holds the long-lived components behind a question answering session
type app struct {
	cfg      *config.Config
	store    *index.Store
	searcher *retrieval.Searcher
	reranker *retrieval.Reranker
	model    *lm.Client
	toolDB   *tools.DB
	agent    *pipeline.Agent
}

// newApp loads the index and wires up retrieval, reranking, the LM client,
// the tool router, and the agent
func newApp(cfg *config.Config) (*app, error) {
	store, err := index.Load(cfg.Index.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load index from %s (run `docqa index` first): %w", cfg.Index.Dir, err)
	}

	embedSvc, err := embedding.NewService(&cfg.Embedding)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	model, err := lm.NewClient(&cfg.LM)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create LM client: %w", err)
	}

	searcher := retrieval.NewSearcher(store, embedSvc, cfg.Search.LexicalWeight, cfg.Search.VectorWeight)
	reranker := retrieval.NewReranker(&cfg.Rerank)

	var toolDB *tools.DB
	if cfg.Tools.TablesDir != "" {
		toolDB, err = tools.OpenDB(cfg.Tools.MaxResultChars)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to open tool database: %w", err)
		}
		if _, err := toolDB.LoadCSVDir(context.Background(), cfg.Tools.TablesDir); err != nil {
			toolDB.Close()
			store.Close()
			return nil, fmt.Errorf("failed to load tables from %s: %w", cfg.Tools.TablesDir, err)
		}
	}

	tables, err := tools.LoadTableIndex(cfg.Tools.TableIndexPath)
	if err != nil {
		if toolDB != nil {
			toolDB.Close()
		}
		store.Close()
		return nil, fmt.Errorf("failed to load table index: %w", err)
	}

	router := tools.NewRouter(model, toolDB, tables)
	agent := pipeline.NewAgent(searcher, reranker, model, router, cfg)

	return &app{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		reranker: reranker,
		model:    model,
		toolDB:   toolDB,
		agent:    agent,
	}, nil
}

// Close releases the index and the tool database
func (a *app) Close() {
	if a.toolDB != nil {
		a.toolDB.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}
