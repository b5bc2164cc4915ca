package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/docqa/cmd/docqa/internal"
	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/mcpserver"
)

// handleMCP implements the MCP stdio server subcommand
func handleMCP(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa mcp

DESCRIPTION:
    Run an MCP stdio server exposing:
      - docqa_ask
      - docqa_search
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	server := mcpserver.New(a.agent, a.searcher, a.reranker, cfg, internal.Version)
	if err := server.Run(context.Background()); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
