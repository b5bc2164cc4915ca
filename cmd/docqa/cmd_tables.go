package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/lm"
	"github.com/DreamCats/docqa/internal/tools"
)

// handleTables implements the tables subcommand
func handleTables(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("tables", flag.ExitOnError)

	var tablesDir, outPath string
	fs.StringVar(&tablesDir, "dir", "", "CSV tables directory (overrides config)")
	fs.StringVar(&outPath, "out", "", "Table index output path (overrides config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa tables [options]

DESCRIPTION:
    Load the CSV tables, classify each table's domain with the language
    model, and write the table index used to route SQL questions.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Build the table index configured in docqa.yaml
    docqa tables

    # Custom directory and output
    docqa tables -dir ./data/tables -out ./data/table_index.json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if tablesDir != "" {
		cfg.Tools.TablesDir = tablesDir
	}
	if outPath != "" {
		cfg.Tools.TableIndexPath = outPath
	}
	if cfg.Tools.TablesDir == "" {
		fmt.Fprintf(os.Stderr, "Error: no tables directory configured (set tools.tables_dir or pass -dir)\n\n")
		fs.Usage()
		os.Exit(1)
	}
	if cfg.Tools.TableIndexPath == "" {
		fmt.Fprintf(os.Stderr, "Error: no table index path configured (set tools.table_index_path or pass -out)\n\n")
		fs.Usage()
		os.Exit(1)
	}

	db, err := tools.OpenDB(cfg.Tools.MaxResultChars)
	if err != nil {
		log.Fatalf("Failed to open tool database: %v", err)
	}
	defer db.Close()

	loaded, err := db.LoadCSVDir(context.Background(), cfg.Tools.TablesDir)
	if err != nil {
		log.Fatalf("Failed to load tables: %v", err)
	}
	if loaded == 0 {
		fmt.Printf("No CSV tables found in %s\n", cfg.Tools.TablesDir)
		return
	}
	fmt.Printf("Loaded %d table(s) from %s\n", loaded, cfg.Tools.TablesDir)

	model, err := lm.NewClient(&cfg.LM)
	if err != nil {
		log.Fatalf("Failed to create LM client: %v", err)
	}

	infos, err := tools.BuildTableIndex(context.Background(), db, model)
	if err != nil {
		log.Fatalf("Failed to build table index: %v", err)
	}

	if err := tools.SaveTableIndex(cfg.Tools.TableIndexPath, infos); err != nil {
		log.Fatalf("Failed to save table index: %v", err)
	}

	for _, info := range infos {
		fmt.Printf("  %s (%s): %s\n", info.Alias, info.Domain, info.Description)
	}
	fmt.Printf("Table index written to %s\n", cfg.Tools.TableIndexPath)
}
