package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/evalrun"
)

// handleEval implements the eval subcommand
func handleEval(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)

	var casesPath string
	var verbose bool
	fs.StringVar(&casesPath, "cases", "", "Path to the JSON eval cases file (required)")
	fs.BoolVar(&verbose, "v", false, "Print per-case results")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa eval -cases <file>

DESCRIPTION:
    Run every evaluation case through the full pipeline and report the
    retrieval hit rate with latency percentiles. A case hits when any
    retrieved chunk belongs to one of its gold documents.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    docqa eval -cases ./eval/cases.json

    # Show each case outcome
    docqa eval -cases ./eval/cases.json -v
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if casesPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -cases is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	cases, err := evalrun.LoadCases(casesPath)
	if err != nil {
		log.Fatalf("Failed to load eval cases: %v", err)
	}
	if len(cases) == 0 {
		fmt.Println("No eval cases found")
		return
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	report, err := evalrun.Run(context.Background(), a.agent, cases)
	if err != nil {
		log.Fatalf("Eval run failed: %v", err)
	}

	if verbose {
		for _, r := range report.Results {
			mark := "MISS"
			if r.Hit {
				mark = "HIT "
			}
			fmt.Printf("  [%s] %.0fms  %s\n", mark, r.TotalMillis, r.Question)
		}
		fmt.Println()
	}

	fmt.Printf("Cases:    %d\n", report.Total)
	fmt.Printf("Hit rate: %.1f%% (%d/%d)\n", report.HitRate*100, report.Hits, report.Total)
	fmt.Printf("p50:      %.0fms\n", report.P50Millis)
	fmt.Printf("p95:      %.0fms\n", report.P95Millis)
}
