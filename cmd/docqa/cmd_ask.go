package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/pipeline"
)

// handleAsk implements the ask subcommand
func handleAsk(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)

	var jsonOutput bool
	fs.BoolVar(&jsonOutput, "json", false, "Output the full trace as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa ask [options] "<question>"

DESCRIPTION:
    Answer a single question against the local document index.
    Prints the answer, pipeline metrics, and the cited chunk ids.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Ask a question
    docqa ask "When was the Eiffel Tower built?"

    # Full trace as JSON for scripting
    docqa ask "What is 17 * 3 + 2?" -json
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: question is required\n\n")
		fs.Usage()
		os.Exit(1)
	}
	question := fs.Arg(0)

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	trace, err := a.agent.Run(context.Background(), question)
	if err != nil {
		log.Fatalf("Ask failed: %v", err)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(trace, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal trace: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	printTrace(trace)
}

// printTrace prints the answer, the metrics block, and the citation list
func printTrace(trace *pipeline.Trace) {
	fmt.Println("\n=== ANSWER ===")
	fmt.Println(trace.Answer)

	fmt.Println("\n=== METRICS ===")
	fmt.Printf("  plan:              %s\n", trace.Plan)
	fmt.Printf("  ttft_ms:           %.0f\n", trace.TTFTMillis)
	fmt.Printf("  toks_per_s:        %.1f\n", trace.TokensPerSecond)
	fmt.Printf("  retrieval_ms:      %.0f\n", trace.Retrieval.TookMillis)
	fmt.Printf("  agent_overhead_ms: %.0f\n", trace.TotalMillis-trace.Retrieval.TookMillis)
	fmt.Printf("  claims:            %d\n", trace.Verify.Claims)
	fmt.Printf("  supported:         %d\n", trace.Verify.Supported)
	fmt.Printf("  attrP:             %.2f\n", roundHundredth(trace.Verify.Precision))

	for _, inv := range trace.Tools {
		status := "ok"
		if !inv.Ok {
			status = "failed"
		}
		fmt.Printf("  tool %s:           %s (%.0fms)\n", inv.Name, status, inv.LatencyMillis)
	}

	if trace.Multi != nil {
		fmt.Printf("  sub-questions:     %d\n", len(trace.Multi.SubQuestions))
	}

	fmt.Printf("Citations: %s\n", strings.Join(trace.Retrieval.IDs, ", "))
}

func roundHundredth(v float64) float64 {
	return math.Round(v*100) / 100
}
