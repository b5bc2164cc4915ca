package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/DreamCats/docqa/internal/config"
)

// handleChat implements the chat subcommand
func handleChat(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa chat

DESCRIPTION:
    Interactive question answering session against the local index.
    Each question runs the full pipeline and prints the answer with
    metrics. Type /exit to quit, /help for help.

EXAMPLES:
    docqa chat
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

	fmt.Println("Agentic RAG Chat. Type your question and press Enter. (/help for help)")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("Q> ")
		if !scanner.Scan() {
			break
		}
		q := strings.TrimSpace(scanner.Text())
		if q == "" {
			continue
		}
		if q == "/exit" {
			break
		}
		if q == "/help" {
			fmt.Println("Commands: /exit to quit, /help to show this message")
			continue
		}

		trace, err := a.agent.Run(context.Background(), q)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		printTrace(trace)
	}

	fmt.Println("\nBye")
}
