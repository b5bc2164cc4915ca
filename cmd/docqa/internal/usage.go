package internal

import (
	"fmt"
	"os"
)

const Version = "0.3.0"

// PrintUsage 向 stderr 输出 docqa 的用法与可用子命令列表。
func PrintUsage() {
	fmt.Fprintf(os.Stderr, `docqa - Agentic Document Question Answering

Version: %s

USAGE:
    docqa [global options] <command> [command options]

GLOBAL OPTIONS:
    -config <path>
        Path to config file (default: ~/.docqa/config/docqa.yaml)

    -v, -version
        Show version information

    -h, -help
        Show this help message

COMMANDS:
    index
        Build the hybrid retrieval index from the document corpus

    tables
        Build the table index for the SQL tool from CSV files

    ask
        Answer a single question with citations and a trace

    chat
        Interactive question answering session

    serve
        Run the HTTP API and web UI

    mcp
        Run MCP stdio server (tools: docqa_ask, docqa_search)

    eval
        Run retrieval evaluation cases and report hit rate and latency

EXAMPLES:
    # Index the configured corpus
    docqa index

    # Ask a question
    docqa ask "What is the capital of France?"

    # Interactive session
    docqa chat

    # Serve the web UI on the configured port
    docqa serve

    # Run MCP server over stdio
    docqa mcp

    # Evaluate retrieval quality
    docqa eval -cases data/eval/eval.json

For detailed help on each command, use:
    docqa <command> -help
`, Version)
}
