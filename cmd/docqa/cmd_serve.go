package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/DreamCats/docqa/internal/config"
	"github.com/DreamCats/docqa/internal/server"
)

// handleServe implements the serve subcommand
func handleServe(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)

	var port int
	var staticDir string
	fs.IntVar(&port, "port", 0, "Listen port (overrides config)")
	fs.StringVar(&staticDir, "static", "", "Static file directory (overrides config)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `USAGE:
    docqa serve [options]

DESCRIPTION:
    Run the HTTP server. POST /api/ask answers questions; when a static
    directory is configured it is served at /.

OPTIONS:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
EXAMPLES:
    # Serve on the configured port
    docqa serve

    # Serve the web UI on port 8080
    docqa serve -port 8080 -static ./public
`)
	}

	if err := fs.Parse(args); err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	if port != 0 {
		cfg.Server.Port = port
	}
	if staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}

	a, err := newApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(a.agent, cfg.Server.StaticDir)
	if err := srv.ListenAndServe(ctx, cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
