package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pcidash/pcidash/pkg/defaults"
	"github.com/pcidash/pcidash/pkg/mcpserver"
	"github.com/pcidash/pcidash/pkg/ui"
)

// runMCP starts the MCP (Model Context Protocol) server.
// Supports two transport modes:
//   - -stdio (default): For IDE integrations (VS Code, Claude Desktop, Cursor)
//   - -http <addr>:     Streamable HTTP for remote/Docker deployments
func runMCP() {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfg := loadConfig()
	var df DataFlags
	df.Register(fs, cfg)
	stdio := fs.Bool("stdio", true, "Use stdio transport (default, for IDE integration)")
	httpAddr := fs.String("http", "", "HTTP address to listen on (e.g. :8811). Disables stdio.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pcidash mcp [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Start an MCP server exposing the compliance dashboard to AI clients.\n")
		fmt.Fprintf(os.Stderr, "Every tool is a read-only query over the loaded data set.\n\n")
		fmt.Fprintf(os.Stderr, "Transports:\n")
		fmt.Fprintf(os.Stderr, "  -stdio           Stdio transport for IDE integration (default)\n")
		fmt.Fprintf(os.Stderr, "  -http <addr>     Streamable HTTP transport for remote/Docker\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_DATA_DIR   Data directory (same as -data)\n")
		fmt.Fprintf(os.Stderr, "  PCIDASH_HTTP_ADDR  HTTP listen address (same as -http)\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  pcidash mcp -stdio\n")
		fmt.Fprintf(os.Stderr, "  pcidash mcp -http %s\n", defaults.MCPHTTPAddr)
		fmt.Fprintf(os.Stderr, "  PCIDASH_DATA_DIR=/var/lib/pcidash pcidash mcp -http %s\n\n", defaults.MCPHTTPAddr)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitUserError)
	}

	df.Apply()

	// Allow env var override for the HTTP address (useful in Docker/K8s)
	if *httpAddr == "" {
		if envAddr := os.Getenv("PCIDASH_HTTP_ADDR"); envAddr != "" {
			*httpAddr = envAddr
		}
	}

	// Startup validation: the data set must load before a client connects.
	ds, err := df.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		fmt.Fprintf(os.Stderr, "hint: set -data or PCIDASH_DATA_DIR to the directory containing the input files, or pass -demo\n")
		os.Exit(defaults.ExitLoadError)
	}
	warnSummaryMismatch(ds)
	fmt.Fprintf(os.Stderr, "%s data loaded: %d requirements, %d controls, %d findings (snapshot %s)\n",
		ui.ServerID(), len(ds.Catalog.Requirements), len(ds.Snapshot.Controls),
		len(ds.Findings), ds.Snapshot.SnapshotDate)

	srv, err := mcpserver.New(ds, mcpserver.Options{Source: df.Source()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(defaults.ExitInternalError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *httpAddr != "" {
		// HTTP transport mode
		*stdio = false

		httpSrv := &http.Server{
			Addr:              *httpAddr,
			Handler:           srv.HTTPHandler(),
			ReadHeaderTimeout: defaults.ReadHeaderTimeout,
			ReadTimeout:       30 * time.Second,
			// WriteTimeout intentionally 0: streamable responses can be
			// long-lived and an absolute deadline would cut them off.
			// ReadHeaderTimeout + ReadTimeout protect against slowloris.
			IdleTimeout:    30 * time.Second,
			MaxHeaderBytes: 1 << 20, // 1 MB
		}

		go func() {
			<-ctx.Done()
			// Graceful shutdown: drain in-flight requests
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaults.ShutdownTimeout)
			defer shutdownCancel()
			fmt.Fprintf(os.Stderr, "%s shutting down gracefully\n", ui.ServerID())
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
			}
		}()

		fmt.Fprintf(os.Stderr, "%s MCP server listening on %s (HTTP transport)\n",
			ui.ServerID(), *httpAddr)

		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(defaults.ExitInternalError)
		}
		return
	}

	// Stdio transport mode (default)
	if *stdio {
		if err := srv.RunStdio(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(defaults.ExitInternalError)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "error: no transport selected, use -stdio or -http <addr>\n")
	os.Exit(defaults.ExitUserError)
}
