package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/nextcrawl/internal/fixture"
)

const (
	// defaultServeAddr is the listen address of the fixture site.
	defaultServeAddr = "127.0.0.1:8000"

	// defaultServePages is the length of the served page chain.
	defaultServePages = 100

	// readHeaderTimeout bounds how long a server waits for request headers.
	readHeaderTimeout = 5 * time.Second

	// shutdownTimeout bounds the graceful shutdown of a server.
	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a local paginated site to crawl",
		Long: `Serve starts an HTTP server with a chain of pages named page_0.html,
page_1.html, ... Each page holds a six-column price table and a "Next"
link to the following page; the last page has no "Next" link.

The site is deterministic, so crawl and bench results are comparable
across runs. Use --latency to simulate a slow server.

Examples:
  # Serve 100 pages on 127.0.0.1:8000
  nextcrawl serve

  # Serve 500 pages with 50 rows each and 20ms of latency per request
  nextcrawl serve --pages 500 --rows 50 --latency 20ms`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().StringP("addr", "a", defaultServeAddr,
		"Listen address")
	cmd.Flags().Int("pages", defaultServePages,
		"Number of pages in the chain")
	cmd.Flags().Int("rows", fixture.DefaultRows,
		"Table rows per page")
	cmd.Flags().Duration("latency", 0,
		"Delay added to every response")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return err
	}
	pages, err := cmd.Flags().GetInt("pages")
	if err != nil {
		return err
	}
	rows, err := cmd.Flags().GetInt("rows")
	if err != nil {
		return err
	}
	latency, err := cmd.Flags().GetDuration("latency")
	if err != nil {
		return err
	}

	if pages < 1 {
		return fmt.Errorf("invalid pages: must be at least 1, got %d", pages)
	}
	if rows < 1 {
		return fmt.Errorf("invalid rows: must be at least 1, got %d", rows)
	}
	if latency < 0 {
		return fmt.Errorf("invalid latency: must be non-negative, got %s", latency)
	}

	logger := setupLogger(cmd.ErrOrStderr(), getVerboseFlag(cmd), getLogJSONFlag(cmd))
	slog.SetDefault(logger)

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	site := fixture.NewSite(pages, fixture.WithRows(rows), fixture.WithLatency(latency))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d pages at http://%s%s\n",
		pages, ln.Addr(), fixture.PagePath(0))

	return serveUntilDone(ctx, ln, site, logger)
}

// serveUntilDone serves handler on ln until ctx is cancelled, then shuts
// the server down gracefully.
func serveUntilDone(ctx context.Context, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("fixture server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down fixture server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
