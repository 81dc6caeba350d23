package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/nextcrawl/internal/config"
	"github.com/nao1215/nextcrawl/internal/crawler"
	"github.com/nao1215/nextcrawl/internal/database"
	"github.com/nao1215/nextcrawl/internal/fetcher"
	"github.com/nao1215/nextcrawl/internal/log"
	"github.com/nao1215/nextcrawl/internal/metrics"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [start-url]",
		Short: "Follow Next links from a start page and report crawl metrics",
		Long: `Crawl follows the "Next" link of every page, starting at start-url, until
the page limit is reached or the chain ends. Links to other hosts are
ignored. For every page the fifth table column is summed.

When the run finishes, one JSON line is written to stdout:

  {"mode":"async","concurrencyLevel":4,"pagesCrawled":20,"totalTimeSeconds":0.4123,"pagesPerSecond":48.51}

The record is also stored in the run history (see "nextcrawl history")
unless --no-save is given.

Examples:
  # Crawl with the defaults (async mode, 20 pages, concurrency 4)
  nextcrawl crawl http://127.0.0.1:8000/page_0.html

  # Parse pages on 8 pool workers with 16 pages in flight
  nextcrawl crawl --mode pool --workers 8 -n 16 http://127.0.0.1:8000/page_0.html

  # Never crawl more than 50 pages, and print a Markdown report
  nextcrawl crawl -p 50 --strict --markdown http://127.0.0.1:8000/page_0.html

  # Use the "local" profile from .nextcrawl
  nextcrawl crawl -P local`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	addCrawlFlags(cmd)

	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Maximum number of pages in progress at once")
	cmd.Flags().StringP("mode", "M", string(config.DefaultMode),
		"Where pages are processed: async (inline) or pool (parse workers)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the JSON metrics line (default; mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output a Markdown report instead of the JSON line")
	cmd.Flags().BoolP("summary", "s", false,
		"Also print a human-readable summary on stderr")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to the specified file path (creates directories if needed)")

	cmd.Flags().String("metrics-addr", "",
		"Serve Prometheus metrics on this address while crawling (e.g. 127.0.0.1:9100)")

	return cmd
}

// addCrawlFlags registers the flags shared by crawl and bench.
func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Page limit: stop launching fetches once this many pages were crawled")
	cmd.Flags().IntP("workers", "w", 0,
		"Parse workers in pool mode (0 = one per CPU)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each page fetch")
	cmd.Flags().Bool("strict", false,
		"Never exceed the page limit, even while draining in-flight fetches")
	cmd.Flags().Float64P("rate", "r", 0,
		"Maximum requests per second (0 = unlimited)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .nextcrawl in current or home directory)")
	cmd.Flags().StringP("profile", "P", "",
		"Profile name from the configuration file")

	cmd.Flags().Bool("no-save", false,
		"Do not store the run in the history database")
	cmd.Flags().String("db-dir", "",
		"Directory of the history database (default: XDG data directory)")
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, getLogJSONFlag(cmd))
	slog.SetDefault(logger)

	ctx, stop := signalContext(cmd, logger)
	defer stop()

	summary, err := cmd.Flags().GetBool("summary")
	if err != nil {
		return err
	}

	instruments := metrics.NewInstruments()
	var run *report.Run
	crawl := func(ctx context.Context) error {
		var err error
		run, err = crawlOnce(ctx, cfg, logger, instruments)
		return err
	}

	if cfg.MetricsAddr != "" {
		err = serveMetricsDuring(ctx, cfg.MetricsAddr, instruments.Handler(), logger, crawl)
	} else {
		err = crawl(ctx)
	}
	if run == nil {
		return err
	}

	interrupted := errors.Is(err, context.Canceled)
	if err != nil && !interrupted {
		return err
	}

	if err := outputReport(cmd.OutOrStdout(), cfg, run); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if summary {
		if _, err := report.NewSimpleWriter(cmd.ErrOrStderr(), report.WithVerbose(cfg.Verbose)).WriteRun(run); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}

	if interrupted {
		logger.Warn("crawl interrupted, partial run not saved",
			slog.Int("pages_crawled", run.Record.PagesCrawled))
		return fmt.Errorf("crawl interrupted: %w", err)
	}

	if cfg.SaveToDB {
		if err := saveRuns(ctx, cfg.DBDir, logger, run.Record); err != nil {
			logger.Error("failed to save run", "error", err)
		}
	}

	return nil
}

// buildConfig merges, from lowest to highest priority: built-in defaults,
// the configuration file defaults, the selected profile, and the flags the
// user actually set. Flags that a command does not define are skipped, so
// crawl and bench share this function.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.ConfigFilePath, err = stringFlag(cmd, "config"); err != nil {
		return nil, err
	}
	if cfg.Profile, err = stringFlag(cmd, "profile"); err != nil {
		return nil, err
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	if len(args) > 0 {
		cfg.StartURL = args[0]
	}

	if changed(cmd, "max-pages") {
		if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "concurrency") {
		if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "mode") {
		mode, err := cmd.Flags().GetString("mode")
		if err != nil {
			return nil, err
		}
		cfg.Mode = model.Mode(mode)
	}
	if changed(cmd, "workers") {
		if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "timeout") {
		if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "strict") {
		if cfg.StrictLimit, err = cmd.Flags().GetBool("strict"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "rate") {
		if cfg.Rate, err = cmd.Flags().GetFloat64("rate"); err != nil {
			return nil, err
		}
	}

	// Profiles and flags carry the mode as typed by the user.
	if mode, err := model.ParseMode(string(cfg.Mode)); err == nil {
		cfg.Mode = mode
	}

	if cfg.JSONReport, err = boolFlag(cmd, "json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = boolFlag(cmd, "markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = stringFlag(cmd, "output"); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = stringFlag(cmd, "metrics-addr"); err != nil {
		return nil, err
	}

	noSave, err := boolFlag(cmd, "no-save")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noSave

	dbDir, err := stringFlag(cmd, "db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	return cfg, nil
}

// applyConfigFile loads the configuration file and applies the selected
// profile. If the user explicitly named a file that does not exist, that is
// an error; otherwise a missing file is silently ignored.
func applyConfigFile(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		if cfg.Profile != "" {
			return fmt.Errorf("%w: %q (no configuration file found)", config.ErrProfileNotFound, cfg.Profile)
		}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	profile, err := file.GetProfile(cfg.Profile)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	cfg.ApplyProfile(profile)

	return nil
}

// changed reports whether the user set the named flag on the command line.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// stringFlag returns the flag value, or "" if the command has no such flag.
func stringFlag(cmd *cobra.Command, name string) (string, error) {
	if cmd.Flags().Lookup(name) == nil {
		return "", nil
	}
	return cmd.Flags().GetString(name)
}

// boolFlag returns the flag value, or false if the command has no such flag.
func boolFlag(cmd *cobra.Command, name string) (bool, error) {
	if cmd.Flags().Lookup(name) == nil {
		return false, nil
	}
	return cmd.Flags().GetBool(name)
}

// getVerboseFlag gets the verbose flag value from the command or its parents.
func getVerboseFlag(cmd *cobra.Command) bool {
	return persistentBool(cmd, "verbose")
}

// getLogJSONFlag gets the log-json flag value from the command or its parents.
func getLogJSONFlag(cmd *cobra.Command) bool {
	return persistentBool(cmd, "log-json")
}

func persistentBool(cmd *cobra.Command, name string) bool {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f.Value.String() == "true"
	}
	if f := cmd.InheritedFlags().Lookup(name); f != nil {
		return f.Value.String() == "true"
	}
	return false
}

// setupLogger creates a structured logger that masks secrets.
func setupLogger(w io.Writer, verbose, jsonLogs bool) *slog.Logger {
	if jsonLogs {
		return log.NewSecureJSONLogger(w, verbose)
	}
	return log.NewSecureLogger(w, verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(commandContext(cmd))
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, draining in-flight pages...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// commandContext returns the command's context, or Background when the
// command is run without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// newCrawler builds the fetcher and crawler for one run of cfg.
func newCrawler(cfg *config.Config, logger *slog.Logger, instruments *metrics.Instruments) *crawler.Crawler {
	f := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithHeaders(cfg.Headers),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithRateLimit(cfg.Rate),
		fetcher.WithLogger(logger),
	)

	return crawler.New(f,
		crawler.WithMode(cfg.Mode),
		crawler.WithPageLimit(cfg.MaxPages),
		crawler.WithConcurrency(cfg.Concurrency),
		crawler.WithWorkers(cfg.EffectiveWorkers()),
		crawler.WithStrictLimit(cfg.StrictLimit),
		crawler.WithLogger(logger),
		crawler.WithInstruments(instruments),
	)
}

// crawlOnce runs one crawl and measures it. The returned Run is nil only
// when the crawl could not start; on cancellation it holds the partial
// result alongside the context error.
func crawlOnce(ctx context.Context, cfg *config.Config, logger *slog.Logger, instruments *metrics.Instruments) (*report.Run, error) {
	c := newCrawler(cfg, logger, instruments)

	collector := metrics.NewCollector()
	collector.Start()
	state, err := c.Run(ctx, cfg.StartURL)
	collector.Stop()
	if state == nil {
		return nil, err
	}

	rec := collector.Record(c.Mode(), c.Concurrency(), state.PagesCrawled)
	rec.StartURL = state.StartURL
	rec.PageLimit = c.PageLimit()
	if c.Mode() == model.ModePool {
		rec.Workers = c.Workers()
	}
	rec.FetchFailures = state.FetchFailures
	rec.ParseFailures = state.ParseFailures

	return &report.Run{Record: rec, State: state}, err
}

// serveMetricsDuring serves handler on addr while fn runs, then shuts the
// server down. A server that fails to start cancels fn.
func serveMetricsDuring(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger, fn func(context.Context) error) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("failed to stop metrics server", "error", err)
			}
		}()
		return fn(gctx)
	})

	return g.Wait()
}

// outputReport writes the run in the requested format to the report file
// or to w.
func outputReport(w io.Writer, cfg *config.Config, run *report.Run) error {
	out, closeFn, err := openOutput(w, cfg.ReportFile)
	if err != nil {
		return err
	}
	defer closeFn()

	var writer report.Writer = report.NewJSONWriter(out)
	if cfg.MarkdownReport {
		writer = report.NewMarkdownWriter(out)
	}
	_, err = writer.WriteRun(run)
	return err
}

// openOutput returns the report destination: the file at path, created
// with owner-only permissions, or w when path is empty.
func openOutput(w io.Writer, path string) (io.Writer, func(), error) {
	if path == "" {
		return w, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Best effort close of a written report
}

// saveRuns stores records in the history database in dbDir.
func saveRuns(ctx context.Context, dbDir string, logger *slog.Logger, records ...model.RunRecord) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	for _, rec := range records {
		id, err := db.SaveRun(ctx, rec)
		if err != nil {
			return err
		}
		logger.Debug("run saved to history", "id", id, "db", db.Path())
	}
	return nil
}
