package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/nextcrawl/internal/frontier"
	"github.com/nao1215/nextcrawl/internal/metrics"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/pool"
)

var (
	// ErrInvalidPageLimit is returned when the page limit is below 1.
	ErrInvalidPageLimit = errors.New("page limit must be at least 1")

	// ErrInvalidConcurrency is returned when the concurrency level is below 1.
	ErrInvalidConcurrency = errors.New("concurrency must be at least 1")

	// ErrInvalidWorkers is returned when the parse pool size is below 1.
	ErrInvalidWorkers = errors.New("workers must be at least 1")

	// ErrInvalidMode is returned for an unknown crawl mode.
	ErrInvalidMode = errors.New("invalid crawl mode")
)

// Fetcher retrieves one page. Implementations never fail the run: every
// problem is reported through the returned FetchResult.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) model.FetchResult
}

// Crawler follows "Next" links from a start page on a single host.
//
// All crawl bookkeeping (frontier, visited set, counters) is owned by the
// goroutine that calls Run. Fetches run on their own goroutines and, in
// pool mode, parsing runs on the worker pool; both report back over
// channels, so the shared state is never touched concurrently.
type Crawler struct {
	fetcher Fetcher

	// mode selects where page processing runs.
	mode model.Mode

	// pageLimit is the soft bound on successful fetches.
	pageLimit int

	// concurrency bounds pages in progress (fetching, or fetching and parsing).
	concurrency int

	// workers is the parse pool size in pool mode.
	workers int

	// strict stops launching fetches that could push the count past pageLimit.
	strict bool

	logger      *slog.Logger
	instruments *metrics.Instruments

	// process is the page processor. Replaceable in tests.
	process func(model.ParseTask) model.ParseResult
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMode sets the crawl mode.
func WithMode(m model.Mode) Option {
	return func(c *Crawler) {
		c.mode = m
	}
}

// WithPageLimit sets the page limit.
func WithPageLimit(n int) Option {
	return func(c *Crawler) {
		c.pageLimit = n
	}
}

// WithConcurrency sets the number of pages allowed in progress at once.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		c.concurrency = n
	}
}

// WithWorkers sets the parse pool size used in pool mode.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		c.workers = n
	}
}

// WithStrictLimit makes the page limit a hard bound.
// A fetch is launched only while crawled plus in-progress pages stay below
// the limit, so the run never crawls more than pageLimit pages.
func WithStrictLimit(strict bool) Option {
	return func(c *Crawler) {
		c.strict = strict
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithInstruments attaches live Prometheus series to the crawl.
func WithInstruments(m *metrics.Instruments) Option {
	return func(c *Crawler) {
		c.instruments = m
	}
}

// withProcessor replaces the page processor.
func withProcessor(fn func(model.ParseTask) model.ParseResult) Option {
	return func(c *Crawler) {
		c.process = fn
	}
}

// New creates a Crawler. Defaults: async mode, 20 pages, concurrency 4,
// one parse worker per CPU.
func New(f Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:     f,
		mode:        model.ModeAsync,
		pageLimit:   20,
		concurrency: 4,
		workers:     runtime.NumCPU(),
		logger:      slog.Default(),
		process:     ProcessTask,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Mode returns the configured crawl mode.
func (c *Crawler) Mode() model.Mode {
	return c.mode
}

// Concurrency returns the configured concurrency level.
func (c *Crawler) Concurrency() int {
	return c.concurrency
}

// PageLimit returns the configured page limit.
func (c *Crawler) PageLimit() int {
	return c.pageLimit
}

// Workers returns the parse pool size used in pool mode.
func (c *Crawler) Workers() int {
	return c.workers
}

// Validate checks the configuration without running anything.
func (c *Crawler) Validate() error {
	if c.pageLimit < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPageLimit, c.pageLimit)
	}
	if c.concurrency < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, c.concurrency)
	}
	switch c.mode {
	case model.ModeAsync:
	case model.ModePool:
		if c.workers < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.workers)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.mode)
	}
	return nil
}

// Run crawls from startURL until the page limit is reached or the frontier
// is exhausted, then returns the final state.
//
// The page limit is checked against successful fetches before each launch.
// In-progress fetches are always drained, so without WithStrictLimit the
// run may exceed the limit by at most concurrency-1 pages.
//
// Fetch and parse failures are counted and never abort the run. A
// configuration error, or a pool that cannot be created, aborts before any
// fetch. When ctx is cancelled no new fetches are launched; the state
// gathered so far is returned together with ctx.Err().
func (c *Crawler) Run(ctx context.Context, startURL string) (*model.CrawlState, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	start, err := model.NormalizeURL(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}

	r := &run{
		Crawler:  c,
		state:    model.NewCrawlState(start, model.Hostname(start)),
		frontier: frontier.New(),
		slots:    semaphore.NewWeighted(int64(c.concurrency)),
		fetched:  make(chan model.FetchResult),
		parsed:   make(chan pool.Result[model.ParseResult]),
	}
	r.frontier.Enqueue(start)

	if c.mode == model.ModePool {
		p, err := pool.New[model.ParseTask, model.ParseResult](c.workers, c.parseHandler,
			pool.WithLogger(c.logger),
			pool.WithBusyObserver(c.instruments.SetPoolBusy),
		)
		if err != nil {
			return nil, fmt.Errorf("create parse pool: %w", err)
		}
		defer p.Close()
		r.pool = p
	}

	c.logger.Info("crawl started",
		slog.String("start_url", start),
		slog.String("mode", c.mode.String()),
		slog.Int("page_limit", c.pageLimit),
		slog.Int("concurrency", c.concurrency),
		slog.Bool("strict", c.strict),
	)

	r.loop(ctx)

	r.state.FinalFrontier = r.frontier.Snapshot()
	c.instruments.SetFrontierSize(r.frontier.Len())

	c.logger.Info("crawl finished",
		slog.Int("pages_crawled", r.state.PagesCrawled),
		slog.Int("fetch_failures", r.state.FetchFailures),
		slog.Int("parse_failures", r.state.ParseFailures),
		slog.Int("frontier_remaining", len(r.state.FinalFrontier)),
	)

	if err := ctx.Err(); err != nil {
		return r.state, err
	}
	return r.state, nil
}

// parseHandler adapts the page processor to the pool.
func (c *Crawler) parseHandler(_ context.Context, task model.ParseTask) (model.ParseResult, error) {
	res := c.process(task)
	return res, res.Err
}
