// Package fetcher issues bounded-timeout HTTP GET requests for the crawler.
//
// A failed fetch is reported as a model.FetchResult with OK=false rather
// than as an error: network errors, timeouts and non-2xx statuses all mean
// "this URL yields no data and no next link". Nothing is retried.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/nextcrawl/internal/model"
)

// Default fetcher settings.
const (
	// DefaultTimeout bounds each request, matching the original benchmark's 10s.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultUserAgent identifies the crawler in request headers.
	DefaultUserAgent = "nextcrawl/1.0 (+https://github.com/nao1215/nextcrawl)"
)

// ErrBadStatus is wrapped into FetchResult.Err for non-2xx responses.
var ErrBadStatus = errors.New("unexpected HTTP status")

// ErrBodyTooLarge is wrapped into FetchResult.Err when a body exceeds the limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Fetcher performs HTTP fetches with an independent timeout per request.
// It is safe for concurrent use.
type Fetcher struct {
	// client performs the requests. Its own Timeout is left alone; each
	// request gets a context deadline instead.
	client *http.Client

	// timeout bounds a single fetch including reading the body.
	timeout time.Duration

	// maxBodySize limits how many bytes of a body are read.
	maxBodySize int64

	// userAgent is sent with every request.
	userAgent string

	// headers are extra request headers.
	headers map[string]string

	// limiter throttles request starts. Nil means unlimited.
	limiter *rate.Limiter

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout sets the per-fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodySize sets the maximum body size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders adds custom request headers.
func WithHeaders(h map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range h {
			f.headers[k] = v
		}
	}
}

// WithRateLimit allows at most perSecond request starts per second.
// Zero or negative disables throttling.
func WithRateLimit(perSecond float64) Option {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		burst := max(1, int(perSecond))
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{},
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
		headers:     make(map[string]string),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Timeout returns the per-fetch timeout.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch downloads pageURL. It never returns an error: every failure is
// folded into the result so that one bad page cannot stall the crawl.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) model.FetchResult {
	started := time.Now()
	result := model.FetchResult{URL: pageURL}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			result.Err = fmt.Errorf("rate limiter: %w", err)
			result.Duration = time.Since(started)
			return result
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	body, status, err := f.get(ctx, pageURL)
	result.StatusCode = status
	result.Duration = time.Since(started)
	if err != nil {
		result.Err = err
		f.logger.Debug("fetch failed", "url", pageURL, "status", status, "error", err)
		return result
	}

	result.Body = body
	result.OK = true
	f.logger.Debug("fetched page", "url", pageURL, "bytes", len(body), "elapsed", result.Duration)
	return result
}

// get performs the request and reads the body under ctx's deadline.
func (f *Fetcher) get(ctx context.Context, pageURL string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return "", 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // Best effort drain
		return "", resp.StatusCode, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > f.maxBodySize {
		return "", resp.StatusCode, ErrBodyTooLarge
	}

	return string(data), resp.StatusCode, nil
}
