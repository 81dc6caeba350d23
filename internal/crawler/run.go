package crawler

import (
	"context"
	"log/slog"

	"golang.org/x/sync/semaphore"

	"github.com/nao1215/nextcrawl/internal/frontier"
	"github.com/nao1215/nextcrawl/internal/model"
	"github.com/nao1215/nextcrawl/internal/pool"
)

// run is the coordinator of a single crawl. Only the goroutine executing
// loop reads or writes state and frontier.
type run struct {
	*Crawler

	state    *model.CrawlState
	frontier *frontier.Store

	// slots holds one unit per page in progress. A unit is taken when a
	// fetch launches and returned once the page is fully handled.
	slots    *semaphore.Weighted
	inFlight int

	fetched chan model.FetchResult
	parsed  chan pool.Result[model.ParseResult]

	pool *pool.Pool[model.ParseTask, model.ParseResult]
}

// loop launches fetches while allowed and handles completions until no
// page is in progress and nothing more may be launched.
func (r *run) loop(ctx context.Context) {
	for {
		r.launch(ctx)
		if r.inFlight == 0 {
			return
		}

		select {
		case res := <-r.fetched:
			r.handleFetch(ctx, res)
		case res := <-r.parsed:
			r.absorb(res.Value, res.Err)
			r.release()
		}
	}
}

// launch starts fetches for queued URLs while the limit and slots allow.
func (r *run) launch(ctx context.Context) {
	for r.canLaunch(ctx) && r.slots.TryAcquire(1) {
		pageURL, _ := r.frontier.Dequeue()
		r.state.FetchAttempts = append(r.state.FetchAttempts, pageURL)
		r.inFlight++

		go func() {
			r.fetched <- r.fetcher.Fetch(ctx, pageURL)
		}()
	}
	r.instruments.SetFrontierSize(r.frontier.Len())
	r.instruments.SetInFlight(r.inFlight)
}

func (r *run) canLaunch(ctx context.Context) bool {
	if ctx.Err() != nil || r.frontier.IsEmpty() {
		return false
	}
	if r.state.PagesCrawled >= r.pageLimit {
		return false
	}
	if r.strict && r.state.PagesCrawled+r.inFlight >= r.pageLimit {
		return false
	}
	return true
}

// handleFetch accounts for a finished fetch and hands the page to the
// processor for the current mode.
func (r *run) handleFetch(ctx context.Context, res model.FetchResult) {
	r.instruments.ObserveFetch(res)

	if !res.OK {
		r.state.FetchFailures++
		r.logger.Debug("fetch failed",
			slog.String("url", res.URL),
			slog.Int("status", res.StatusCode),
			slog.String("reason", res.FailureReason()),
			slog.Any("error", res.Err),
		)
		r.release()
		return
	}

	r.state.PagesCrawled++
	r.logger.Debug("page fetched",
		slog.String("url", res.URL),
		slog.Int("pages_crawled", r.state.PagesCrawled),
		slog.Duration("duration", res.Duration),
	)

	task := model.ParseTask{
		HTML:         res.Body,
		PageURL:      res.URL,
		BaseHostname: r.state.BaseHostname,
	}

	if r.pool == nil {
		parsed := r.process(task)
		r.absorb(parsed, parsed.Err)
		r.release()
		return
	}

	future := r.pool.Submit(ctx, task)
	go func() {
		res := future.Result()
		// Panics and cancellation leave no value behind.
		if res.Value.PageURL == "" {
			res.Value.PageURL = task.PageURL
		}
		r.parsed <- res
	}()
}

// absorb merges a processing result into the crawl state.
func (r *run) absorb(res model.ParseResult, err error) {
	r.instruments.ObserveParse(model.ParseResult{Err: err, CrossHost: res.CrossHost})

	if err != nil {
		r.state.ParseFailures++
		r.logger.Warn("page processing failed",
			slog.String("url", res.PageURL),
			slog.Any("error", err),
		)
		return
	}

	r.state.Aggregate += res.Aggregate

	if res.CrossHost {
		r.state.CrossHostDropped++
		r.logger.Debug("cross-host next link dropped", slog.String("url", res.PageURL))
	}
	if !res.HasNext {
		return
	}
	if !r.frontier.Enqueue(res.NextURL) {
		r.state.DuplicatesSkipped++
		r.instruments.IncDuplicate()
	}
}

func (r *run) release() {
	r.inFlight--
	r.slots.Release(1)
}
