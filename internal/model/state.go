package model

import "time"

// CrawlState is the bookkeeping of one crawl run.
//
// It has a single writer: the coordinating goroutine of the crawler.
// Callers receive it only after the run has finished, so no locking is needed.
type CrawlState struct {
	// StartURL is the normalized starting page.
	StartURL string

	// BaseHostname is the host that every followed link must share.
	BaseHostname string

	// StartTime is captured when the run begins.
	StartTime time.Time

	// PagesCrawled counts successful fetches only.
	PagesCrawled int

	// FetchAttempts lists every URL handed to the fetcher, in launch order.
	FetchAttempts []string

	// FetchFailures counts fetches that errored, timed out or returned non-2xx.
	FetchFailures int

	// ParseFailures counts pages whose processing returned an error,
	// including worker panics in pool mode.
	ParseFailures int

	// CrossHostDropped counts "Next" links discarded by same-host containment.
	CrossHostDropped int

	// DuplicatesSkipped counts "Next" links already present in the visited set.
	DuplicatesSkipped int

	// Aggregate is the sum of every page's table aggregate.
	Aggregate float64

	// FinalFrontier holds the URLs still queued when the run stopped.
	FinalFrontier []string
}

// NewCrawlState initializes the state for a run starting at startURL.
func NewCrawlState(startURL, baseHostname string) *CrawlState {
	return &CrawlState{
		StartURL:      startURL,
		BaseHostname:  baseHostname,
		StartTime:     time.Now(),
		FetchAttempts: make([]string, 0),
		FinalFrontier: make([]string, 0),
	}
}

// Overshoot returns how far PagesCrawled went past pageLimit, or 0.
func (s *CrawlState) Overshoot(pageLimit int) int {
	if s.PagesCrawled <= pageLimit {
		return 0
	}
	return s.PagesCrawled - pageLimit
}
