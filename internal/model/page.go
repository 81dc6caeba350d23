package model

import "time"

// FetchResult is the outcome of fetching a single URL.
// It is produced by the fetcher, consumed once by the page processor or
// the worker pool, and then discarded.
type FetchResult struct {
	// URL is the normalized URL that was requested.
	URL string

	// Body holds the response body. Empty when OK is false.
	Body string

	// StatusCode is the HTTP status, or 0 if no response arrived.
	StatusCode int

	// OK is true only for a 2xx response whose body was read completely.
	OK bool

	// Err describes why the fetch failed. Nil when OK is true.
	Err error

	// Duration is the wall-clock time spent on the request.
	Duration time.Duration
}

// FailureReason classifies a failed fetch for metrics and logging.
func (r FetchResult) FailureReason() string {
	switch {
	case r.OK:
		return ""
	case r.StatusCode != 0:
		return "status"
	default:
		return "network"
	}
}

// ParseTask is the message handed to a parse worker.
// It carries plain values only so that it can cross the pool boundary
// without sharing memory with the coordinator.
type ParseTask struct {
	HTML         string
	PageURL      string
	BaseHostname string
}

// ParseResult is the message returned by the page processor.
type ParseResult struct {
	// PageURL echoes the task's page so results can arrive out of order.
	PageURL string

	// NextURL is the absolute same-host "Next" link. Empty when HasNext is false.
	NextURL string

	// HasNext reports whether a followable "Next" link was found.
	HasNext bool

	// CrossHost is set when a "Next" link existed but pointed to another host.
	CrossHost bool

	// Aggregate is the sum of the fifth column of the page's data table.
	Aggregate float64

	// Rows is the number of data rows that contributed to Aggregate.
	Rows int

	// MalformedCells counts fifth-column cells that did not parse as numbers.
	MalformedCells int

	// Err is set when the document could not be processed at all.
	Err error
}
