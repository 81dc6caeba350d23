// Package crawler follows a chain of "Next" links on a single host.
//
// # Architecture
//
// A Crawler starts from one page, fetches it, processes it and queues the
// same-host "Next" link it finds, repeating until the page limit is reached
// or no link is left. The goroutine calling Run is the coordinator: it owns
// the frontier and the crawl state, launches fetches on separate goroutines
// and receives their results over channels.
//
// # Modes
//
//   - async: the coordinator processes each page itself. Fetch goroutines
//     only perform network I/O.
//   - pool: each fetched page is submitted to a fixed pool of parse workers
//     and the coordinator merges the results as they complete.
//
// In both modes the number of pages in progress never exceeds the
// concurrency level. In pool mode a page counts as in progress until its
// parse result has been merged.
//
// # Page limit
//
// The limit counts successful fetches and is checked before each launch.
// Fetches already in progress are drained, so a run may end up to
// concurrency-1 pages above the limit. WithStrictLimit turns the limit into
// a hard bound at the cost of less overlap near the end of the run.
//
// # Usage
//
//	f := fetcher.New(fetcher.WithTimeout(5 * time.Second))
//	c := crawler.New(f, crawler.WithMode(model.ModePool), crawler.WithPageLimit(50))
//	state, err := c.Run(ctx, "http://localhost:8000/page_0.html")
package crawler
