// Package main provides the entry point for the nextcrawl CLI.
//
// nextcrawl follows the "Next" links of a paginated site, sums the fifth
// column of every page's table and reports how fast it went. It can run the
// page processing inline (async mode) or on a pool of parse workers (pool
// mode), which makes it a small harness for comparing concurrency models.
//
// Usage:
//
//	nextcrawl crawl http://127.0.0.1:8000/page_0.html
//	nextcrawl bench --levels 1,2,4,8 http://127.0.0.1:8000/page_0.html
//	nextcrawl serve --pages 100
//
// See --help for all available options.
package main

// main is the entry point for nextcrawl.
func main() {
	Execute()
}
