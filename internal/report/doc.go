// Package report renders crawl results.
//
// Three writers share the Writer interface:
//   - JSONWriter: the one-line metrics record, plus JSON for benches and history
//   - MarkdownWriter: GitHub Flavored Markdown with tables, alerts and charts
//   - SimpleWriter: aligned plain text for the terminal
//
// Summarize averages repeated run records that share a start URL, page
// limit, mode, concurrency level and parse worker count; the bench and
// history commands use it to build their tables.
package report
