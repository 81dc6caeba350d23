// Package database stores run history in SQLite.
//
// RunDB keeps one row per crawl run: the metrics record printed on stdout
// plus the start URL, page limit, worker count and failure counters. The
// history and bench commands read it back to compare runs over time. Crawl
// state (frontier, visited set) is never persisted.
//
// The database is a single file, nextcrawl.db, in the XDG data directory,
// opened through the CGO-free modernc.org/sqlite driver.
package database
