// Package model defines the data passed between the crawler components.
//
// The main types are:
//   - FetchResult: the outcome of fetching one URL
//   - ParseTask and ParseResult: the messages exchanged with parse workers
//   - CrawlState: the single-writer bookkeeping of one run
//   - RunRecord: the structured result emitted after a run
//
// ParseTask and ParseResult hold plain values only, so a task can be handed
// to another goroutine without sharing memory with the coordinator.
package model
