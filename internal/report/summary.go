package report

import (
	"cmp"
	"slices"

	"github.com/nao1215/nextcrawl/internal/metrics"
	"github.com/nao1215/nextcrawl/internal/model"
)

// Run is the outcome of one crawl as shown in a report.
type Run struct {
	// Record is the metrics line of the run.
	Record model.RunRecord

	// State is the final crawl state. It may be nil for records loaded
	// from history, which do not keep the frontier or counters.
	State *model.CrawlState
}

// BenchRow is the averaged result of repeated runs with one configuration.
// Workers is zero for async rows.
type BenchRow struct {
	Mode              model.Mode `json:"mode"`
	ConcurrencyLevel  int        `json:"concurrencyLevel"`
	Workers           int        `json:"workers,omitempty"`
	StartURL          string     `json:"startUrl,omitempty"`
	PageLimit         int        `json:"pageLimit,omitempty"`
	Runs              int        `json:"runs"`
	AvgPagesCrawled   float64    `json:"avgPagesCrawled"`
	AvgTimeSeconds    float64    `json:"avgTimeSeconds"`
	AvgPagesPerSecond float64    `json:"avgPagesPerSecond"`
}

// Bench is a scaling experiment: every mode at every concurrency level.
type Bench struct {
	StartURL  string     `json:"startUrl"`
	PageLimit int        `json:"pageLimit"`
	Rows      []BenchRow `json:"results"`
}

// Best returns the row with the highest average throughput.
func (b *Bench) Best() (BenchRow, bool) {
	if len(b.Rows) == 0 {
		return BenchRow{}, false
	}
	return slices.MaxFunc(b.Rows, func(x, y BenchRow) int {
		return cmp.Compare(x.AvgPagesPerSecond, y.AvgPagesPerSecond)
	}), true
}

// Summarize groups records that share a configuration (start URL, page
// limit, mode, concurrency and parse workers) and averages each group.
// Rows are ordered by start URL, page limit, mode, concurrency, then workers.
func Summarize(records []model.RunRecord) []BenchRow {
	type key struct {
		startURL    string
		pageLimit   int
		mode        model.Mode
		concurrency int
		workers     int
	}

	groups := make(map[key][]model.RunRecord)
	for _, r := range records {
		k := key{
			startURL:    r.StartURL,
			pageLimit:   r.PageLimit,
			mode:        r.Mode,
			concurrency: r.ConcurrencyLevel,
			workers:     r.Workers,
		}
		groups[k] = append(groups[k], r)
	}

	rows := make([]BenchRow, 0, len(groups))
	for k, rs := range groups {
		var pages, secs, rate float64
		for _, r := range rs {
			pages += float64(r.PagesCrawled)
			secs += r.TotalTimeSeconds
			rate += r.PagesPerSecond
		}
		n := float64(len(rs))
		rows = append(rows, BenchRow{
			Mode:              k.mode,
			ConcurrencyLevel:  k.concurrency,
			Workers:           k.workers,
			StartURL:          k.startURL,
			PageLimit:         k.pageLimit,
			Runs:              len(rs),
			AvgPagesCrawled:   metrics.Round(pages/n, metrics.RatePrecision),
			AvgTimeSeconds:    metrics.Round(secs/n, metrics.TimePrecision),
			AvgPagesPerSecond: metrics.Round(rate/n, metrics.RatePrecision),
		})
	}

	slices.SortFunc(rows, func(a, b BenchRow) int {
		return cmp.Or(
			cmp.Compare(a.StartURL, b.StartURL),
			cmp.Compare(a.PageLimit, b.PageLimit),
			cmp.Compare(a.Mode, b.Mode),
			cmp.Compare(a.ConcurrencyLevel, b.ConcurrencyLevel),
			cmp.Compare(a.Workers, b.Workers),
		)
	})
	return rows
}

// CountByMode returns how many records each mode has, in Modes() order.
func CountByMode(records []model.RunRecord) map[model.Mode]int {
	counts := make(map[model.Mode]int, len(model.Modes()))
	for _, r := range records {
		counts[r.Mode]++
	}
	return counts
}
