package metrics

import (
	"math"
	"time"

	"github.com/nao1215/nextcrawl/internal/model"
)

const (
	// TimePrecision is the number of decimals kept for totalTimeSeconds.
	TimePrecision = 4

	// RatePrecision is the number of decimals kept for pagesPerSecond.
	RatePrecision = 2
)

// Collector measures the wall-clock duration of one crawl run.
// It reads the monotonic clock, so wall-clock adjustments during a run do
// not skew the measurement.
type Collector struct {
	now   func() time.Time
	start time.Time
	end   time.Time
}

// NewCollector returns a Collector backed by time.Now.
func NewCollector() *Collector {
	return &Collector{now: time.Now}
}

// Start marks the beginning of the run and clears any previous stop mark.
func (c *Collector) Start() {
	c.start = c.now()
	c.end = time.Time{}
}

// Stop marks the end of the run.
func (c *Collector) Stop() {
	c.end = c.now()
}

// Elapsed returns the measured duration. Before Stop is called it returns
// the time since Start; before Start it returns zero.
func (c *Collector) Elapsed() time.Duration {
	if c.start.IsZero() {
		return 0
	}
	end := c.end
	if end.IsZero() {
		end = c.now()
	}
	d := end.Sub(c.start)
	if d < 0 {
		return 0
	}
	return d
}

// Record builds the run record for a finished crawl.
func (c *Collector) Record(mode model.Mode, concurrency, pagesCrawled int) model.RunRecord {
	seconds := c.Elapsed().Seconds()
	return model.RunRecord{
		Mode:             mode,
		ConcurrencyLevel: concurrency,
		PagesCrawled:     pagesCrawled,
		TotalTimeSeconds: Round(seconds, TimePrecision),
		PagesPerSecond:   Round(PagesPerSecond(pagesCrawled, seconds), RatePrecision),
		Timestamp:        c.start,
	}
}

// PagesPerSecond returns pages divided by seconds. A zero or negative
// duration yields 0 so the value always fits in JSON.
func PagesPerSecond(pages int, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return float64(pages) / seconds
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
