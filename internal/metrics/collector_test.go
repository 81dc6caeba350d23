package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nao1215/nextcrawl/internal/model"
)

// fakeClock returns each queued time in order.
type fakeClock struct {
	times []time.Time
}

func (f *fakeClock) now() time.Time {
	t := f.times[0]
	if len(f.times) > 1 {
		f.times = f.times[1:]
	}
	return t
}

func newTestCollector(times ...time.Time) *Collector {
	clock := &fakeClock{times: times}
	return &Collector{now: clock.now}
}

func TestCollectorRecord(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("rounds time and rate", func(t *testing.T) {
		t.Parallel()

		c := newTestCollector(base, base.Add(1234567*time.Microsecond))
		c.Start()
		c.Stop()

		rec := c.Record(model.ModeAsync, 10, 5)

		if rec.TotalTimeSeconds != 1.2346 {
			t.Errorf("TotalTimeSeconds = %v, want 1.2346", rec.TotalTimeSeconds)
		}
		if rec.PagesPerSecond != 4.05 {
			t.Errorf("PagesPerSecond = %v, want 4.05", rec.PagesPerSecond)
		}
		if rec.Mode != model.ModeAsync || rec.ConcurrencyLevel != 10 || rec.PagesCrawled != 5 {
			t.Errorf("unexpected record fields: %+v", rec)
		}
		if !rec.Timestamp.Equal(base) {
			t.Errorf("Timestamp = %v, want %v", rec.Timestamp, base)
		}
	})

	t.Run("zero elapsed yields zero rate", func(t *testing.T) {
		t.Parallel()

		c := newTestCollector(base, base)
		c.Start()
		c.Stop()

		rec := c.Record(model.ModePool, 1, 3)
		if rec.TotalTimeSeconds != 0 {
			t.Errorf("TotalTimeSeconds = %v, want 0", rec.TotalTimeSeconds)
		}
		if rec.PagesPerSecond != 0 {
			t.Errorf("PagesPerSecond = %v, want 0", rec.PagesPerSecond)
		}

		if _, err := json.Marshal(rec); err != nil {
			t.Errorf("record must be JSON encodable: %v", err)
		}
	})

	t.Run("elapsed before start is zero", func(t *testing.T) {
		t.Parallel()

		c := newTestCollector(base)
		if got := c.Elapsed(); got != 0 {
			t.Errorf("Elapsed() = %v, want 0", got)
		}
	})

	t.Run("restart clears stop mark", func(t *testing.T) {
		t.Parallel()

		c := newTestCollector(
			base,
			base.Add(time.Second),
			base.Add(10*time.Second),
			base.Add(12*time.Second),
		)
		c.Start()
		c.Stop()
		c.Start()
		c.Stop()

		if got := c.Elapsed(); got != 2*time.Second {
			t.Errorf("Elapsed() = %v, want 2s", got)
		}
	})
}

func TestPagesPerSecond(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pages   int
		seconds float64
		want    float64
	}{
		{name: "normal", pages: 10, seconds: 2, want: 5},
		{name: "zero duration", pages: 10, seconds: 0, want: 0},
		{name: "negative duration", pages: 10, seconds: -1, want: 0},
		{name: "no pages", pages: 0, seconds: 3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := PagesPerSecond(tt.pages, tt.seconds); got != tt.want {
				t.Errorf("PagesPerSecond(%d, %v) = %v, want %v", tt.pages, tt.seconds, got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v      float64
		places int
		want   float64
	}{
		{v: 1.23456, places: 4, want: 1.2346},
		{v: 1.23454, places: 4, want: 1.2345},
		{v: 4.0061, places: 2, want: 4.01},
		{v: 7, places: 2, want: 7},
	}

	for _, tt := range tests {
		if got := Round(tt.v, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.places, got, tt.want)
		}
	}
}
