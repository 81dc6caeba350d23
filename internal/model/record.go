package model

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the scheduling strategy of a crawl run.
type Mode string

const (
	// ModeAsync fetches concurrently and parses on the coordinating goroutine.
	ModeAsync Mode = "async"

	// ModePool fetches concurrently and hands parsing to a fixed worker pool.
	ModePool Mode = "pool"
)

// Modes lists every supported mode in display order.
func Modes() []Mode {
	return []Mode{ModeAsync, ModePool}
}

// ParseMode converts a user-supplied name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeAsync:
		return ModeAsync, nil
	case ModePool:
		return ModePool, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeAsync, ModePool)
	}
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	return string(m)
}

// RunRecord is the structured result of one crawl run.
// The first five fields form the line written to standard output; the rest
// are kept for history and reports.
type RunRecord struct {
	Mode             Mode    `json:"mode"`
	ConcurrencyLevel int     `json:"concurrencyLevel"`
	PagesCrawled     int     `json:"pagesCrawled"`
	TotalTimeSeconds float64 `json:"totalTimeSeconds"`
	PagesPerSecond   float64 `json:"pagesPerSecond"`

	// ID is assigned by the run history database.
	ID int64 `json:"-"`

	StartURL      string    `json:"-"`
	PageLimit     int       `json:"-"`
	Workers       int       `json:"-"`
	FetchFailures int       `json:"-"`
	ParseFailures int       `json:"-"`
	Timestamp     time.Time `json:"-"`
}
