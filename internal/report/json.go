package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/nextcrawl/internal/model"
)

// JSONWriter outputs results as JSON.
//
// WriteRun always prints the metrics record on a single line, whatever the
// indent setting, so that the output of a run can be consumed line by line.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output for benches.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint indents bench output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun prints {mode, concurrencyLevel, pagesCrawled, totalTimeSeconds,
// pagesPerSecond} as one line.
func (w *JSONWriter) WriteRun(run *Run) (int, error) {
	data, err := json.Marshal(run.Record)
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}

// WriteBench prints the bench as one JSON document.
func (w *JSONWriter) WriteBench(bench *Bench) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(bench, "", "  ")
	} else {
		data, err = json.Marshal(bench)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}

// historyEntry is the JSON form of a stored run record.
type historyEntry struct {
	ID               int64      `json:"id"`
	Mode             model.Mode `json:"mode"`
	ConcurrencyLevel int        `json:"concurrencyLevel"`
	PagesCrawled     int        `json:"pagesCrawled"`
	TotalTimeSeconds float64    `json:"totalTimeSeconds"`
	PagesPerSecond   float64    `json:"pagesPerSecond"`
	StartURL         string     `json:"startUrl"`
	PageLimit        int        `json:"pageLimit"`
	Workers          int        `json:"workers,omitempty"`
	FetchFailures    int        `json:"fetchFailures"`
	ParseFailures    int        `json:"parseFailures"`
	Timestamp        time.Time  `json:"timestamp"`
}

// WriteHistory prints one JSON object per line, newest first.
func (w *JSONWriter) WriteHistory(records []model.RunRecord) (int, error) {
	var total int
	enc := json.NewEncoder(countingWriter{w: w.output, n: &total})
	for _, r := range records {
		if err := enc.Encode(historyEntry{
			ID:               r.ID,
			Mode:             r.Mode,
			ConcurrencyLevel: r.ConcurrencyLevel,
			PagesCrawled:     r.PagesCrawled,
			TotalTimeSeconds: r.TotalTimeSeconds,
			PagesPerSecond:   r.PagesPerSecond,
			StartURL:         r.StartURL,
			PageLimit:        r.PageLimit,
			Workers:          r.Workers,
			FetchFailures:    r.FetchFailures,
			ParseFailures:    r.ParseFailures,
			Timestamp:        r.Timestamp,
		}); err != nil {
			return total, err
		}
	}
	return total, nil
}

// countingWriter adds the bytes written through it to n.
type countingWriter struct {
	w io.Writer
	n *int
}

func (c countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	*c.n += n
	return n, err
}
