package report

import (
	"io"

	"github.com/nao1215/nextcrawl/internal/model"
)

// Writer renders crawl results in one output format.
type Writer interface {
	// WriteRun outputs the result of a single crawl.
	WriteRun(run *Run) (int, error)

	// WriteBench outputs a scaling experiment.
	WriteBench(bench *Bench) (int, error)

	// WriteHistory outputs stored run records, newest first.
	WriteHistory(records []model.RunRecord) (int, error)
}

// MultiWriter writes to multiple Writers in order, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun outputs the run to all Writers.
func (m *MultiWriter) WriteRun(run *Run) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteRun(run) })
}

// WriteBench outputs the bench to all Writers.
func (m *MultiWriter) WriteBench(bench *Bench) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteBench(bench) })
}

// WriteHistory outputs the records to all Writers.
func (m *MultiWriter) WriteHistory(records []model.RunRecord) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteHistory(records) })
}

func (m *MultiWriter) each(fn func(Writer) (int, error)) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := fn(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
