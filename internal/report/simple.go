package report

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/nao1215/nextcrawl/internal/model"
)

const ruleWidth = 60

// SimpleWriter outputs aligned plain text for the terminal.
// Numbers are grouped by the printer's locale, so a long crawl reads as
// "12,500 pages" rather than "12500 pages".
type SimpleWriter struct {
	baseWriter

	printer *message.Printer

	// verbose adds the unvisited frontier to run output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists the unvisited frontier in run output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// WithLanguage sets the locale used to format numbers.
func WithLanguage(tag language.Tag) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.printer = message.NewPrinter(tag)
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		printer:    message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs a single run.
func (w *SimpleWriter) WriteRun(run *Run) (int, error) {
	var sb strings.Builder
	rec := run.Record

	w.title(&sb, "NEXTCRAWL RUN")
	if rec.StartURL != "" {
		w.printer.Fprintf(&sb, "Start URL:       %s\n", rec.StartURL)
	}
	w.printer.Fprintf(&sb, "Mode:            %s\n", rec.Mode)
	w.printer.Fprintf(&sb, "Concurrency:     %d\n", rec.ConcurrencyLevel)
	w.printer.Fprintf(&sb, "Pages crawled:   %d\n", rec.PagesCrawled)
	w.printer.Fprintf(&sb, "Total time:      %.4f s\n", rec.TotalTimeSeconds)
	w.printer.Fprintf(&sb, "Throughput:      %.2f pages/s\n", rec.PagesPerSecond)

	if s := run.State; s != nil {
		sb.WriteString("\n")
		w.section(&sb, "CRAWL")
		w.printer.Fprintf(&sb, "  Fetch attempts:     %d\n", len(s.FetchAttempts))
		w.printer.Fprintf(&sb, "  Fetch failures:     %d\n", s.FetchFailures)
		w.printer.Fprintf(&sb, "  Parse failures:     %d\n", s.ParseFailures)
		w.printer.Fprintf(&sb, "  Cross-host dropped: %d\n", s.CrossHostDropped)
		w.printer.Fprintf(&sb, "  Duplicates skipped: %d\n", s.DuplicatesSkipped)
		w.printer.Fprintf(&sb, "  Table aggregate:    %.2f\n", s.Aggregate)
		w.printer.Fprintf(&sb, "  Frontier remaining: %d\n", len(s.FinalFrontier))

		if w.verbose {
			for _, u := range s.FinalFrontier {
				w.printer.Fprintf(&sb, "    - %s\n", u)
			}
		}
	}

	w.rule(&sb, "=")
	return w.output.Write([]byte(sb.String()))
}

// WriteBench outputs the scaling table.
func (w *SimpleWriter) WriteBench(bench *Bench) (int, error) {
	var sb strings.Builder

	w.title(&sb, "NEXTCRAWL BENCHMARK")
	w.printer.Fprintf(&sb, "Start URL:   %s\n", bench.StartURL)
	w.printer.Fprintf(&sb, "Page limit:  %d\n\n", bench.PageLimit)
	w.writeRows(&sb, bench.Rows)

	if best, ok := bench.Best(); ok {
		w.printer.Fprintf(&sb, "\nFastest: %s at concurrency %d (%.2f pages/s)\n",
			best.Mode, best.ConcurrencyLevel, best.AvgPagesPerSecond)
	}

	w.rule(&sb, "=")
	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs stored runs, newest first.
func (w *SimpleWriter) WriteHistory(records []model.RunRecord) (int, error) {
	var sb strings.Builder

	w.title(&sb, "NEXTCRAWL HISTORY")
	if len(records) == 0 {
		sb.WriteString("No runs recorded yet.\n")
		w.rule(&sb, "=")
		return w.output.Write([]byte(sb.String()))
	}

	w.printer.Fprintf(&sb, "%-5s %-19s %-6s %11s %8s %10s %9s\n",
		"ID", "DATE", "MODE", "CONCURRENCY", "PAGES", "TIME(s)", "PAGES/s")
	for _, r := range records {
		w.printer.Fprintf(&sb, "%-5d %-19s %-6s %11d %8d %10.4f %9.2f\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.Mode,
			r.ConcurrencyLevel, r.PagesCrawled, r.TotalTimeSeconds, r.PagesPerSecond)
	}

	sb.WriteString("\n")
	w.section(&sb, "AVERAGES")
	w.writeAverages(&sb, Summarize(records))

	w.rule(&sb, "=")
	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeRows(sb *strings.Builder, rows []BenchRow) {
	if len(rows) == 0 {
		sb.WriteString("  No runs completed.\n")
		return
	}
	w.printer.Fprintf(sb, "  %-6s %11s %7s %5s %10s %12s %12s\n",
		"MODE", "CONCURRENCY", "WORKERS", "RUNS", "AVG PAGES", "AVG TIME(s)", "AVG PAGES/s")
	for _, r := range rows {
		w.printer.Fprintf(sb, "  %-6s %11d %7s %5d %10.2f %12.4f %12.2f\n",
			r.Mode, r.ConcurrencyLevel, formatWorkers(r.Workers), r.Runs,
			r.AvgPagesCrawled, r.AvgTimeSeconds, r.AvgPagesPerSecond)
	}
}

// writeAverages prints one block of rows per start URL and page limit.
func (w *SimpleWriter) writeAverages(sb *strings.Builder, rows []BenchRow) {
	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].StartURL == rows[i].StartURL && rows[j].PageLimit == rows[i].PageLimit {
			j++
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		w.printer.Fprintf(sb, "  %s (limit %d)\n", rows[i].StartURL, rows[i].PageLimit)
		w.writeRows(sb, rows[i:j])
		i = j
	}
}

func (w *SimpleWriter) title(sb *strings.Builder, name string) {
	w.rule(sb, "=")
	pad := max((ruleWidth-len(name))/2, 0)
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(name)
	sb.WriteString("\n")
	w.rule(sb, "=")
	sb.WriteString("\n")
}

func (w *SimpleWriter) section(sb *strings.Builder, name string) {
	sb.WriteString(name)
	sb.WriteString("\n")
	w.rule(sb, "-")
}

func (w *SimpleWriter) rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}
