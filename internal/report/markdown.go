package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/nextcrawl/internal/model"
)

// MarkdownWriter outputs results as GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteRun outputs a single run with its crawl counters.
func (w *MarkdownWriter) WriteRun(run *Run) (int, error) {
	md := markdown.NewMarkdown(w.output)
	rec := run.Record

	md.H1("nextcrawl Run")
	md.PlainText("")

	rows := [][]string{
		{"Mode", "`" + rec.Mode.String() + "`"},
		{"Concurrency", strconv.Itoa(rec.ConcurrencyLevel)},
		{"Pages Crawled", strconv.Itoa(rec.PagesCrawled)},
		{"Total Time (s)", formatSeconds(rec.TotalTimeSeconds)},
		{"Pages / Second", formatRate(rec.PagesPerSecond)},
	}
	if rec.StartURL != "" {
		rows = append([][]string{{"Start URL", "`" + rec.StartURL + "`"}}, rows...)
	}
	if rec.PageLimit > 0 {
		rows = append(rows, []string{"Page Limit", strconv.Itoa(rec.PageLimit)})
	}
	if rec.Mode == model.ModePool && rec.Workers > 0 {
		rows = append(rows, []string{"Parse Workers", strconv.Itoa(rec.Workers)})
	}
	md.Table(markdown.TableSet{Header: []string{"Property", "Value"}, Rows: rows})
	md.PlainText("")

	if run.State != nil {
		w.writeCounters(md, run.State)
		w.writeRunAlert(md, rec, run.State)
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeCounters writes the crawl bookkeeping section.
func (w *MarkdownWriter) writeCounters(md *markdown.Markdown, state *model.CrawlState) {
	md.H2("Crawl")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Fetch attempts", strconv.Itoa(len(state.FetchAttempts))},
			{"Fetch failures", strconv.Itoa(state.FetchFailures)},
			{"Parse failures", strconv.Itoa(state.ParseFailures)},
			{"Cross-host links dropped", strconv.Itoa(state.CrossHostDropped)},
			{"Duplicate links skipped", strconv.Itoa(state.DuplicatesSkipped)},
			{"Table aggregate", strconv.FormatFloat(state.Aggregate, 'f', 2, 64)},
			{"Frontier remaining", strconv.Itoa(len(state.FinalFrontier))},
		},
	})
	md.PlainText("")

	if len(state.FinalFrontier) > 0 {
		md.Details("Unvisited frontier", strings.Join(state.FinalFrontier, "\n"))
		md.PlainText("")
	}
}

// writeRunAlert summarizes how the run ended.
func (w *MarkdownWriter) writeRunAlert(md *markdown.Markdown, rec model.RunRecord, state *model.CrawlState) {
	switch {
	case rec.PagesCrawled == 0:
		md.Cautionf("No page could be crawled. %d fetch(es) failed.", state.FetchFailures)
	case state.FetchFailures > 0 || state.ParseFailures > 0:
		md.Warningf("%d fetch failure(s) and %d parse failure(s) during the run.",
			state.FetchFailures, state.ParseFailures)
	case rec.PageLimit > 0 && state.Overshoot(rec.PageLimit) > 0:
		md.Importantf("Crawled %d page(s) past the limit of %d while draining in-flight fetches.",
			state.Overshoot(rec.PageLimit), rec.PageLimit)
	case len(state.FinalFrontier) == 0:
		md.Tip("The chain ended before the page limit.")
	default:
		md.Note("Stopped at the page limit.")
	}
	md.PlainText("")
}

// WriteBench outputs the scaling table and the fastest configuration.
func (w *MarkdownWriter) WriteBench(bench *Bench) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("nextcrawl Benchmark")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Start URL", "`" + bench.StartURL + "`"},
			{"Page Limit", strconv.Itoa(bench.PageLimit)},
			{"Configurations", strconv.Itoa(len(bench.Rows))},
		},
	})
	md.PlainText("")

	md.H2("Results")
	md.PlainText("")
	if len(bench.Rows) == 0 {
		md.PlainText("No runs completed.")
		md.PlainText("")
	} else {
		md.Table(benchTable(bench.Rows))
		md.PlainText("")
	}

	if best, ok := bench.Best(); ok {
		md.Tip(fmt.Sprintf("Fastest: %s at concurrency %d with %s pages/s.",
			best.Mode, best.ConcurrencyLevel, formatRate(best.AvgPagesPerSecond)))
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// WriteHistory outputs stored runs and their split by mode.
func (w *MarkdownWriter) WriteHistory(records []model.RunRecord) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("nextcrawl History")
	md.PlainText("")

	if len(records) == 0 {
		md.Note("No runs recorded yet.")
		md.PlainText("")
		w.writeFooter(md)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{
			strconv.FormatInt(r.ID, 10),
			r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Mode.String(),
			strconv.Itoa(r.ConcurrencyLevel),
			strconv.Itoa(r.PagesCrawled),
			formatSeconds(r.TotalTimeSeconds),
			formatRate(r.PagesPerSecond),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Date", "Mode", "Concurrency", "Pages", "Time (s)", "Pages/s"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Averages")
	md.PlainText("")
	md.Table(averagesTable(Summarize(records)))
	md.PlainText("")

	w.writeModeChart(md, records)
	w.writeFooter(md)
	return len(md.String()), md.Build()
}

// writeModeChart writes a mermaid pie chart of runs per mode.
func (w *MarkdownWriter) writeModeChart(md *markdown.Markdown, records []model.RunRecord) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Runs by Mode"),
		piechart.WithShowData(true),
	)

	counts := CountByMode(records)
	for _, m := range model.Modes() {
		if counts[m] > 0 {
			chart.LabelAndIntValue(m.String(), uint64(counts[m]))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [nextcrawl](https://github.com/nao1215/nextcrawl)*")
}

func benchTable(rows []BenchRow) markdown.TableSet {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Mode.String(),
			strconv.Itoa(r.ConcurrencyLevel),
			formatWorkers(r.Workers),
			strconv.Itoa(r.Runs),
			strconv.FormatFloat(r.AvgPagesCrawled, 'f', -1, 64),
			formatSeconds(r.AvgTimeSeconds),
			formatRate(r.AvgPagesPerSecond),
		}
	}
	return markdown.TableSet{
		Header: []string{"Mode", "Concurrency", "Workers", "Runs", "Avg Pages", "Avg Time (s)", "Avg Pages/s"},
		Rows:   out,
	}
}

// averagesTable is benchTable with the start URL and page limit of each
// group, since history mixes runs against different targets.
func averagesTable(rows []BenchRow) markdown.TableSet {
	set := benchTable(rows)
	set.Header = append([]string{"Start URL", "Page Limit"}, set.Header...)
	for i, r := range rows {
		set.Rows[i] = append([]string{"`" + r.StartURL + "`", strconv.Itoa(r.PageLimit)}, set.Rows[i]...)
	}
	return set
}

// formatWorkers renders the parse pool size; async rows have none.
func formatWorkers(n int) string {
	if n == 0 {
		return "-"
	}
	return strconv.Itoa(n)
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
