package crawler

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/nextcrawl/internal/model"
)

const (
	// nextLinkText is the exact anchor text of the pagination link.
	nextLinkText = "Next"

	// valueColumn is the zero-based index of the cell summed per row.
	valueColumn = 4
)

// ErrInvalidPageURL is returned when the page URL cannot serve as a base
// for resolving links.
var ErrInvalidPageURL = errors.New("invalid page URL")

// Process computes the table aggregate of a page and extracts its "Next" link.
//
// The first table's header row is skipped; every following row with more
// than four cells adds its fifth cell to the aggregate. Cells that are not
// numbers contribute zero. The first anchor whose text is exactly "Next" is
// resolved against pageURL and kept only if it stays on baseHostname.
// Missing tables, rows or anchors are not errors.
func Process(html, pageURL, baseHostname string) model.ParseResult {
	result := model.ParseResult{PageURL: pageURL}

	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		result.Err = fmt.Errorf("%w: %q", ErrInvalidPageURL, pageURL)
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		result.Err = fmt.Errorf("parse html: %w", err)
		return result
	}

	sumTable(doc, &result)
	findNext(doc, base, baseHostname, &result)

	return result
}

// ProcessTask runs Process on a pool task.
func ProcessTask(task model.ParseTask) model.ParseResult {
	return Process(task.HTML, task.PageURL, task.BaseHostname)
}

// sumTable adds up the value column of the page's first table.
func sumTable(doc *goquery.Document, result *model.ParseResult) {
	rows := doc.Find("table").First().Find("tr")
	if rows.Length() < 2 {
		return
	}

	rows.Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= valueColumn {
			return
		}

		v, ok := parseCell(cells.Eq(valueColumn).Text())
		if !ok {
			result.MalformedCells++
			return
		}
		result.Aggregate += v
		result.Rows++
	})
}

// parseCell parses a numeric cell. Non-finite values count as malformed.
func parseCell(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// findNext locates the "Next" anchor and applies same-host containment.
func findNext(doc *goquery.Document, base *url.URL, baseHostname string, result *model.ParseResult) {
	anchor := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Text() == nextLinkText
	}).First()
	if anchor.Length() == 0 {
		return
	}

	href, ok := anchor.Attr("href")
	if !ok {
		return
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return
	}

	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return
	}

	next, err := model.NormalizeURL(resolved.String())
	if err != nil {
		return
	}
	if !model.SameHost(next, baseHostname) {
		result.CrossHost = true
		return
	}

	result.NextURL = next
	result.HasNext = true
}
