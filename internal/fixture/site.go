// Package fixture serves a deterministic paginated site for tests and for
// the serve command.
//
// Page i lives at /page_i.html and contains a price table with six columns
// (Date, Open, High, Low, Close, Volume) followed by a "Next" link to page
// i+1. The last page has no "Next" link. Options alter individual pages to
// exercise failure paths: foreign-host links, malformed cells, missing
// tables, error statuses, links back to earlier pages and added latency.
package fixture

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
)

// DefaultRows is the number of data rows rendered per page.
const DefaultRows = 10

// Site is an http.Handler that renders the fixture pages and counts hits.
type Site struct {
	// pages is the number of pages in the chain.
	pages int

	// rows is the number of data rows per table.
	rows int

	// latency delays every response.
	latency time.Duration

	// nextHref overrides the "Next" href of a page.
	nextHref map[int]string

	// noNext removes the "Next" link from a page.
	noNext map[int]bool

	// malformed replaces every other Close cell of a page with text.
	malformed map[int]bool

	// noTable omits the table from a page.
	noTable map[int]bool

	// status makes a page answer with a non-200 status.
	status map[int]int

	// hits counts requests per path.
	hits map[string]int
	mu   sync.Mutex
}

// Option configures a Site.
type Option func(*Site)

// WithRows sets the number of data rows per page.
func WithRows(n int) Option {
	return func(s *Site) {
		if n >= 0 {
			s.rows = n
		}
	}
}

// WithLatency delays every response by d.
func WithLatency(d time.Duration) Option {
	return func(s *Site) {
		s.latency = d
	}
}

// WithNextHref makes page's "Next" link point at href, which may be
// relative, absolute, or on another host.
func WithNextHref(page int, href string) Option {
	return func(s *Site) {
		s.nextHref[page] = href
	}
}

// WithNextTo makes page's "Next" link point at another page of the site.
func WithNextTo(page, target int) Option {
	return WithNextHref(page, PageName(target))
}

// WithoutNext removes the "Next" link from page.
func WithoutNext(page int) Option {
	return func(s *Site) {
		s.noNext[page] = true
	}
}

// WithMalformedCells writes non-numeric text into every other Close cell of page.
func WithMalformedCells(page int) Option {
	return func(s *Site) {
		s.malformed[page] = true
	}
}

// WithoutTable omits the data table from page.
func WithoutTable(page int) Option {
	return func(s *Site) {
		s.noTable[page] = true
	}
}

// WithStatus makes page respond with the given HTTP status code.
func WithStatus(page, code int) Option {
	return func(s *Site) {
		s.status[page] = code
	}
}

// NewSite creates a site with the given number of chained pages.
func NewSite(pages int, opts ...Option) *Site {
	s := &Site{
		pages:     pages,
		rows:      DefaultRows,
		nextHref:  make(map[int]string),
		noNext:    make(map[int]bool),
		malformed: make(map[int]bool),
		noTable:   make(map[int]bool),
		status:    make(map[int]int),
		hits:      make(map[string]int),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// PageName returns the file name of page i.
func PageName(i int) string {
	return "page_" + strconv.Itoa(i) + ".html"
}

// PagePath returns the URL path of page i.
func PagePath(i int) string {
	return "/" + PageName(i)
}

// Pages returns the number of pages in the chain.
func (s *Site) Pages() int {
	return s.pages
}

// ServeHTTP implements http.Handler.
func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()

	if s.latency > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(s.latency):
		}
	}

	page, ok := parsePagePath(r.URL.Path)
	if !ok || page >= s.pages {
		http.NotFound(w, r)
		return
	}

	if code, ok := s.status[page]; ok {
		http.Error(w, http.StatusText(code), code)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, s.Render(page)) //nolint:errcheck // Client disconnects are not interesting here
}

// parsePagePath extracts i from "/page_i.html".
func parsePagePath(path string) (int, bool) {
	name, ok := strings.CutPrefix(path, "/page_")
	if !ok {
		return 0, false
	}
	name, ok = strings.CutSuffix(name, ".html")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(name)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Render returns the HTML of page i.
func (s *Site) Render(page int) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html><head><title>")
	b.WriteString(html.EscapeString("Prices page " + strconv.Itoa(page)))
	b.WriteString("</title></head><body>\n")

	if !s.noTable[page] {
		b.WriteString("<table>\n<tr><th>Date</th><th>Open</th><th>High</th><th>Low</th><th>Close</th><th>Volume</th></tr>\n")
		for row := range s.rows {
			closeCell := strconv.FormatFloat(CloseValue(page, row), 'f', 2, 64)
			if s.malformed[page] && row%2 == 1 {
				closeCell = "n/a"
			}
			fmt.Fprintf(&b, "<tr><td>2024-01-%02d</td><td>%d.00</td><td>%d.50</td><td>%d.25</td><td>%s</td><td>%d</td></tr>\n",
				row%28+1, 100+row, 101+row, 99+row, html.EscapeString(closeCell), 1000*(row+1))
		}
		b.WriteString("</table>\n")
	}

	if href, ok := s.nextLink(page); ok {
		fmt.Fprintf(&b, "<p><a href=\"%s\">Next</a></p>\n", html.EscapeString(href))
	}

	b.WriteString("</body></html>\n")
	return b.String()
}

// nextLink returns the "Next" href of page, if it has one.
func (s *Site) nextLink(page int) (string, bool) {
	if s.noNext[page] {
		return "", false
	}
	if href, ok := s.nextHref[page]; ok {
		return href, true
	}
	if page+1 >= s.pages {
		return "", false
	}
	return PageName(page + 1), true
}

// CloseValue is the Close cell rendered for a row of a page.
func CloseValue(page, row int) float64 {
	return float64(100+page) + float64(row)*0.5
}

// ExpectedAggregate returns the table sum a processor should compute for
// page, taking malformed cells into account.
func (s *Site) ExpectedAggregate(page int) float64 {
	if s.noTable[page] {
		return 0
	}
	var sum float64
	for row := range s.rows {
		if s.malformed[page] && row%2 == 1 {
			continue
		}
		sum += CloseValue(page, row)
	}
	return sum
}

// Hits returns how often path was requested.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// TotalHits returns the number of requests served.
func (s *Site) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, n := range s.hits {
		total += n
	}
	return total
}

// MaxHits returns the highest request count of any single path.
func (s *Site) MaxHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	highest := 0
	for _, n := range s.hits {
		highest = max(highest, n)
	}
	return highest
}
