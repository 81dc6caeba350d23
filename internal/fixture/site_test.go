package fixture

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// get fetches path from srv and returns status and body.
func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

// TestSite tests the fixture pages.
func TestSite(t *testing.T) {
	t.Parallel()

	t.Run("chains pages with Next links", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(NewSite(3))
		defer srv.Close()

		code, body := get(t, srv, "/page_0.html")
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if !strings.Contains(body, `<a href="page_1.html">Next</a>`) {
			t.Errorf("expected Next link to page_1, got:\n%s", body)
		}

		_, last := get(t, srv, "/page_2.html")
		if strings.Contains(last, ">Next<") {
			t.Error("expected last page to have no Next link")
		}
	})

	t.Run("unknown pages are 404", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(NewSite(3))
		defer srv.Close()

		for _, path := range []string{"/page_3.html", "/index.html", "/page_x.html"} {
			if code, _ := get(t, srv, path); code != http.StatusNotFound {
				t.Errorf("%s: expected 404, got %d", path, code)
			}
		}
	})

	t.Run("status option", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(NewSite(3, WithStatus(1, http.StatusInternalServerError)))
		defer srv.Close()

		if code, _ := get(t, srv, "/page_1.html"); code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", code)
		}
	})

	t.Run("counts hits", func(t *testing.T) {
		t.Parallel()

		site := NewSite(2)
		srv := httptest.NewServer(site)
		defer srv.Close()

		get(t, srv, "/page_0.html")
		get(t, srv, "/page_0.html")
		get(t, srv, "/page_1.html")

		if site.Hits("/page_0.html") != 2 {
			t.Errorf("expected 2 hits, got %d", site.Hits("/page_0.html"))
		}
		if site.TotalHits() != 3 {
			t.Errorf("expected 3 total hits, got %d", site.TotalHits())
		}
		if site.MaxHits() != 2 {
			t.Errorf("expected max hits 2, got %d", site.MaxHits())
		}
	})
}

// TestExpectedAggregate tests the reference aggregate.
func TestExpectedAggregate(t *testing.T) {
	t.Parallel()

	site := NewSite(2, WithRows(4), WithMalformedCells(1), WithoutTable(0))

	if got := site.ExpectedAggregate(0); got != 0 {
		t.Errorf("expected 0 for page without table, got %v", got)
	}
	// Rows 0 and 2 of page 1: 101 + 102.
	if got := site.ExpectedAggregate(1); got != 203 {
		t.Errorf("expected 203, got %v", got)
	}
}
