package frontier

import (
	"fmt"
	"slices"
	"testing"
)

// TestStoreEnqueue tests deduplication on enqueue.
func TestStoreEnqueue(t *testing.T) {
	t.Parallel()

	t.Run("adds new URL", func(t *testing.T) {
		t.Parallel()

		s := New()
		if !s.Enqueue("http://example.com/page_0.html") {
			t.Fatal("expected first enqueue to succeed")
		}
		if s.Len() != 1 {
			t.Errorf("expected len 1, got %d", s.Len())
		}
	})

	t.Run("rejects duplicate URL", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.Enqueue("http://example.com/page_0.html")
		if s.Enqueue("http://example.com/page_0.html") {
			t.Error("expected duplicate enqueue to be rejected")
		}
		if s.Len() != 1 {
			t.Errorf("expected len 1, got %d", s.Len())
		}
	})

	t.Run("treats normalized forms as the same URL", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.Enqueue("http://Example.com/page_0.html#top")
		if s.Enqueue("HTTP://example.com/page_0.html") {
			t.Error("expected normalized duplicate to be rejected")
		}
	})

	t.Run("rejects duplicate after dequeue", func(t *testing.T) {
		t.Parallel()

		s := New()
		s.Enqueue("http://example.com/a")
		if _, ok := s.Dequeue(); !ok {
			t.Fatal("expected dequeue to succeed")
		}
		if s.Enqueue("http://example.com/a") {
			t.Error("expected fetched URL to stay visited")
		}
		if !s.IsEmpty() {
			t.Error("expected store to be empty")
		}
	})

	t.Run("rejects relative URL", func(t *testing.T) {
		t.Parallel()

		s := New()
		if s.Enqueue("/page_1.html") {
			t.Error("expected relative URL to be rejected")
		}
		if s.VisitedCount() != 0 {
			t.Errorf("expected no visited URLs, got %d", s.VisitedCount())
		}
	})
}

// TestStoreDequeueBatch tests batch removal.
func TestStoreDequeueBatch(t *testing.T) {
	t.Parallel()

	newStore := func(n int) *Store {
		s := New()
		for i := range n {
			s.Enqueue(fmt.Sprintf("http://example.com/page_%d.html", i))
		}
		return s
	}

	t.Run("preserves order", func(t *testing.T) {
		t.Parallel()

		s := newStore(5)
		got := s.DequeueBatch(3)
		want := []string{
			"http://example.com/page_0.html",
			"http://example.com/page_1.html",
			"http://example.com/page_2.html",
		}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, expected %v", got, want)
		}
		if s.Len() != 2 {
			t.Errorf("expected 2 remaining, got %d", s.Len())
		}
	})

	t.Run("returns fewer when queue is short", func(t *testing.T) {
		t.Parallel()

		s := newStore(2)
		if got := s.DequeueBatch(10); len(got) != 2 {
			t.Errorf("expected 2 URLs, got %d", len(got))
		}
		if !s.IsEmpty() {
			t.Error("expected empty store")
		}
	})

	t.Run("non-positive count returns nothing", func(t *testing.T) {
		t.Parallel()

		s := newStore(2)
		if got := s.DequeueBatch(0); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
		if s.Len() != 2 {
			t.Errorf("expected 2 remaining, got %d", s.Len())
		}
	})

	t.Run("survives compaction", func(t *testing.T) {
		t.Parallel()

		s := newStore(300)
		for i := range 200 {
			u, ok := s.Dequeue()
			if !ok {
				t.Fatalf("dequeue %d failed", i)
			}
			if want := fmt.Sprintf("http://example.com/page_%d.html", i); u != want {
				t.Fatalf("dequeue %d: got %q, expected %q", i, u, want)
			}
		}
		snap := s.Snapshot()
		if len(snap) != 100 || snap[0] != "http://example.com/page_200.html" {
			t.Errorf("unexpected snapshot after compaction: len=%d first=%q", len(snap), snap[0])
		}
		if s.VisitedCount() != 300 {
			t.Errorf("expected 300 visited, got %d", s.VisitedCount())
		}
	})
}

// TestStoreVisited tests the visited query.
func TestStoreVisited(t *testing.T) {
	t.Parallel()

	s := New()
	s.Enqueue("http://example.com/a")
	if !s.Visited("http://EXAMPLE.com/a#frag") {
		t.Error("expected normalized URL to be visited")
	}
	if s.Visited("http://example.com/b") {
		t.Error("expected unknown URL to be unvisited")
	}
}
