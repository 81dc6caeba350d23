// Package frontier holds the queue of pages waiting to be fetched together
// with the set of pages that have already been seen.
//
// A Store is owned by a single goroutine and is not safe for concurrent use.
// The crawler funnels every mutation through its coordinating goroutine, so
// the check-then-insert in Enqueue is atomic by construction.
package frontier

import "github.com/nao1215/nextcrawl/internal/model"

// Store is an ordered FIFO queue of pending URLs plus a visited set.
type Store struct {
	// queue holds pending URLs; head is the index of the next one to dequeue.
	queue []string
	head  int

	// visited contains every URL ever enqueued, keyed by normalized form.
	visited map[string]struct{}
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		queue:   make([]string, 0),
		visited: make(map[string]struct{}),
	}
}

// Enqueue appends rawURL to the queue unless it has been seen before.
// The URL is recorded as visited in the same step it is queued, so it can
// never be queued twice. It reports whether the URL was newly added;
// URLs that are not absolute are rejected.
func (s *Store) Enqueue(rawURL string) bool {
	key, err := model.NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	if _, seen := s.visited[key]; seen {
		return false
	}

	s.visited[key] = struct{}{}
	s.queue = append(s.queue, key)
	return true
}

// Dequeue removes and returns the URL at the front of the queue.
func (s *Store) Dequeue() (string, bool) {
	if s.IsEmpty() {
		return "", false
	}
	u := s.queue[s.head]
	s.queue[s.head] = ""
	s.head++
	s.compact()
	return u, true
}

// DequeueBatch removes up to maxCount URLs from the front of the queue,
// preserving order. It returns fewer when the queue is shorter.
func (s *Store) DequeueBatch(maxCount int) []string {
	n := min(maxCount, s.Len())
	if n <= 0 {
		return nil
	}

	batch := make([]string, n)
	copy(batch, s.queue[s.head:s.head+n])
	for i := s.head; i < s.head+n; i++ {
		s.queue[i] = ""
	}
	s.head += n
	s.compact()
	return batch
}

// compact releases the consumed prefix once it dominates the backing array.
func (s *Store) compact() {
	if s.head == len(s.queue) {
		s.queue = s.queue[:0]
		s.head = 0
		return
	}
	if s.head > 64 && s.head*2 > len(s.queue) {
		s.queue = append(s.queue[:0], s.queue[s.head:]...)
		s.head = 0
	}
}

// IsEmpty reports whether no URL is waiting.
func (s *Store) IsEmpty() bool {
	return s.Len() == 0
}

// Len returns the number of URLs waiting.
func (s *Store) Len() int {
	return len(s.queue) - s.head
}

// Visited reports whether rawURL has already been enqueued.
func (s *Store) Visited(rawURL string) bool {
	key, err := model.NormalizeURL(rawURL)
	if err != nil {
		return false
	}
	_, seen := s.visited[key]
	return seen
}

// VisitedCount returns the number of distinct URLs ever enqueued.
func (s *Store) VisitedCount() int {
	return len(s.visited)
}

// Snapshot returns a copy of the pending URLs in queue order.
func (s *Store) Snapshot() []string {
	out := make([]string, s.Len())
	copy(out, s.queue[s.head:])
	return out
}
