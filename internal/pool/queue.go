package pool

import "sync"

// taskQueue is an unbounded FIFO shared by all executors.
// push never blocks, so submitting work never waits for a free executor.
type taskQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []T
	closed bool
}

func newTaskQueue[T any]() *taskQueue[T] {
	q := &taskQueue[T]{items: make([]T, 0)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends item, or reports false once the queue is closed.
func (q *taskQueue[T]) push(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, item)
	q.cond.Signal()
	return true
}

// pop blocks until an item is available. After close it keeps returning the
// remaining items and then reports false.
func (q *taskQueue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}

	item := q.items[0]
	var zero T
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

// close stops accepting items and wakes every waiting executor.
func (q *taskQueue[T]) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// size returns the number of queued items.
func (q *taskQueue[T]) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
