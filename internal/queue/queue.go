package queue

import (
	"sync"
)

// Ticket identifies a pushed item so it can be cancelled before it is drained.
type Ticket uint64

type entry[T any] struct {
	ticket Ticket
	item   T
}

// Queue is a generic thread-safe FIFO whose pending items can be cancelled.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []entry[T]
	issued Ticket
}

// New creates a new empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		items: make([]entry[T], 0),
	}
}

// Push appends an item and returns its ticket. Tickets are never zero.
func (q *Queue[T]) Push(item T) Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.issued++
	q.items = append(q.items, entry[T]{ticket: q.issued, item: item})
	return q.issued
}

// Cancel drops a pending item. It returns false when the ticket was already
// drained or cancelled.
func (q *Queue[T]) Cancel(t Ticket) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.items {
		if e.ticket == t {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Empty returns true if the queue has no items.
func (q *Queue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// Len returns the number of items in the queue.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear removes all items from the queue.
func (q *Queue[T]) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = q.items[:0]
}

// Drain returns all pending items in push order and empties the queue.
// Items pushed while the caller processes the result wait for the next Drain.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]T, len(q.items))
	for i, e := range q.items {
		result[i] = e.item
	}
	q.items = make([]entry[T], 0, cap(q.items))
	return result
}
