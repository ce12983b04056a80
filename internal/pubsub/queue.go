package pubsub

import (
	"fmt"
	"sync"
)

// OverflowPolicy decides what a bounded subscription does when a message
// arrives while it is full. Publishers are never blocked.
type OverflowPolicy int

const (
	// OverflowDropOldest discards the oldest queued message to make room.
	OverflowDropOldest OverflowPolicy = iota
	// OverflowDropNewest discards the incoming message.
	OverflowDropNewest
)

// String returns the configuration spelling of the policy.
func (p OverflowPolicy) String() string {
	switch p {
	case OverflowDropOldest:
		return "drop_oldest"
	case OverflowDropNewest:
		return "drop_newest"
	default:
		return "unknown"
	}
}

// ParseOverflowPolicy parses "drop_oldest" or "drop_newest".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "drop_oldest", "":
		return OverflowDropOldest, nil
	case "drop_newest":
		return OverflowDropNewest, nil
	default:
		return 0, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// queue is a FIFO with an optional capacity. capacity 0 means unbounded.
type queue[T any] struct {
	mu       sync.Mutex
	items    []T
	head     int
	capacity int
	policy   OverflowPolicy
	dropped  uint64
}

func newQueue[T any](capacity int, policy OverflowPolicy) *queue[T] {
	return &queue[T]{capacity: capacity, policy: policy}
}

// push appends msg and reports whether a message was dropped to respect the
// capacity.
func (q *queue[T]) push(msg T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && q.lenLocked() >= q.capacity {
		q.dropped++
		if q.policy == OverflowDropNewest {
			return true
		}
		q.popLocked()
		q.items = append(q.items, msg)
		return true
	}
	q.items = append(q.items, msg)
	return false
}

func (q *queue[T]) pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *queue[T]) popLocked() (T, bool) {
	var zero T
	if q.lenLocked() == 0 {
		return zero, false
	}
	msg := q.items[q.head]
	q.items[q.head] = zero
	q.head++

	// Compact once the consumed prefix dominates the backing array.
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	} else if q.head > 32 && q.head*2 > len(q.items) {
		n := copy(q.items, q.items[q.head:])
		clear(q.items[n:])
		q.items = q.items[:n]
		q.head = 0
	}
	return msg, true
}

func (q *queue[T]) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lenLocked()
}

func (q *queue[T]) lenLocked() int {
	return len(q.items) - q.head
}

func (q *queue[T]) droppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
