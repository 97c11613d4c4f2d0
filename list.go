// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// List is a bounded multi-producer multi-consumer queue backed by a
// Michael & Scott linked list with a dummy head node.
//
// Compared to [MPMC], List allocates one node per element and chases
// pointers, but occupied memory tracks the live element count instead of
// the full capacity. Capacity is enforced by an atomic length
// reservation and kept exactly as requested (no power-of-two rounding).
//
// A dequeue swings head to the next node, making the old dummy
// unreachable; the garbage collector reclaims it, so no hazard pointers
// or epochs are needed. The node promoted to dummy retains the last
// dequeued value until the following dequeue makes the node unreachable.
type List[T any] struct {
	_        pad
	head     atomic.Pointer[listNode[T]] // Dummy node
	_        pad
	tail     atomic.Pointer[listNode[T]]
	_        pad
	length   atomix.Int64 // Reservation counter enforcing the bound
	_        pad
	capacity int64
	backoff  Backoff
}

type listNode[T any] struct {
	next atomic.Pointer[listNode[T]]
	data T
}

// NewList creates a new node-based queue holding at most capacity
// elements. Capacity is kept exactly as requested, minimum 1.
// Panics if capacity < 1.
func NewList[T any](capacity int) *List[T] {
	return newList[T](capacity, Backoff{})
}

func newList[T any](capacity int, backoff Backoff) *List[T] {
	if capacity < 1 {
		panic("ringq: capacity must be positive")
	}

	q := &List[T]{
		capacity: int64(capacity),
		backoff:  backoff.policy(),
	}
	dummy := &listNode[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Enqueue adds an element to the queue, waiting for room if the queue
// holds capacity elements.
func (q *List[T]) Enqueue(elem *T) {
	if q.reserve() {
		q.append(elem)
		return
	}
	backoff := q.backoff.policy()
	for !q.reserve() {
		backoff.Wait()
	}
	q.append(elem)
}

// Dequeue removes and returns an element, waiting for one to arrive if
// the queue is empty.
func (q *List[T]) Dequeue() T {
	elem, err := q.TryDequeue()
	if err == nil {
		return elem
	}
	backoff := q.backoff.policy()
	for {
		backoff.Wait()
		if elem, err = q.TryDequeue(); err == nil {
			return elem
		}
	}
}

// TryEnqueue adds an element to the queue (non-blocking).
// Returns ErrWouldBlock if the queue already holds capacity elements.
func (q *List[T]) TryEnqueue(elem *T) error {
	if !q.reserve() {
		return ErrWouldBlock
	}
	q.append(elem)
	return nil
}

// TryDequeue removes and returns an element from the queue (non-blocking).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *List[T]) TryDequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head == q.head.Load() {
			if head == tail {
				if next == nil {
					var zero T
					return zero, ErrWouldBlock
				}
				// Tail lagging behind an in-flight append; help it along.
				q.tail.CompareAndSwap(tail, next)
			} else {
				elem := next.data
				if q.head.CompareAndSwap(head, next) {
					q.length.Add(-1)
					return elem, nil
				}
			}
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *List[T]) Cap() int {
	return int(q.capacity)
}

// reserve claims room for one element, undoing the claim when the queue
// is at capacity.
func (q *List[T]) reserve() bool {
	if q.length.Add(1) > q.capacity {
		q.length.Add(-1)
		return false
	}
	return true
}

// append links a new node at the tail. Room must already be reserved.
func (q *List[T]) append(elem *T) {
	n := &listNode[T]{data: *elem}
	sw := spin.Wait{}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail == q.tail.Load() {
			if next == nil {
				if tail.next.CompareAndSwap(nil, n) {
					q.tail.CompareAndSwap(tail, n)
					return
				}
			} else {
				q.tail.CompareAndSwap(tail, next)
			}
		}
		sw.Once()
	}
}
