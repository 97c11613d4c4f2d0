// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"code.hybscloud.com/atomix"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's dequeue index, and vice versa,
// reducing cross-core cache line traffic. No per-slot sequence numbers
// are needed; the two indices alone order every access.
//
// Exactly one goroutine may call the producer operations and exactly one
// the consumer operations. Violating that constraint corrupts the queue.
//
// Memory: O(capacity) with minimal per-slot overhead
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
	backoff    Backoff
}

// NewSPSC creates a new SPSC queue.
// Capacity rounds up to the next power of 2, with a minimum of 2.
// Panics if capacity < 1.
func NewSPSC[T any](capacity int) *SPSC[T] {
	return newSPSC[T](capacity, Backoff{})
}

func newSPSC[T any](capacity int, backoff Backoff) *SPSC[T] {
	if capacity < 1 {
		panic("ringq: capacity must be positive")
	}

	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer:  make([]T, n),
		mask:    n - 1,
		backoff: backoff.policy(),
	}
}

// Enqueue adds an element to the queue (producer only), waiting for a
// free slot if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) {
	if q.TryEnqueue(elem) == nil {
		return
	}
	backoff := q.backoff.policy()
	for q.TryEnqueue(elem) != nil {
		backoff.Wait()
	}
}

// Dequeue removes and returns an element (consumer only), waiting for
// one to arrive if the queue is empty.
func (q *SPSC[T]) Dequeue() T {
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

// TryEnqueue adds an element to the queue (producer only, non-blocking).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) TryEnqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// TryDequeue removes and returns an element (consumer only, non-blocking).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) TryDequeue() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// Peek returns the next element without removing it (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
// The returned value is a copy; the slot is handed back to the producer
// only by a later dequeue.
func (q *SPSC[T]) Peek() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}
	return q.buffer[head&q.mask], nil
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}
