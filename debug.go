// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

// Diagnostic accessors. These exist for tests and instrumentation, not
// for flow control: under concurrent traffic every value below is stale
// by the time the caller sees it.

// SlotSeq returns the current sequence number of slot i.
//
// For a queue of capacity cap, a slot's sequence is always congruent to
// its owning ticket, ticket+1, or ticket+cap; equivalently
// (SlotSeq(i)-uint64(i)) & uint64(cap-1) is 0 or 1 at any instant.
// A freshly constructed queue has SlotSeq(i) == i.
func (q *MPMC[T]) SlotSeq(i int) uint64 {
	return q.buffer[uint64(i)&q.mask].seq.LoadAcquire()
}

// Tickets returns the next producer and consumer ticket values.
// Both are monotonic; producer-consumer bounds the occupancy (tickets
// include reservations still in flight).
func (q *MPMC[T]) Tickets() (producer, consumer uint64) {
	return q.tail.LoadAcquire(), q.head.LoadAcquire()
}

// Len returns the approximate number of occupied slots.
func (q *MPMC[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if head >= tail {
		return 0
	}
	return int(tail - head)
}

// Len returns the approximate number of occupied slots.
// Exact when called from either the producer or consumer goroutine
// while the other side is idle.
func (q *SPSC[T]) Len() int {
	tail := q.tail.LoadAcquire()
	head := q.head.LoadAcquire()
	if head >= tail {
		return 0
	}
	return int(tail - head)
}

// Len returns the approximate number of queued elements, including
// enqueues that have reserved room but not yet linked their node.
func (q *List[T]) Len() int {
	n := q.length.Load()
	if n < 0 {
		return 0
	}
	if n > q.capacity {
		return int(q.capacity)
	}
	return int(n)
}
