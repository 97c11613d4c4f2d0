// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a bounded multi-producer multi-consumer queue.
//
// Vyukov-style ring buffer with per-slot sequence numbers:
//   - Full ABA safety via sequence-based validation
//   - No per-element allocation after construction
//   - FIFO in ticket order; tickets are handed out by atomic counters
//
// Each slot cycles through three states per lap for its owning ticket T:
// seq==T (writable), seq==T+1 (readable), seq==T+cap (re-armed for the
// next lap). The slot's sequence is the only synchronization between the
// producer and consumer of that lap; its acquire/release pair covers the
// payload.
//
// Blocking operations reserve a ticket with fetch-and-add and wait with
// the queue's [Backoff] policy; polling operations reserve with CAS and
// return ErrWouldBlock instead of waiting.
//
// Memory: n slots (16+ bytes per slot)
type MPMC[T any] struct {
	_           pad
	tail        atomix.Uint64 // Producer ticket counter
	_           pad
	head        atomix.Uint64 // Consumer ticket counter
	_           pad
	spins       atomix.Int64 // Wait rounds on contended blocking paths
	casFailures atomix.Int64 // Lost ticket races on polling paths
	_           pad
	buffer      []seqSlot[T]
	mask        uint64
	capacity    uint64
	backoff     Backoff
}

type seqSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort // Pad to cache line
}

// NewMPMC creates a new MPMC queue.
// Capacity rounds up to the next power of 2, with a minimum of 2.
// Panics if capacity < 1.
func NewMPMC[T any](capacity int) *MPMC[T] {
	return newMPMC[T](capacity, Backoff{})
}

func newMPMC[T any](capacity int, backoff Backoff) *MPMC[T] {
	if capacity < 1 {
		panic("ringq: capacity must be positive")
	}

	n := uint64(roundToPow2(capacity))
	q := &MPMC[T]{
		buffer:   make([]seqSlot[T], n),
		mask:     n - 1,
		capacity: n,
		backoff:  backoff.policy(),
	}

	// Slot i is immediately writable by ticket i.
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	return q
}

// Enqueue adds an element to the queue, waiting for a free slot if the
// queue is full. The ticket reservation itself never waits; only the
// slot handoff does.
func (q *MPMC[T]) Enqueue(elem *T) {
	ticket := q.tail.AddAcqRel(1) - 1
	slot := &q.buffer[ticket&q.mask]

	// seq reaches ticket once the consumer owning ticket-cap re-arms the
	// slot (immediately on the first lap).
	if slot.seq.LoadAcquire() != ticket {
		backoff := q.backoff.policy()
		for slot.seq.LoadAcquire() != ticket {
			q.spins.Add(1)
			backoff.Wait()
		}
	}

	slot.data = *elem
	slot.seq.StoreRelease(ticket + 1)
}

// Dequeue removes and returns an element, waiting for one to arrive if
// the queue is empty.
func (q *MPMC[T]) Dequeue() T {
	ticket := q.head.AddAcqRel(1) - 1
	slot := &q.buffer[ticket&q.mask]

	if slot.seq.LoadAcquire() != ticket+1 {
		backoff := q.backoff.policy()
		for slot.seq.LoadAcquire() != ticket+1 {
			q.spins.Add(1)
			backoff.Wait()
		}
	}

	elem := slot.data
	var zero T
	slot.data = zero
	// Re-arm for the producer that will own ticket+cap.
	slot.seq.StoreRelease(ticket + q.capacity)
	return elem
}

// TryEnqueue adds an element to the queue (non-blocking).
// Returns ErrWouldBlock if the queue is full. The retry loop is bounded
// by contention (lost CAS races), never by queue state.
func (q *MPMC[T]) TryEnqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
			q.casFailures.Add(1)
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// TryDequeue removes and returns an element from the queue (non-blocking).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPMC[T]) TryDequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
			q.casFailures.Add(1)
		} else if diff < 0 {
			var zero T
			return zero, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}

// Stats is a snapshot of MPMC contention counters.
//
// Enqueues and Dequeues count reserved tickets, so they include
// operations still in flight. Spins counts wait rounds on the blocking
// paths; CASFailures counts lost ticket races on the polling paths.
// Both are bumped only when an operation actually contends.
type Stats struct {
	Enqueues    uint64
	Dequeues    uint64
	Spins       uint64
	CASFailures uint64
}

// Stats returns a snapshot of the queue's contention counters.
// Counters are read independently; the snapshot is approximate under
// concurrent traffic.
func (q *MPMC[T]) Stats() Stats {
	return Stats{
		Enqueues:    q.tail.LoadAcquire(),
		Dequeues:    q.head.LoadAcquire(),
		Spins:       uint64(q.spins.Load()),
		CASFailures: uint64(q.casFailures.Load()),
	}
}
