// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

// Queue is the combined producer-consumer interface for a bounded FIFO queue.
//
// Every queue offers each operation in two forms. The blocking form
// (Enqueue, Dequeue) waits with the queue's [Backoff] policy until it can
// proceed and never reports an error. The polling form (TryEnqueue,
// TryDequeue) returns ErrWouldBlock instead of waiting.
//
// The interface intentionally excludes length because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
// Diagnostic approximations live on the concrete types.
//
// Example:
//
//	q := ringq.NewMPMC[int](1024)
//
//	// Blocking: waits for space, never fails
//	val := 42
//	q.Enqueue(&val)
//
//	// Polling: returns immediately
//	if err := q.TryEnqueue(&val); ringq.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs. The
// queue stores a copy of the pointed-to value, so the original can be
// modified after the call returns.
type Producer[T any] interface {
	// Enqueue adds an element to the queue, waiting for a free slot if
	// the queue is full. It always succeeds eventually; a full queue is
	// observed only as latency (intentional backpressure). There is no
	// cancellation - deadline behavior belongs on TryEnqueue.
	//
	// Thread safety depends on queue type:
	//   - SPSC: single producer only
	//   - MPMC/List: multiple producers safe
	Enqueue(elem *T)

	// TryEnqueue adds an element to the queue (non-blocking).
	// Returns nil on success, ErrWouldBlock if the queue is full.
	// Safe to call from hot loops polling for space.
	TryEnqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The element is returned by value (copied from the queue's internal
// buffer). The vacated slot is cleared to allow garbage collection of
// referenced objects.
type Consumer[T any] interface {
	// Dequeue removes and returns an element, waiting for one to arrive
	// if the queue is empty. There is no cancellation - deadline behavior
	// belongs on TryDequeue.
	//
	// Thread safety depends on queue type:
	//   - SPSC: single consumer only
	//   - MPMC/List: multiple consumers safe
	Dequeue() T

	// TryDequeue removes and returns an element (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	TryDequeue() (T, error)
}

var (
	_ Queue[int] = (*MPMC[int])(nil)
	_ Queue[int] = (*SPSC[int])(nil)
	_ Queue[int] = (*List[int])(nil)
)
