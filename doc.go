// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringq provides bounded lock-free FIFO queues with blocking and
// polling operation forms.
//
// The package offers three backends behind one interface:
//
//   - MPMC: Multi-Producer Multi-Consumer ring (ticket/sequence protocol)
//   - SPSC: Single-Producer Single-Consumer ring (Lamport, cached indices)
//   - List: Multi-Producer Multi-Consumer linked nodes (Michael & Scott)
//
// # Quick Start
//
// Direct constructors (recommended for most cases):
//
//	q := ringq.NewSPSC[Event](1024)
//	q := ringq.NewMPMC[*Request](4096)
//	q := ringq.NewList[Job](4096)
//
// Builder API auto-selects the backend based on constraints:
//
//	q := ringq.Build[Event](ringq.New(1024).SingleProducer().SingleConsumer())  // → SPSC
//	q := ringq.Build[Event](ringq.New(1024).Linked())                           // → List
//	q := ringq.Build[Event](ringq.New(1024))                                    // → MPMC
//
// # Blocking vs Polling
//
// Every queue offers each operation in two forms:
//
//	// Blocking: waits with the queue's Backoff policy, never fails.
//	// A full queue is observed only as latency (backpressure).
//	q.Enqueue(&value)
//	elem := q.Dequeue()
//
//	// Polling: returns immediately, reporting ErrWouldBlock.
//	if err := q.TryEnqueue(&value); ringq.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure yourself
//	}
//	elem, err := q.TryDequeue()
//
// The blocking forms carry no context and cannot be cancelled; a blocked
// goroutine resumes only when the queue makes progress. Callers needing
// deadlines build them on the polling forms:
//
//	backoff := ringq.Backoff{}
//	deadline := time.Now().Add(time.Second)
//	for q.TryEnqueue(&value) != nil {
//	    if time.Now().After(deadline) {
//	        return ErrTimeout
//	    }
//	    backoff.Wait()
//	}
//	backoff.Reset()
//
// # The Ticket/Sequence Protocol
//
// MPMC hands every producer and consumer a unique monotonic ticket from
// one of two counters. Ticket T maps to slot T & (cap-1); the slot's
// sequence number says whose turn it is: seq==T means ticket T may
// write, seq==T+1 means the value is published for the consumer owning
// ticket T, and the consumer re-arms the slot with seq=T+cap for the
// producer one lap later. The sequence field is the only happens-before
// edge between the two sides of a lap, published with release ordering
// and awaited with acquire ordering.
//
// Items are dequeued in ticket order. With concurrent producers the
// ticket order is the order of counter reservation, not wall-clock
// publish order.
//
// # Common Patterns
//
// Pipeline Stage (SPSC):
//
//	q := ringq.NewSPSC[Data](1024)
//
//	go func() { // Producer (Stage 1)
//	    for data := range input {
//	        q.Enqueue(&data)
//	    }
//	}()
//
//	go func() { // Consumer (Stage 2)
//	    for {
//	        process(q.Dequeue())
//	    }
//	}()
//
// Worker Pool (MPMC):
//
//	q := ringq.NewMPMC[Job](4096)
//
//	// Workers block until jobs arrive
//	for range numWorkers {
//	    go func() {
//	        for {
//	            job := q.Dequeue()
//	            job.Run()
//	        }
//	    }()
//	}
//
//	// Submit without blocking the caller
//	func Submit(j Job) error {
//	    return q.TryEnqueue(&j)
//	}
//
// # Backend Selection
//
// MPMC is the default: allocation-free after construction, cache-local,
// bounded memory. SPSC removes the per-slot sequence overhead when
// exactly one goroutine produces and one consumes. List trades per-node
// allocation for memory proportional to the live element count; it keeps
// the requested capacity exactly instead of rounding.
//
//	BuildMPMC[T](b) → *MPMC[T]  // Requires no constraints
//	BuildSPSC[T](b) → *SPSC[T]  // Requires SP + SC
//	BuildList[T](b) → *List[T]  // Requires Linked()
//
// # Backoff Policy
//
// Blocking operations wait with an escalating [Backoff] policy: CPU
// pause instructions, then scheduler yields, then short sleeps. The
// policy is data, not code - tune it per queue without touching the
// algorithm:
//
//	q := ringq.BuildMPMC[Job](ringq.New(4096).Backoff(ringq.Backoff{
//	    PauseRounds: 32,
//	    YieldRounds: 64,
//	    Sleep:       time.Microsecond,
//	}))
//
// # Capacity
//
// Ring backends round capacity up to the next power of 2 so that slot
// indexing is a mask instead of a modulo:
//
//	q := ringq.NewMPMC[int](3)     // Actual capacity: 4
//	q := ringq.NewMPMC[int](1000)  // Actual capacity: 1024
//	q := ringq.NewMPMC[int](1)     // Actual capacity: 2 (clamped minimum)
//
// Usable capacity may therefore exceed the request; Cap reports the
// actual value. The List backend keeps the requested capacity exactly.
// All constructors panic if capacity < 1.
//
// Length is intentionally absent from the Queue interface because
// accurate counts in lock-free algorithms require expensive cross-core
// synchronization. The concrete types expose approximate Len methods
// for diagnostics.
//
// # Instrumentation
//
// MPMC counts contention on its own operations:
//
//	s := q.Stats()
//	fmt.Println(s.Enqueues, s.Dequeues, s.Spins, s.CASFailures)
//
// For per-worker accounting, [Registry] provides a fixed table of
// counter slots that goroutines claim at startup and release at
// teardown. The registry is an explicit object - create one per queue or
// per domain and pass it to the workers; there is no process-global
// table.
//
// # Error Handling
//
// The polling operations return [ErrWouldBlock] when they cannot proceed.
// This error is sourced from [code.hybscloud.com/iox] for ecosystem
// consistency; it is a routine control-flow signal, never logged and
// never wrapped with context. The blocking operations have no error
// path at all. The only other failure mode is a construction panic on
// non-positive capacity.
//
//	ringq.IsWouldBlock(err)  // true if queue full/empty
//	ringq.IsSemantic(err)    // true if control flow signal
//	ringq.IsNonFailure(err)  // true for nil or ErrWouldBlock
//
// # Thread Safety
//
// All queue operations are thread-safe within their access pattern
// constraints:
//
//   - SPSC: One producer goroutine, one consumer goroutine
//   - MPMC/List: Any number of producer and consumer goroutines
//
// Violating these constraints (e.g., multiple producers on SPSC) causes
// undefined behavior including data corruption and races.
//
// # Race Detection
//
// Go's race detector tracks explicit synchronization primitives (mutex,
// channels, WaitGroup) but cannot observe happens-before relationships
// established through atomic memory orderings on separate variables.
// The sequence protocol protects non-atomic payload fields exactly that
// way, so the detector may report false positives on correct runs.
//
// For lock-free algorithm correctness verification, use:
//   - Formal verification tools (TLA+, SPIN)
//   - Stress testing without race detector
//   - Memory model analysis
//
// Tests incompatible with race detection are excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package ringq
