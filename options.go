// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Options configures queue creation and backend selection.
type Options struct {
	// Producer/Consumer constraints (determines queue type)
	singleProducer bool
	singleConsumer bool

	// Backend hints
	linked bool // Node-based backend instead of the ring

	// Wait policy for blocking operations
	backoff Backoff

	// Capacity (ring backends round up to next power of 2)
	capacity int
}

// Builder creates queues with fluent configuration.
//
// Builder provides a fluent API for configuring and creating queues.
// The builder selects the backend based on producer/consumer constraints
// and backend hints.
//
// Example:
//
//	// SPSC queue (optimal for single producer/consumer)
//	q := ringq.BuildSPSC[Event](ringq.New(1024).SingleProducer().SingleConsumer())
//
//	// MPMC ring queue (default, general purpose)
//	q := ringq.BuildMPMC[Request](ringq.New(4096))
//
//	// Node-based backend with a tuned wait policy
//	q := ringq.Build[Job](ringq.New(4096).Linked().Backoff(ringq.Backoff{YieldRounds: 64}))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given capacity.
//
// Ring backends round capacity up to the next power of 2, with a minimum
// of 2. For example, capacity=1 results in actual capacity=2, capacity=1000
// results in actual capacity=1024. The node backend keeps the exact value.
//
// Panics if capacity < 1.
//
// Example:
//
//	// Create builder, then configure and build
//	b := ringq.New(1024)
//	q := ringq.BuildSPSC[int](b.SingleProducer().SingleConsumer())
//
//	// Or chain directly
//	q := ringq.BuildMPMC[int](ringq.New(1024))
func New(capacity int) *Builder {
	if capacity < 1 {
		panic("ringq: capacity must be positive")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will enqueue.
// Enables the SPSC backend when combined with SingleConsumer.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// SingleConsumer declares that only one goroutine will dequeue.
// Enables the SPSC backend when combined with SingleProducer.
func (b *Builder) SingleConsumer() *Builder {
	b.opts.singleConsumer = true
	return b
}

// Linked selects the node-based backend instead of the ring.
//
// Trade-off: per-element allocation and pointer chasing, but occupied
// memory tracks the live element count instead of the full capacity.
func (b *Builder) Linked() *Builder {
	b.opts.linked = true
	return b
}

// Backoff installs the wait policy used by blocking operations on the
// built queue. The zero policy escalates pause, yield, sleep with the
// default thresholds.
func (b *Builder) Backoff(policy Backoff) *Builder {
	b.opts.backoff = policy
	return b
}

// Build creates a Queue[T] with automatic backend selection.
//
// Backend selection:
//
//	Linked()                        → List (Michael & Scott nodes)
//	SingleProducer + SingleConsumer → SPSC (Lamport ring buffer)
//	Otherwise                       → MPMC (ticket/sequence ring)
//
// For concrete return types, use:
//   - BuildSPSC[T](b) → *SPSC[T]
//   - BuildMPMC[T](b) → *MPMC[T]
//   - BuildList[T](b) → *List[T]
func Build[T any](b *Builder) Queue[T] {
	switch {
	case b.opts.linked:
		return newList[T](b.opts.capacity, b.opts.backoff)
	case b.opts.singleProducer && b.opts.singleConsumer:
		return newSPSC[T](b.opts.capacity, b.opts.backoff)
	default:
		return newMPMC[T](b.opts.capacity, b.opts.backoff)
	}
}

// BuildSPSC creates an SPSC queue with compile-time type safety.
// Panics if builder is not configured with SingleProducer().SingleConsumer(),
// or if Linked() is set.
func BuildSPSC[T any](b *Builder) *SPSC[T] {
	if !b.opts.singleProducer || !b.opts.singleConsumer {
		panic("ringq: BuildSPSC requires SingleProducer().SingleConsumer()")
	}
	if b.opts.linked {
		panic("ringq: BuildSPSC conflicts with Linked()")
	}
	return newSPSC[T](b.opts.capacity, b.opts.backoff)
}

// BuildMPMC creates an MPMC ring queue with compile-time type safety.
// Panics if builder has any constraints or backend hints set.
func BuildMPMC[T any](b *Builder) *MPMC[T] {
	if b.opts.singleProducer || b.opts.singleConsumer {
		panic("ringq: BuildMPMC requires no constraints")
	}
	if b.opts.linked {
		panic("ringq: BuildMPMC conflicts with Linked()")
	}
	return newMPMC[T](b.opts.capacity, b.opts.backoff)
}

// BuildList creates a node-based queue with compile-time type safety.
// Panics if builder is not configured with Linked().
func BuildList[T any](b *Builder) *List[T] {
	if !b.opts.linked {
		panic("ringq: BuildList requires Linked()")
	}
	return newList[T](b.opts.capacity, b.opts.backoff)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad = cpu.CacheLinePad

// padShort is padding to fill cache line after 8-byte field.
type padShort [unsafe.Sizeof(cpu.CacheLinePad{}) - 8]byte
