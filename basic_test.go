// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/ringq"
)

// =============================================================================
// Basic Operations (polling API)
// =============================================================================

// TestMPMCBasic tests basic MPMC polling operations.
func TestMPMCBasic(t *testing.T) {
	q := ringq.NewMPMC[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	// Enqueue to capacity
	for i := range 4 {
		v := i + 100
		if err := q.TryEnqueue(&v); err != nil {
			t.Fatalf("TryEnqueue(%d): %v", i, err)
		}
	}

	// Full queue returns ErrWouldBlock
	v := 999
	if err := q.TryEnqueue(&v); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryEnqueue on full: got %v, want ErrWouldBlock", err)
	}

	// Dequeue in FIFO order
	for i := range 4 {
		val, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("TryDequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	// Empty queue returns ErrWouldBlock
	if _, err := q.TryDequeue(); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryDequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestSPSCBasic tests basic SPSC polling operations.
func TestSPSCBasic(t *testing.T) {
	q := ringq.NewSPSC[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	for i := range 4 {
		v := i + 100
		if err := q.TryEnqueue(&v); err != nil {
			t.Fatalf("TryEnqueue(%d): %v", i, err)
		}
	}

	v := 999
	if err := q.TryEnqueue(&v); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryEnqueue on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 4 {
		val, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("TryDequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.TryDequeue(); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryDequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestListBasic tests basic List polling operations.
// The node backend keeps the requested capacity exactly.
func TestListBasic(t *testing.T) {
	q := ringq.NewList[int](3)

	if q.Cap() != 3 {
		t.Fatalf("Cap: got %d, want 3", q.Cap())
	}

	for i := range 3 {
		v := i + 100
		if err := q.TryEnqueue(&v); err != nil {
			t.Fatalf("TryEnqueue(%d): %v", i, err)
		}
	}

	v := 999
	if err := q.TryEnqueue(&v); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryEnqueue on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 3 {
		val, err := q.TryDequeue()
		if err != nil {
			t.Fatalf("TryDequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("TryDequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.TryDequeue(); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("TryDequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// =============================================================================
// Capacity Rounding
// =============================================================================

// TestCapacityRounding verifies power-of-two rounding on the ring
// backends and exact capacity on the node backend.
func TestCapacityRounding(t *testing.T) {
	ringTests := []struct {
		requested, want int
	}{
		{1, 2}, // clamped minimum
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{1024, 1024},
	}

	for _, tt := range ringTests {
		if got := ringq.NewMPMC[int](tt.requested).Cap(); got != tt.want {
			t.Errorf("NewMPMC(%d).Cap: got %d, want %d", tt.requested, got, tt.want)
		}
		if got := ringq.NewSPSC[int](tt.requested).Cap(); got != tt.want {
			t.Errorf("NewSPSC(%d).Cap: got %d, want %d", tt.requested, got, tt.want)
		}
	}

	for _, requested := range []int{1, 3, 5, 1000} {
		if got := ringq.NewList[int](requested).Cap(); got != requested {
			t.Errorf("NewList(%d).Cap: got %d, want %d", requested, got, requested)
		}
	}
}

// TestConstructorPanics verifies that non-positive capacity panics at
// construction for every backend.
func TestConstructorPanics(t *testing.T) {
	constructors := map[string]func(int){
		"NewMPMC": func(c int) { ringq.NewMPMC[int](c) },
		"NewSPSC": func(c int) { ringq.NewSPSC[int](c) },
		"NewList": func(c int) { ringq.NewList[int](c) },
		"New":     func(c int) { ringq.New(c) },
	}

	for name, construct := range constructors {
		for _, capacity := range []int{0, -1} {
			func() {
				defer func() {
					if recover() == nil {
						t.Errorf("%s(%d): expected panic", name, capacity)
					}
				}()
				construct(capacity)
			}()
		}
	}
}

// =============================================================================
// Saturation (polling API under full/empty transitions)
// =============================================================================

// TestSaturation fills a capacity-4 queue with exactly 4 TryEnqueue
// calls, verifies the 5th fails without blocking, and that one
// TryDequeue frees exactly one slot.
func TestSaturation(t *testing.T) {
	queues := map[string]ringq.Queue[int]{
		"MPMC": ringq.NewMPMC[int](4),
		"SPSC": ringq.NewSPSC[int](4),
		"List": ringq.NewList[int](4),
	}

	for name, q := range queues {
		t.Run(name, func(t *testing.T) {
			for i := range 4 {
				v := i
				if err := q.TryEnqueue(&v); err != nil {
					t.Fatalf("TryEnqueue(%d): %v", i, err)
				}
			}

			v := 4
			if err := q.TryEnqueue(&v); !errors.Is(err, ringq.ErrWouldBlock) {
				t.Fatalf("TryEnqueue on full: got %v, want ErrWouldBlock", err)
			}

			if val, err := q.TryDequeue(); err != nil || val != 0 {
				t.Fatalf("TryDequeue: got (%d, %v), want (0, nil)", val, err)
			}

			// One slot vacated: the next TryEnqueue must succeed
			if err := q.TryEnqueue(&v); err != nil {
				t.Fatalf("TryEnqueue after TryDequeue: %v", err)
			}
		})
	}
}

// =============================================================================
// Blocking API (sequential) - 10k ordered smoke test
// =============================================================================

// TestBlockingSequentialOrder pushes 10,000 sequential integers through
// each backend with the blocking API, alternating enqueue/dequeue so
// the queue never fills, and checks they come out 0..9999 in order.
func TestBlockingSequentialOrder(t *testing.T) {
	const total = 10000

	queues := map[string]ringq.Queue[int]{
		"MPMC": ringq.NewMPMC[int](16),
		"SPSC": ringq.NewSPSC[int](16),
		"List": ringq.NewList[int](16),
	}

	for name, q := range queues {
		t.Run(name, func(t *testing.T) {
			for i := range total {
				v := i
				q.Enqueue(&v)
				if got := q.Dequeue(); got != i {
					t.Fatalf("Dequeue(%d): got %d, want %d", i, got, i)
				}
			}
		})
	}
}

// =============================================================================
// SPSC Peek
// =============================================================================

// TestSPSCPeek verifies Peek observes the next element without
// consuming it.
func TestSPSCPeek(t *testing.T) {
	q := ringq.NewSPSC[int](4)

	if _, err := q.Peek(); !errors.Is(err, ringq.ErrWouldBlock) {
		t.Fatalf("Peek on empty: got %v, want ErrWouldBlock", err)
	}

	v := 7
	q.Enqueue(&v)
	v = 8
	q.Enqueue(&v)

	// Peek is idempotent
	for range 3 {
		got, err := q.Peek()
		if err != nil || got != 7 {
			t.Fatalf("Peek: got (%d, %v), want (7, nil)", got, err)
		}
	}

	if got := q.Dequeue(); got != 7 {
		t.Fatalf("Dequeue after Peek: got %d, want 7", got)
	}
	if got, err := q.Peek(); err != nil || got != 8 {
		t.Fatalf("Peek after Dequeue: got (%d, %v), want (8, nil)", got, err)
	}
}

// =============================================================================
// Len Diagnostics
// =============================================================================

// TestLenSequential verifies the approximate Len accessors track
// sequential traffic exactly.
func TestLenSequential(t *testing.T) {
	mpmc := ringq.NewMPMC[int](8)
	spsc := ringq.NewSPSC[int](8)
	list := ringq.NewList[int](8)

	type lener interface{ Len() int }
	check := func(name string, l lener, want int) {
		t.Helper()
		if got := l.Len(); got != want {
			t.Errorf("%s.Len: got %d, want %d", name, got, want)
		}
	}

	check("MPMC", mpmc, 0)
	check("SPSC", spsc, 0)
	check("List", list, 0)

	for i := range 5 {
		v := i
		mpmc.Enqueue(&v)
		spsc.Enqueue(&v)
		list.Enqueue(&v)
	}
	check("MPMC", mpmc, 5)
	check("SPSC", spsc, 5)
	check("List", list, 5)

	mpmc.Dequeue()
	spsc.Dequeue()
	list.Dequeue()
	check("MPMC", mpmc, 4)
	check("SPSC", spsc, 4)
	check("List", list, 4)
}

// =============================================================================
// Error Classification
// =============================================================================

// TestErrorClassification verifies ErrWouldBlock is classified as a
// non-failure control flow signal.
func TestErrorClassification(t *testing.T) {
	q := ringq.NewMPMC[int](2)
	_, err := q.TryDequeue()

	if !ringq.IsWouldBlock(err) {
		t.Error("IsWouldBlock(ErrWouldBlock) = false")
	}
	if !ringq.IsSemantic(err) {
		t.Error("IsSemantic(ErrWouldBlock) = false")
	}
	if !ringq.IsNonFailure(err) {
		t.Error("IsNonFailure(ErrWouldBlock) = false")
	}
	if !ringq.IsNonFailure(nil) {
		t.Error("IsNonFailure(nil) = false")
	}
	if ringq.IsWouldBlock(nil) {
		t.Error("IsWouldBlock(nil) = true")
	}
}
