// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"code.hybscloud.com/atomix"
)

// Registry is a fixed-size table of worker slots with per-worker
// operation counters.
//
// It replaces the process-global thread table pattern: the registry is
// an explicit object created per queue or per domain and handed to
// workers at startup, so its lifetime and teardown are visible in the
// code that owns it. There is no package-level state.
//
// Workers claim a slot with [Registry.Attach] and free it with
// [Worker.Release]. Counters survive release and keep accumulating when
// a slot is reused, so [Registry.Snapshot] reports domain totals across
// worker generations.
//
// Example:
//
//	reg := ringq.NewRegistry(8)
//	for range 8 {
//	    go func() {
//	        w, err := reg.Attach()
//	        if err != nil {
//	            return // table full
//	        }
//	        defer w.Release()
//	        // ... w.CountEnqueue() / w.CountDequeue() / w.CountWait()
//	    }()
//	}
type Registry struct {
	slots []workerSlot
}

type workerSlot struct {
	claimed  atomix.Uint64
	enqueues atomix.Int64
	dequeues atomix.Int64
	waits    atomix.Int64
	_        padShort
}

// Worker is a claimed registry slot. Each Worker belongs to exactly one
// goroutine at a time; counter bumps are uncontended in normal use.
type Worker struct {
	slot *workerSlot
}

// WorkerStats is an aggregated snapshot of registry counters.
type WorkerStats struct {
	Enqueues uint64
	Dequeues uint64
	Waits    uint64
}

// NewRegistry creates a registry with the given number of worker slots.
// Panics if workers < 1.
func NewRegistry(workers int) *Registry {
	if workers < 1 {
		panic("ringq: registry needs at least one worker slot")
	}
	return &Registry{slots: make([]workerSlot, workers)}
}

// Attach claims a free slot and returns its Worker.
// Returns ErrWouldBlock when every slot is claimed; slots free again on
// [Worker.Release], so exhaustion is transient, not fatal.
func (r *Registry) Attach() (*Worker, error) {
	for i := range r.slots {
		slot := &r.slots[i]
		if slot.claimed.LoadRelaxed() != 0 {
			continue
		}
		if slot.claimed.CompareAndSwapAcqRel(0, 1) {
			return &Worker{slot: slot}, nil
		}
	}
	return nil, ErrWouldBlock
}

// Size returns the number of worker slots.
func (r *Registry) Size() int {
	return len(r.slots)
}

// Snapshot aggregates the counters of all slots, claimed or not.
// Counters are read independently; the snapshot is approximate under
// concurrent traffic.
func (r *Registry) Snapshot() WorkerStats {
	var s WorkerStats
	for i := range r.slots {
		slot := &r.slots[i]
		s.Enqueues += uint64(slot.enqueues.Load())
		s.Dequeues += uint64(slot.dequeues.Load())
		s.Waits += uint64(slot.waits.Load())
	}
	return s
}

// Release frees the worker's slot for the next Attach.
// The worker must not be used after Release.
func (w *Worker) Release() {
	slot := w.slot
	w.slot = nil
	slot.claimed.StoreRelease(0)
}

// CountEnqueue records one completed enqueue.
func (w *Worker) CountEnqueue() { w.slot.enqueues.Add(1) }

// CountDequeue records one completed dequeue.
func (w *Worker) CountDequeue() { w.slot.dequeues.Add(1) }

// CountWait records one backoff round.
func (w *Worker) CountWait() { w.slot.waits.Add(1) }

// Enqueues returns this worker's completed enqueue count.
func (w *Worker) Enqueues() uint64 { return uint64(w.slot.enqueues.Load()) }

// Dequeues returns this worker's completed dequeue count.
func (w *Worker) Dequeues() uint64 { return uint64(w.slot.dequeues.Load()) }

// Waits returns this worker's backoff round count.
func (w *Worker) Waits() uint64 { return uint64(w.slot.waits.Load()) }
