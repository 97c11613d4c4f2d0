// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package qbench runs timed producer/consumer workloads against a queue
// and reports what actually moved through it.
//
// A run spawns the configured producers and consumers, lets them push
// randomized payloads for the test duration, then flips an atomic flag:
// producers stop, consumers drain the leftovers. Produced and consumed
// sums are tracked so callers can cross-check that no payload was lost
// or altered in transit.
package qbench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"code.hybscloud.com/ringq"
	"github.com/valyala/fastrand"
)

// ErrDrainStalled reports that consumers failed to drain the queue
// within the drain grace period after producers stopped.
var ErrDrainStalled = errors.New("qbench: drain stalled")

// Config describes one timed run.
type Config struct {
	Producers int
	Consumers int
	// Duration is the production window.
	Duration time.Duration
	// Drain bounds how long consumers may take to empty the queue after
	// production stops. Zero means 10 seconds.
	Drain time.Duration
	// Blocking selects the blocking API (Enqueue/Dequeue) instead of the
	// polling API with per-worker backoff.
	Blocking bool
}

// Result holds the counts of one timed run.
type Result struct {
	Produced    uint64
	Consumed    uint64
	ProducedSum uint64
	ConsumedSum uint64
	Elapsed     time.Duration
	PerProducer []uint64
	PerConsumer []uint64
	// Waits is the total backoff rounds across all workers.
	Waits uint64
}

// Throughput returns consumed messages per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Consumed) / r.Elapsed.Seconds()
}

// Run drives cfg.Producers producer goroutines and cfg.Consumers
// consumer goroutines over q for cfg.Duration, then drains.
//
// Per-worker counts are gathered through a [ringq.Registry] sized to the
// worker total. Returns ErrDrainStalled if the queue still holds items
// when the drain grace period expires.
func Run(q ringq.Queue[uint64], cfg Config) (Result, error) {
	if cfg.Producers < 1 || cfg.Consumers < 1 {
		return Result{}, fmt.Errorf("qbench: need at least one producer and one consumer, got %d/%d", cfg.Producers, cfg.Consumers)
	}
	drain := cfg.Drain
	if drain == 0 {
		drain = 10 * time.Second
	}

	reg := ringq.NewRegistry(cfg.Producers + cfg.Consumers)
	producers := make([]*ringq.Worker, cfg.Producers)
	consumers := make([]*ringq.Worker, cfg.Consumers)
	for i := range producers {
		w, err := reg.Attach()
		if err != nil {
			return Result{}, fmt.Errorf("qbench: attach producer %d: %w", i, err)
		}
		producers[i] = w
	}
	for i := range consumers {
		w, err := reg.Attach()
		if err != nil {
			return Result{}, fmt.Errorf("qbench: attach consumer %d: %w", i, err)
		}
		consumers[i] = w
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	var (
		produced    atomic.Uint64
		producedSum atomic.Uint64
		consumedSum atomic.Uint64
		claims      atomic.Uint64 // Blocking mode: consumer ticket fence
		done        atomic.Bool   // Production window expired
		drainNow    atomic.Bool   // All producers exited; drain and leave
	)

	start := time.Now()
	go func() {
		<-ctx.Done()
		done.Store(true)
	}()

	var prodWg sync.WaitGroup
	prodWg.Add(cfg.Producers)
	for _, w := range producers {
		go func(w *ringq.Worker) {
			defer prodWg.Done()
			if cfg.Blocking {
				produceBlocking(q, w, &done, &produced, &producedSum)
			} else {
				producePolling(q, w, &done, &produced, &producedSum)
			}
		}(w)
	}

	var consWg sync.WaitGroup
	consWg.Add(cfg.Consumers)
	for _, w := range consumers {
		go func(w *ringq.Worker) {
			defer consWg.Done()
			if cfg.Blocking {
				consumeFenced(q, w, &drainNow, &produced, &claims, &consumedSum)
			} else {
				consumePolling(q, w, &drainNow, &consumedSum)
			}
		}(w)
	}

	prodWg.Wait()
	perProducer := make([]uint64, cfg.Producers)
	for i, w := range producers {
		perProducer[i] = w.Enqueues()
	}
	drainNow.Store(true)

	consDone := make(chan struct{})
	go func() {
		consWg.Wait()
		close(consDone)
	}()
	select {
	case <-consDone:
	case <-time.After(drain):
		return Result{}, ErrDrainStalled
	}
	elapsed := time.Since(start)

	perConsumer := make([]uint64, cfg.Consumers)
	var consumed uint64
	for i, w := range consumers {
		perConsumer[i] = w.Dequeues()
		consumed += perConsumer[i]
	}
	waits := reg.Snapshot().Waits
	for _, w := range producers {
		w.Release()
	}
	for _, w := range consumers {
		w.Release()
	}

	return Result{
		Produced:    produced.Load(),
		Consumed:    consumed,
		ProducedSum: producedSum.Load(),
		ConsumedSum: consumedSum.Load(),
		Elapsed:     elapsed,
		PerProducer: perProducer,
		PerConsumer: perConsumer,
		Waits:       waits,
	}, nil
}

func producePolling(q ringq.Queue[uint64], w *ringq.Worker, done *atomic.Bool, produced *atomic.Uint64, producedSum *atomic.Uint64) {
	var sum uint64
	var count uint64
	backoff := ringq.Backoff{}
	for !done.Load() {
		v := uint64(fastrand.Uint32())
		if q.TryEnqueue(&v) != nil {
			w.CountWait()
			backoff.Wait()
			continue
		}
		backoff.Reset()
		sum += v
		count++
		w.CountEnqueue()
	}
	produced.Add(count)
	producedSum.Add(sum)
}

func produceBlocking(q ringq.Queue[uint64], w *ringq.Worker, done *atomic.Bool, produced *atomic.Uint64, producedSum *atomic.Uint64) {
	var sum uint64
	for !done.Load() {
		v := uint64(fastrand.Uint32())
		q.Enqueue(&v)
		sum += v
		w.CountEnqueue()
		// The fence in consumeFenced reads this count, so it must grow
		// only after the element is actually in the queue.
		produced.Add(1)
	}
	producedSum.Add(sum)
}

func consumePolling(q ringq.Queue[uint64], w *ringq.Worker, drainNow *atomic.Bool, consumedSum *atomic.Uint64) {
	var sum uint64
	backoff := ringq.Backoff{}
	defer func() { consumedSum.Add(sum) }()
	for {
		if v, err := q.TryDequeue(); err == nil {
			sum += v
			w.CountDequeue()
			backoff.Reset()
			continue
		}
		if drainNow.Load() {
			// Producers exited; one empty read after the flag means empty
			// for good.
			for {
				v, err := q.TryDequeue()
				if err != nil {
					return
				}
				sum += v
				w.CountDequeue()
			}
		}
		w.CountWait()
		backoff.Wait()
	}
}

// consumeFenced dequeues with the blocking API behind a claim fence:
// a consumer claims a ticket only when fewer tickets than produced
// items exist, so every blocking Dequeue has an item to meet and the
// consumers cannot hang at shutdown.
func consumeFenced(q ringq.Queue[uint64], w *ringq.Worker, drainNow *atomic.Bool, produced, claims *atomic.Uint64, consumedSum *atomic.Uint64) {
	var sum uint64
	backoff := ringq.Backoff{}
	defer func() { consumedSum.Add(sum) }()
	for {
		c := claims.Load()
		if c >= produced.Load() {
			if drainNow.Load() && c >= produced.Load() {
				return
			}
			w.CountWait()
			backoff.Wait()
			continue
		}
		if !claims.CompareAndSwap(c, c+1) {
			continue
		}
		sum += q.Dequeue()
		w.CountDequeue()
		backoff.Reset()
	}
}
