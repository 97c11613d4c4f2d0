// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// This file contains examples that exercise real concurrency over the
// queues. The sequence protocol establishes happens-before through
// atomic operations on separate variables, which Go's race detector
// cannot observe; the examples are correct but excluded from race runs.

package ringq_test

import (
	"fmt"
	"sync"

	"code.hybscloud.com/ringq"
)

// ExampleMPMC_Enqueue demonstrates multiple producers over the blocking
// API.
func ExampleMPMC_Enqueue() {
	q := ringq.NewMPMC[string](16)

	var wg sync.WaitGroup
	for p := range 3 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			msg := fmt.Sprintf("msg from producer %d", id)
			q.Enqueue(&msg)
		}(p)
	}
	wg.Wait()

	for range 3 {
		fmt.Println(q.Dequeue())
	}

	// Unordered output:
	// msg from producer 0
	// msg from producer 1
	// msg from producer 2
}

// ExampleQueue demonstrates a worker pool draining a shared queue.
func ExampleQueue() {
	var q ringq.Queue[int] = ringq.NewMPMC[int](64)

	var wg sync.WaitGroup
	results := make(chan int, 8)

	// Two workers block until jobs arrive
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 4 {
				results <- q.Dequeue() * 2
			}
		}()
	}

	// Submit 8 jobs
	for i := 1; i <= 8; i++ {
		v := i
		q.Enqueue(&v)
	}
	wg.Wait()
	close(results)

	sum := 0
	for r := range results {
		sum += r
	}
	fmt.Println(sum)

	// Output:
	// 72
}

// ExampleBackoff demonstrates a caller-side retry loop on the polling
// API.
func ExampleBackoff() {
	q := ringq.NewSPSC[int](2)

	done := make(chan struct{})
	go func() {
		defer close(done)
		backoff := ringq.Backoff{}
		for i := range 6 {
			v := i
			for q.TryEnqueue(&v) != nil {
				backoff.Wait() // queue full: escalate pause, yield, sleep
			}
			backoff.Reset()
		}
	}()

	total := 0
	backoff := ringq.Backoff{}
	for count := 0; count < 6; {
		v, err := q.TryDequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		total += v
		count++
	}
	<-done
	fmt.Println(total)

	// Output:
	// 15
}
