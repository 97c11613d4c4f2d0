// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"runtime"
	"time"

	"code.hybscloud.com/spin"
)

// Default escalation thresholds for the zero [Backoff] value.
const (
	DefaultPauseRounds = 10
	DefaultYieldRounds = 20
	DefaultSleep       = 100 * time.Nanosecond
)

// Backoff is an escalating wait policy: CPU pause instructions first,
// then cooperative yields, then short timed sleeps.
//
// The pause leg reduces pipeline pressure without releasing the core,
// the yield leg hands the processor to other goroutines, and the sleep
// leg caps CPU burn under persistent contention. Blocking queue
// operations wait with the policy installed at build time; callers of
// the polling operations can drive their own retry loops with it:
//
//	backoff := ringq.Backoff{}
//	for q.TryEnqueue(&item) != nil {
//	    backoff.Wait()
//	}
//	backoff.Reset()
//
// The zero value uses the Default* thresholds. Setting any field takes
// all three literally, so a policy of {YieldRounds: 64} never pauses and
// never sleeps for more than the zero duration.
//
// A Backoff tracks its escalation round between Wait calls and is not
// safe for concurrent use; give each goroutine its own.
type Backoff struct {
	// PauseRounds is the number of rounds spent on pause instructions.
	PauseRounds uint32
	// YieldRounds is the number of rounds yielding to the scheduler
	// once the pause rounds are exhausted.
	YieldRounds uint32
	// Sleep is the duration slept on every round after the yield leg.
	Sleep time.Duration

	round uint64
	sw    spin.Wait
}

// Wait blocks for one escalation round.
func (b *Backoff) Wait() {
	pauseRounds, yieldRounds, sleep := b.thresholds()
	switch {
	case b.round < pauseRounds:
		b.sw.Once()
	case b.round < pauseRounds+yieldRounds:
		runtime.Gosched()
	default:
		time.Sleep(sleep)
	}
	b.round++
}

// Reset returns the policy to the pause leg.
// Call after a successful operation so the next wait starts cheap.
func (b *Backoff) Reset() {
	b.round = 0
	b.sw.Reset()
}

func (b *Backoff) thresholds() (pauseRounds, yieldRounds uint64, sleep time.Duration) {
	if b.PauseRounds == 0 && b.YieldRounds == 0 && b.Sleep == 0 {
		return DefaultPauseRounds, DefaultYieldRounds, DefaultSleep
	}
	return uint64(b.PauseRounds), uint64(b.YieldRounds), b.Sleep
}

// policy returns a copy with the wait state cleared.
func (b Backoff) policy() Backoff {
	return Backoff{PauseRounds: b.PauseRounds, YieldRounds: b.YieldRounds, Sleep: b.Sleep}
}
