// Package syncprim implements the shared-counter synchronization
// primitives: semaphore, latch, and barrier, plus a scoped acquisition
// guard. Blocking acquire has no true futex-style wait across unrelated
// processes without cgo, so every blocking path here spins with a
// jittered exponential backoff instead of sleeping on an OS primitive;
// see DESIGN.md for the tradeoff.
package syncprim

import (
	"math/rand"
	"time"
)

// backoff implements a capped jittered exponential backoff for spinning
// on a contended shared counter.
type backoff struct {
	current time.Duration
	max     time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: time.Microsecond, max: 2 * time.Millisecond}
}

func (b *backoff) sleep() {
	jitter := time.Duration(rand.Int63n(int64(b.current) + 1))
	time.Sleep(b.current/2 + jitter/2)
	if b.current < b.max {
		b.current *= 2
	}
}
