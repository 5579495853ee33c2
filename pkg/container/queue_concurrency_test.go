package container

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/queelius/zeroipc/internal/testmode"
	"github.com/stretchr/testify/require"
)

// TestQueue_SingleProducerOrder covers spec invariant #3: a single
// producer's enqueues are observed by a consumer popping concurrently in
// enqueue order.
func TestQueue_SingleProducerOrder(t *testing.T) {
	seg := newScratchSegment(t, 1<<20)
	q, err := OpenQueue[int](seg, "single-producer-order", 64)
	require.NoError(t, err)

	const n = 5000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			for q.Push(i) == ErrFull {
			}
		}
	}()

	got := make([]int, 0, n)
	for len(got) < n {
		v, err := q.Pop()
		if err == ErrEmpty {
			continue
		}
		got = append(got, v)
	}
	<-done

	for i, v := range got {
		require.Equal(t, i, v, "out-of-order delivery at position %d", i)
	}
}

// TestQueue_MPMCChecksumWithinTolerance implements S5: N producers each
// push a fixed count of records drawn from a reproducible sequence into
// a bounded queue, M consumers drain concurrently until every record is
// accounted for, and the sum of popped values must equal the sum of
// pushed values. Fan-out scales with internal/testmode so this runs
// cheaply by default (4x4) and at spec scale (20x20) under
// ZEROIPC_TEST_MODE=stress.
func TestQueue_MPMCChecksumWithinTolerance(t *testing.T) {
	producers := testmode.Producers()
	consumers := testmode.Consumers()
	const perProducer = 5000

	seg := newScratchSegment(t, 1<<24)
	q, err := OpenQueue[int64](seg, "mpmc-checksum", 10_000)
	require.NoError(t, err)

	total := int64(producers) * int64(perProducer)
	var expectedSum int64
	for p := 0; p < producers; p++ {
		for i := 0; i < perProducer; i++ {
			expectedSum += int64(p*perProducer + i)
		}
	}

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				v := int64(base*perProducer + i)
				for q.Push(v) == ErrFull {
				}
			}
		}(p)
	}

	var poppedCount atomic.Int64
	var poppedSum atomic.Int64
	var cwg sync.WaitGroup
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for poppedCount.Load() < total {
				v, err := q.Pop()
				if err == ErrEmpty {
					continue
				}
				poppedSum.Add(v)
				if poppedCount.Add(1) >= total {
					return
				}
			}
		}()
	}

	wg.Wait()
	cwg.Wait()

	require.EqualValues(t, total, poppedCount.Load())
	// The reference implementation tolerates up to 0.1% checksum drift
	// under the relaxed, non-sequenced design (spec.md §4.4); this
	// queue's per-slot sequence counters close that gap entirely, so the
	// sums must match exactly.
	require.Equal(t, expectedSum, poppedSum.Load())
	require.EqualValues(t, 0, q.Size())
}

// TestQueue_TornProducerDoesNotCorruptSurvivors approximates S6 within a
// single process: a Go test cannot fork() and crash a child, so this
// simulates a producer that dies between reserving a slot (the tail CAS)
// and publishing it (the data write + sequence bump) by reserving the
// slot directly and never completing it. The surviving process's drain
// must still recover every record published before the torn slot, all
// well-formed, matching "at least 100 records, every one well-formed"
// from spec.md's S6 — this is recorded as the crash-recovery
// substitution in DESIGN.md.
func TestQueue_TornProducerDoesNotCorruptSurvivors(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	q, err := OpenQueue[int64](seg, "torn-producer", 256)
	require.NoError(t, err)

	const completed = 100
	for i := int64(0); i < completed; i++ {
		require.NoError(t, q.Push(i))
	}

	// Simulate process B crashing mid-push on its 26th record: reserve
	// the next slot (the tail CAS a real Push would do first) but never
	// write the record or bump its sequence counter, leaving the slot
	// permanently "reserved but not published".
	tornPos := atomic.LoadUint64(q.tailPtr())
	require.True(t, atomic.CompareAndSwapUint64(q.tailPtr(), tornPos, tornPos+1))

	drained := make([]int64, 0, completed)
	for {
		v, err := q.Pop()
		if err == ErrEmpty {
			break
		}
		drained = append(drained, v)
	}

	require.GreaterOrEqual(t, len(drained), completed)
	for i, v := range drained {
		require.Equal(t, int64(i), v, "drained record %d is not well-formed", i)
	}
	// The torn slot blocks further draining rather than fabricating or
	// corrupting a record — Pop still reports empty, never panics or
	// returns garbage, satisfying failure-surviving invariant (c).
	_, err = q.Pop()
	require.ErrorIs(t, err, ErrEmpty)
}
