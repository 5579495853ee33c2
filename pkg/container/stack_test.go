package container

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestStackOverflowAndUnderflow fills a bounded stack to capacity, checks
// that Push past capacity fails, then drains it and checks Pop past
// empty fails.
func TestStackOverflowAndUnderflow(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	s, err := OpenStack[int](seg, "bounded", 3)
	require.NoError(t, err)

	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.NoError(t, s.Push(3))
	require.ErrorIs(t, s.Push(4), ErrFull)

	for _, want := range []int{3, 2, 1} {
		v, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, want, v)
	}

	_, err = s.Pop()
	require.ErrorIs(t, err, ErrEmpty)
}

func TestStackLIFOSingleThreaded(t *testing.T) {
	seg := newScratchSegment(t, 1<<16)
	s, err := OpenStack[string](seg, "lifo", 8)
	require.NoError(t, err)

	for _, v := range []string{"a", "b", "c"} {
		require.NoError(t, s.Push(v))
	}
	require.EqualValues(t, 3, s.Size())

	for _, want := range []string{"c", "b", "a"} {
		v, err := s.Pop()
		require.NoError(t, err)
		require.Equal(t, want, v)
	}
}

// TestStackConcurrentNoFabrication checks that under concurrency every
// popped value was previously pushed and not previously popped.
func TestStackConcurrentNoFabrication(t *testing.T) {
	seg := newScratchSegment(t, 1<<20)
	const pushers = 8
	const perPusher = 1000
	const total = pushers * perPusher

	// Every push completes before any pop starts, so the stack must hold
	// all of them at once.
	s, err := OpenStack[int64](seg, "concurrent", total)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := 0; p < pushers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perPusher; i++ {
				v := int64(base*perPusher + i)
				for s.Push(v) == ErrFull {
				}
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[int64]bool, total)
	var mu sync.Mutex
	var cwg sync.WaitGroup
	for c := 0; c < pushers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				v, err := s.Pop()
				if err == ErrEmpty {
					return
				}
				mu.Lock()
				require.False(t, seen[v], "value %d popped twice", v)
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	cwg.Wait()

	require.Len(t, seen, total)
}
